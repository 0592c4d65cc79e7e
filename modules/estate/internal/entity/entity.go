package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const PropertyStatusActive = "active"

type Property struct {
	Id            uuid.UUID
	Title         string
	Description   string
	Supply        int64
	Price         decimal.Decimal
	InscriptionId string // parent inscription of the property collection
	Sold          int64
	ImageURL      string
	Status        string
	StartsIn      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Inscription struct {
	Id            uuid.UUID
	InscriptionId string
	Owner         string
	PropertyId    uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Holder is the number of shares an address holds in a property.
type Holder struct {
	Id         uuid.UUID
	Address    string
	Amount     int64
	PropertyId uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PropertyIncome struct {
	Id         uuid.UUID
	Amount     decimal.Decimal
	Status     int32
	PropertyId uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type UserIncome struct {
	Id         uuid.UUID
	Amount     decimal.Decimal
	Address    string
	PropertyId *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OwnerShares is the number of inscriptions owned by an address.
type OwnerShares struct {
	Owner  string
	Amount int64
}

type MonthlyIncome struct {
	Month int32
	Total decimal.Decimal
	Count int64
}

type PropertyIncomeTotal struct {
	PropertyId    uuid.UUID
	PropertyTitle string // empty if the property no longer exists
	Total         decimal.Decimal
	Count         int64
}

type AddressIncomeTotal struct {
	Address string
	Total   decimal.Decimal
	Count   int64
}

type IncomeStats struct {
	Total   decimal.Decimal
	Average decimal.Decimal
	Max     decimal.Decimal
	Min     decimal.Decimal
	Count   int64
}
