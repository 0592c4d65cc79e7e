package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusMinted  OrderStatus = "minted"
	OrderStatusClosed  OrderStatus = "closed"
	OrderStatusUnknown OrderStatus = "unknown"

	// OrderStatusFailed is set when the order status could not be fetched after every retry.
	OrderStatusFailed OrderStatus = "failed"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusMinted, OrderStatusClosed, OrderStatusUnknown, OrderStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the reconciler will never touch an order in this status again.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusMinted || s == OrderStatusClosed || s == OrderStatusFailed
}

type OrderFile struct {
	Filename      string `json:"filename"`
	InscriptionId string `json:"inscriptionId"`
	Status        string `json:"status"`
}

// Order is an inscribe order placed with the minting service. Amounts are satoshis.
type Order struct {
	Id               uuid.UUID
	OrderId          string
	PropertyId       uuid.UUID
	Status           OrderStatus
	PayAddress       string
	ReceiveAddress   string
	Amount           int64
	PaidAmount       int64
	OutputValue      int64
	FeeRate          decimal.Decimal
	MinerFee         int64
	ServiceFee       int64
	DevFee           int64
	Files            []OrderFile
	Count            int64
	PendingCount     int64
	UnconfirmedCount int64
	ConfirmedCount   int64
	CreateTime       int64
	Attempts         int32
	LastError        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
