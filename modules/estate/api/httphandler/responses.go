package httphandler

import (
	"time"

	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type property struct {
	Id            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Supply        int64           `json:"supply"`
	Price         decimal.Decimal `json:"price"`
	InscriptionId string          `json:"inscriptionId"`
	Sold          int64           `json:"sold"`
	ImageURL      string          `json:"imageURL"`
	Status        string          `json:"status"`
	StartsIn      string          `json:"startsIn"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func mapProperty(p *entity.Property) property {
	return property{
		Id:            p.Id,
		Title:         p.Title,
		Description:   p.Description,
		Supply:        p.Supply,
		Price:         p.Price,
		InscriptionId: p.InscriptionId,
		Sold:          p.Sold,
		ImageURL:      p.ImageURL,
		Status:        p.Status,
		StartsIn:      p.StartsIn,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type holder struct {
	Id        uuid.UUID `json:"id"`
	Address   string    `json:"address"`
	Amount    int64     `json:"amount"`
	Property  uuid.UUID `json:"property"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func mapHolder(h *entity.Holder) holder {
	return holder{
		Id:        h.Id,
		Address:   h.Address,
		Amount:    h.Amount,
		Property:  h.PropertyId,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

type inscription struct {
	Id            uuid.UUID `json:"id"`
	InscriptionId string    `json:"inscriptionId"`
	Owner         string    `json:"owner"`
	Property      uuid.UUID `json:"property"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func mapInscription(i *entity.Inscription) inscription {
	return inscription{
		Id:            i.Id,
		InscriptionId: i.InscriptionId,
		Owner:         i.Owner,
		Property:      i.PropertyId,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

type ownerShares struct {
	Owner  string `json:"owner"`
	Amount int64  `json:"amount"`
}

type order struct {
	Id               uuid.UUID          `json:"id"`
	OrderId          string             `json:"orderId"`
	Property         uuid.UUID          `json:"property"`
	Status           entity.OrderStatus `json:"status"`
	PayAddress       string             `json:"payAddress"`
	ReceiveAddress   string             `json:"receiveAddress"`
	Amount           int64              `json:"amount"`
	PaidAmount       int64              `json:"paidAmount"`
	OutputValue      int64              `json:"outputValue"`
	FeeRate          decimal.Decimal    `json:"feeRate"`
	MinerFee         int64              `json:"minerFee"`
	ServiceFee       int64              `json:"serviceFee"`
	DevFee           int64              `json:"devFee"`
	Files            []entity.OrderFile `json:"files"`
	Count            int64              `json:"count"`
	PendingCount     int64              `json:"pendingCount"`
	UnconfirmedCount int64              `json:"unconfirmedCount"`
	ConfirmedCount   int64              `json:"confirmedCount"`
	CreateTime       int64              `json:"createTime"`
	Attempts         int32              `json:"attempts"`
	LastError        string             `json:"lastError,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

func mapOrder(o *entity.Order) order {
	return order{
		Id:               o.Id,
		OrderId:          o.OrderId,
		Property:         o.PropertyId,
		Status:           o.Status,
		PayAddress:       o.PayAddress,
		ReceiveAddress:   o.ReceiveAddress,
		Amount:           o.Amount,
		PaidAmount:       o.PaidAmount,
		OutputValue:      o.OutputValue,
		FeeRate:          o.FeeRate,
		MinerFee:         o.MinerFee,
		ServiceFee:       o.ServiceFee,
		DevFee:           o.DevFee,
		Files:            lo.Ternary(o.Files == nil, []entity.OrderFile{}, o.Files),
		Count:            o.Count,
		PendingCount:     o.PendingCount,
		UnconfirmedCount: o.UnconfirmedCount,
		ConfirmedCount:   o.ConfirmedCount,
		CreateTime:       o.CreateTime,
		Attempts:         o.Attempts,
		LastError:        o.LastError,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

type propertyIncome struct {
	Id        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    int32           `json:"status"`
	Property  uuid.UUID       `json:"property"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func mapPropertyIncome(i *entity.PropertyIncome) propertyIncome {
	return propertyIncome{
		Id:        i.Id,
		Amount:    i.Amount,
		Status:    i.Status,
		Property:  i.PropertyId,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

type userIncome struct {
	Id        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Address   string          `json:"address"`
	Property  *uuid.UUID      `json:"property"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func mapUserIncome(i *entity.UserIncome) userIncome {
	return userIncome{
		Id:        i.Id,
		Amount:    i.Amount,
		Address:   i.Address,
		Property:  i.PropertyId,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// The analytics shapes keep the grouped key under "_id".

type monthlyIncome struct {
	Month       int32           `json:"_id"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Count       int64           `json:"count"`
}

func mapMonthlyIncome(m entity.MonthlyIncome, _ int) monthlyIncome {
	return monthlyIncome{Month: m.Month, TotalAmount: m.Total, Count: m.Count}
}

type propertyIncomeTotal struct {
	PropertyId    uuid.UUID       `json:"_id"`
	PropertyTitle string          `json:"propertyTitle,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Count         int64           `json:"count"`
}

func mapPropertyIncomeTotal(p entity.PropertyIncomeTotal, _ int) propertyIncomeTotal {
	return propertyIncomeTotal{PropertyId: p.PropertyId, PropertyTitle: p.PropertyTitle, TotalAmount: p.Total, Count: p.Count}
}

type addressIncomeTotal struct {
	Address     string          `json:"_id"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Count       int64           `json:"count"`
}

func mapAddressIncomeTotal(a entity.AddressIncomeTotal, _ int) addressIncomeTotal {
	return addressIncomeTotal{Address: a.Address, TotalAmount: a.Total, Count: a.Count}
}

type incomeStats struct {
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AvgAmount   decimal.Decimal `json:"avgAmount"`
	MaxAmount   decimal.Decimal `json:"maxAmount"`
	MinAmount   decimal.Decimal `json:"minAmount"`
	Count       int64           `json:"count"`
}

func mapIncomeStats(s *entity.IncomeStats) incomeStats {
	return incomeStats{
		TotalAmount: s.Total,
		AvgAmount:   s.Average,
		MaxAmount:   s.Max,
		MinAmount:   s.Min,
		Count:       s.Count,
	}
}

type deletedResult struct {
	Deleted int64 `json:"deleted"`
}

func mapSlice[T, R any](items []*T, fn func(*T) R) []R {
	return lo.Map(items, func(item *T, _ int) R { return fn(item) })
}
