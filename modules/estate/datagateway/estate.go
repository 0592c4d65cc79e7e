package datagateway

import (
	"context"

	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lookups of a single record return an error wrapping errs.NotFound when it does not
// exist, inserts violating a unique key return an error wrapping errs.Conflict.
type EstateDataGateway interface {
	BeginEstateTx(ctx context.Context) (EstateDataGatewayWithTx, error)
	PropertyDataGateway
	InscriptionDataGateway
	HolderDataGateway
	OrderDataGateway
	IncomeDataGateway
}

type EstateDataGatewayWithTx interface {
	EstateDataGateway
	Tx
}

type PropertyDataGateway interface {
	CreateProperty(ctx context.Context, property entity.Property) error
	GetProperties(ctx context.Context) ([]*entity.Property, error)
	GetPropertyById(ctx context.Context, id uuid.UUID) (*entity.Property, error)
	UpdateProperty(ctx context.Context, id uuid.UUID, params UpdatePropertyParams) (*entity.Property, error)
	DeleteProperty(ctx context.Context, id uuid.UUID) error
	// IncrementPropertySold atomically adds amount to the sold counter and returns the new value.
	IncrementPropertySold(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
}

type InscriptionDataGateway interface {
	CreateInscription(ctx context.Context, inscription entity.Inscription) error
	// CreateInscriptionIfNotExists inserts the inscription unless its inscription id is already stored.
	CreateInscriptionIfNotExists(ctx context.Context, inscription entity.Inscription) (bool, error)
	GetInscriptions(ctx context.Context) ([]*entity.Inscription, error)
	GetInscriptionById(ctx context.Context, id uuid.UUID) (*entity.Inscription, error)
	GetInscriptionsByInscriptionId(ctx context.Context, inscriptionId string) ([]*entity.Inscription, error)
	GetInscriptionsByProperty(ctx context.Context, propertyId uuid.UUID) ([]*entity.Inscription, error)
	GetInscriptionsByOwner(ctx context.Context, owner string) ([]*entity.Inscription, error)
	// GetOwnerShares counts inscriptions per owner, largest first. A nil property counts across all properties.
	GetOwnerShares(ctx context.Context, propertyId *uuid.UUID) ([]entity.OwnerShares, error)
	UpdateInscription(ctx context.Context, id uuid.UUID, params UpdateInscriptionParams) (*entity.Inscription, error)
	UpdateInscriptionOwner(ctx context.Context, id uuid.UUID, owner string) error
	DeleteInscription(ctx context.Context, id uuid.UUID) error
	DeleteAllInscriptions(ctx context.Context) (int64, error)
}

type HolderDataGateway interface {
	CreateHolder(ctx context.Context, holder entity.Holder) error
	GetHolders(ctx context.Context) ([]*entity.Holder, error)
	GetHolderById(ctx context.Context, id uuid.UUID) (*entity.Holder, error)
	SearchHolders(ctx context.Context, params SearchHoldersParams) ([]*entity.Holder, int64, error)
	UpdateHolder(ctx context.Context, id uuid.UUID, params UpdateHolderParams) (*entity.Holder, error)
	DeleteHolder(ctx context.Context, id uuid.UUID) error
	// AddHolderAmount adds amount to the holding of (address, property), creating it if needed.
	AddHolderAmount(ctx context.Context, params AddHolderAmountParams) error
}

type OrderDataGateway interface {
	CreateOrder(ctx context.Context, order entity.Order) error
	GetOrders(ctx context.Context) ([]*entity.Order, error)
	GetOrderById(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetOrderByOrderId(ctx context.Context, orderId string) (*entity.Order, error)
	// GetPendingOrders returns the pending orders, oldest first.
	GetPendingOrders(ctx context.Context) ([]*entity.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, params UpdateOrderParams) (*entity.Order, error)
	// ApplyOrderResult writes a terminal result to a pending order. It returns false,
	// without writing, if the order is no longer pending.
	ApplyOrderResult(ctx context.Context, params ApplyOrderResultParams) (bool, error)
	// MarkOrderFailed moves a pending order to failed, reporting whether it was pending.
	MarkOrderFailed(ctx context.Context, params MarkOrderFailedParams) (bool, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	DeleteAllOrders(ctx context.Context) (int64, error)
}

type IncomeDataGateway interface {
	CreatePropertyIncome(ctx context.Context, income entity.PropertyIncome) error
	GetPropertyIncomes(ctx context.Context) ([]*entity.PropertyIncome, error)
	GetPropertyIncomeById(ctx context.Context, id uuid.UUID) (*entity.PropertyIncome, error)
	UpdatePropertyIncome(ctx context.Context, id uuid.UUID, params UpdatePropertyIncomeParams) (*entity.PropertyIncome, error)
	DeletePropertyIncome(ctx context.Context, id uuid.UUID) error
	GetPropertyIncomeMonthly(ctx context.Context) ([]entity.MonthlyIncome, error)
	GetPropertyIncomeByProperty(ctx context.Context) ([]entity.PropertyIncomeTotal, error)
	GetPropertyIncomeStats(ctx context.Context) (*entity.IncomeStats, error)

	CreateUserIncome(ctx context.Context, income entity.UserIncome) error
	GetUserIncomes(ctx context.Context) ([]*entity.UserIncome, error)
	GetUserIncomeById(ctx context.Context, id uuid.UUID) (*entity.UserIncome, error)
	UpdateUserIncome(ctx context.Context, id uuid.UUID, params UpdateUserIncomeParams) (*entity.UserIncome, error)
	DeleteUserIncome(ctx context.Context, id uuid.UUID) error
	GetUserIncomeByAddress(ctx context.Context, filter UserIncomeFilter) ([]entity.AddressIncomeTotal, error)
	GetUserIncomeMonthly(ctx context.Context) ([]entity.MonthlyIncome, error)
	GetUserIncomeByProperty(ctx context.Context) ([]entity.PropertyIncomeTotal, error)
	GetUserIncomeStats(ctx context.Context, filter UserIncomeFilter) (*entity.IncomeStats, error)
}

// Update params: nil fields are left unchanged.

type UpdatePropertyParams struct {
	Title         *string
	Description   *string
	Supply        *int64
	Price         *decimal.Decimal
	InscriptionId *string
	Sold          *int64
	ImageURL      *string
	Status        *string
	StartsIn      *string
}

type UpdateInscriptionParams struct {
	InscriptionId *string
	Owner         *string
	PropertyId    *uuid.UUID
}

type UpdateHolderParams struct {
	Address    *string
	Amount     *int64
	PropertyId *uuid.UUID
}

type SearchHoldersParams struct {
	Start      int32
	Limit      int32
	Address    string     // optional
	PropertyId *uuid.UUID // optional
}

type AddHolderAmountParams struct {
	Id         uuid.UUID // used if the holding does not exist yet
	Address    string
	PropertyId uuid.UUID
	Amount     int64
}

type UpdateOrderParams struct {
	Status         *entity.OrderStatus
	PropertyId     *uuid.UUID
	PayAddress     *string
	ReceiveAddress *string
	Amount         *int64
	PaidAmount     *int64
}

type ApplyOrderResultParams struct {
	OrderId          string
	Status           entity.OrderStatus
	PayAddress       string
	ReceiveAddress   string
	Amount           int64
	PaidAmount       int64
	OutputValue      int64
	FeeRate          decimal.Decimal
	MinerFee         int64
	ServiceFee       int64
	DevFee           int64
	Files            []entity.OrderFile
	Count            int64
	PendingCount     int64
	UnconfirmedCount int64
	ConfirmedCount   int64
	CreateTime       int64
}

type MarkOrderFailedParams struct {
	OrderId   string
	Attempts  int32
	LastError string
}

type UpdatePropertyIncomeParams struct {
	Amount     *decimal.Decimal
	Status     *int32
	PropertyId *uuid.UUID
}

type UpdateUserIncomeParams struct {
	Amount     *decimal.Decimal
	Address    *string
	PropertyId *uuid.UUID
}

// UserIncomeFilter narrows user income aggregates, empty fields match everything.
type UserIncomeFilter struct {
	Address    string
	PropertyId *uuid.UUID
}
