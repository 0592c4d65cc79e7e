package usecase

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
)

// CreateOrder stores an inscribe order placed with the minting service. New orders are
// pending unless a status is given.
func (u *Usecase) CreateOrder(ctx context.Context, order entity.Order) (*entity.Order, error) {
	var errList []error
	if order.OrderId == "" {
		errList = append(errList, errors.New("'orderId' is required"))
	}
	if err := requireId(order.PropertyId, "property"); err != nil {
		errList = append(errList, err)
	}
	if order.Status == "" {
		order.Status = entity.OrderStatusPending
	}
	if !order.Status.IsValid() {
		errList = append(errList, errors.Newf("invalid order status %q", order.Status))
	}
	if order.ReceiveAddress != "" {
		if err := u.validateAddress(order.ReceiveAddress); err != nil {
			errList = append(errList, err)
		}
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	now := u.now()
	order.Id = uuid.New()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Files == nil {
		order.Files = []entity.OrderFile{}
	}
	if err := u.estateDg.CreateOrder(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}
	return &order, nil
}

func (u *Usecase) GetOrders(ctx context.Context) ([]*entity.Order, error) {
	orders, err := u.estateDg.GetOrders(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get orders")
	}
	return orders, nil
}

func (u *Usecase) GetOrderById(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := u.estateDg.GetOrderById(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get order")
	}
	return order, nil
}

func (u *Usecase) UpdateOrder(ctx context.Context, id uuid.UUID, params datagateway.UpdateOrderParams) (*entity.Order, error) {
	var errList []error
	if params.Status != nil && !params.Status.IsValid() {
		errList = append(errList, errors.Newf("invalid order status %q", *params.Status))
	}
	if params.ReceiveAddress != nil {
		if err := u.validateAddress(*params.ReceiveAddress); err != nil {
			errList = append(errList, err)
		}
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	if params.Status != nil {
		current, err := u.estateDg.GetOrderById(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get order")
		}
		if current.Status.IsTerminal() && *params.Status != current.Status {
			return nil, errs.NewPublicErrorFrom(
				errors.Wrapf(errs.InvalidArgument, "order %s is %s", current.OrderId, current.Status),
				fmt.Sprintf("order is already %s, its status can no longer change", current.Status),
			)
		}
	}

	// the status guard in SQL also covers a reconciliation racing this update
	order, err := u.estateDg.UpdateOrder(ctx, id, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update order")
	}
	return order, nil
}

func (u *Usecase) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := u.estateDg.DeleteOrder(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete order")
	}
	return nil
}

func (u *Usecase) DeleteAllOrders(ctx context.Context) (int64, error) {
	deleted, err := u.estateDg.DeleteAllOrders(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete orders")
	}
	return deleted, nil
}
