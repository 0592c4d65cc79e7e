package postgres

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, order_id, property_id, status, pay_address, receive_address, amount, paid_amount,
	output_value, fee_rate, miner_fee, service_fee, dev_fee, files, count, pending_count,
	unconfirmed_count, confirmed_count, create_time, attempts, last_error, created_at, updated_at`

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o      entity.Order
		status string
		files  []byte
	)
	if err := row.Scan(
		&o.Id, &o.OrderId, &o.PropertyId, &status, &o.PayAddress, &o.ReceiveAddress, &o.Amount, &o.PaidAmount,
		&o.OutputValue, &o.FeeRate, &o.MinerFee, &o.ServiceFee, &o.DevFee, &files, &o.Count, &o.PendingCount,
		&o.UnconfirmedCount, &o.ConfirmedCount, &o.CreateTime, &o.Attempts, &o.LastError, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, errors.WithStack(err)
	}
	o.Status = entity.OrderStatus(status)
	if len(files) > 0 {
		if err := json.Unmarshal(files, &o.Files); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal order files")
		}
	}
	return &o, nil
}

func marshalFiles(files []entity.OrderFile) ([]byte, error) {
	if files == nil {
		files = []entity.OrderFile{}
	}
	b, err := json.Marshal(files)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal order files")
	}
	return b, nil
}

func (r *Repository) CreateOrder(ctx context.Context, o entity.Order) error {
	files, err := marshalFiles(o.Files)
	if err != nil {
		return errors.WithStack(err)
	}
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err = r.queryable().Exec(ctx, query,
		o.Id, o.OrderId, o.PropertyId, string(o.Status), o.PayAddress, o.ReceiveAddress, o.Amount, o.PaidAmount,
		o.OutputValue, o.FeeRate, o.MinerFee, o.ServiceFee, o.DevFee, files, o.Count, o.PendingCount,
		o.UnconfirmedCount, o.ConfirmedCount, o.CreateTime, o.Attempts, o.LastError, o.CreatedAt, o.UpdatedAt,
	)
	return mapError(err, "failed to insert order")
}

func (r *Repository) GetOrders(ctx context.Context) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at ASC`
	orders, err := queryAll(ctx, r.queryable(), scanOrder, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get orders")
	}
	return orders, nil
}

func (r *Repository) GetOrderById(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.queryable().QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "failed to get order")
	}
	return o, nil
}

func (r *Repository) GetOrderByOrderId(ctx context.Context, orderId string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	o, err := scanOrder(r.queryable().QueryRow(ctx, query, orderId))
	if err != nil {
		return nil, mapError(err, "failed to get order by order id")
	}
	return o, nil
}

func (r *Repository) GetPendingOrders(ctx context.Context) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at ASC, id ASC`
	orders, err := queryAll(ctx, r.queryable(), scanOrder, query, string(entity.OrderStatusPending))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pending orders")
	}
	return orders, nil
}

func (r *Repository) UpdateOrder(ctx context.Context, id uuid.UUID, params datagateway.UpdateOrderParams) (*entity.Order, error) {
	var status *string
	if params.Status != nil {
		s := string(*params.Status)
		status = &s
	}
	query := `UPDATE orders SET
		status = COALESCE($2, status),
		property_id = COALESCE($3, property_id),
		pay_address = COALESCE($4, pay_address),
		receive_address = COALESCE($5, receive_address),
		amount = COALESCE($6, amount),
		paid_amount = COALESCE($7, paid_amount),
		updated_at = NOW()
		WHERE id = $1
		AND ($2::text IS NULL OR $2::text = status OR status NOT IN ('minted', 'closed', 'failed'))
		RETURNING ` + orderColumns
	o, err := scanOrder(r.queryable().QueryRow(ctx, query, id,
		status, params.PropertyId, params.PayAddress, params.ReceiveAddress, params.Amount, params.PaidAmount,
	))
	if errors.Is(err, pgx.ErrNoRows) && status != nil {
		if _, getErr := r.GetOrderById(ctx, id); getErr == nil {
			return nil, errors.Wrapf(errs.InvalidArgument, "order %s is finalized, status can't change to %s", id, *status)
		}
	}
	if err != nil {
		return nil, mapError(err, "failed to update order")
	}
	return o, nil
}

func (r *Repository) ApplyOrderResult(ctx context.Context, params datagateway.ApplyOrderResultParams) (bool, error) {
	files, err := marshalFiles(params.Files)
	if err != nil {
		return false, errors.WithStack(err)
	}
	query := `UPDATE orders SET
		status = $2, pay_address = $3, receive_address = $4, amount = $5, paid_amount = $6,
		output_value = $7, fee_rate = $8, miner_fee = $9, service_fee = $10, dev_fee = $11,
		files = $12, count = $13, pending_count = $14, unconfirmed_count = $15, confirmed_count = $16,
		create_time = $17, updated_at = NOW()
		WHERE order_id = $1 AND status = 'pending'`
	tag, err := r.queryable().Exec(ctx, query,
		params.OrderId, string(params.Status), params.PayAddress, params.ReceiveAddress, params.Amount, params.PaidAmount,
		params.OutputValue, params.FeeRate, params.MinerFee, params.ServiceFee, params.DevFee,
		files, params.Count, params.PendingCount, params.UnconfirmedCount, params.ConfirmedCount,
		params.CreateTime,
	)
	if err != nil {
		return false, mapError(err, "failed to apply order result")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) MarkOrderFailed(ctx context.Context, params datagateway.MarkOrderFailedParams) (bool, error) {
	query := `UPDATE orders SET status = 'failed', attempts = $2, last_error = $3, updated_at = NOW()
		WHERE order_id = $1 AND status = 'pending'`
	tag, err := r.queryable().Exec(ctx, query, params.OrderId, params.Attempts, params.LastError)
	if err != nil {
		return false, mapError(err, "failed to mark order failed")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	tag, err := r.queryable().Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "failed to delete order")
	}
	return requireAffected(tag, "order not found")
}

func (r *Repository) DeleteAllOrders(ctx context.Context) (int64, error) {
	tag, err := r.queryable().Exec(ctx, `DELETE FROM orders`)
	if err != nil {
		return 0, mapError(err, "failed to delete orders")
	}
	return tag.RowsAffected(), nil
}
