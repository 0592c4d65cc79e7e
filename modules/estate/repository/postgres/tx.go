package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// ErrNestedTx is returned when BeginEstateTx is called on a repository that is already a transaction.
var ErrNestedTx = errors.Wrap(errs.Conflict, "transaction already in progress")

// BeginEstateTx returns a repository whose queries run inside one transaction.
func (r *Repository) BeginEstateTx(ctx context.Context) (datagateway.EstateDataGatewayWithTx, error) {
	if r.tx != nil {
		return nil, errors.WithStack(ErrNestedTx)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return &Repository{db: r.db, tx: tx}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	tx := r.tx
	r.tx = nil
	return errors.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

func (r *Repository) Rollback(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	tx := r.tx
	r.tx = nil
	switch err := tx.Rollback(ctx); {
	case err == nil:
		logger.DebugContext(ctx, "Rolled back transaction")
	case !errors.Is(err, pgx.ErrTxClosed):
		return errors.Wrap(err, "failed to rollback transaction")
	}
	return nil
}
