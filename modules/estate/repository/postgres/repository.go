package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/internal/postgres"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ datagateway.EstateDataGatewayWithTx = (*Repository)(nil)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Repository struct {
	db postgres.DB
	tx pgx.Tx
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) queryable() postgres.Queryable {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func queryAll[T any](ctx context.Context, q postgres.Queryable, scan func(rowScanner) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return items, nil
}

// mapError translates driver errors into errs kinds, keeping the driver error as secondary.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.WithSecondaryError(errors.Wrap(errs.NotFound, msg), err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.WithSecondaryError(errors.Wrapf(errs.Conflict, "%s: %s", msg, pgErr.ConstraintName), err)
		case pgForeignKeyViolation:
			return errors.WithSecondaryError(errors.Wrapf(errs.InvalidArgument, "%s: referenced record does not exist", msg), err)
		}
	}
	return errors.Wrap(err, msg)
}

func requireAffected(tag pgconn.CommandTag, msg string) error {
	if tag.RowsAffected() == 0 {
		return errors.Wrap(errs.NotFound, msg)
	}
	return nil
}
