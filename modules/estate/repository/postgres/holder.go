package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
)

const holderColumns = `id, address, amount, property_id, created_at, updated_at`

func scanHolder(row rowScanner) (*entity.Holder, error) {
	var h entity.Holder
	if err := row.Scan(&h.Id, &h.Address, &h.Amount, &h.PropertyId, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, errors.WithStack(err)
	}
	return &h, nil
}

func (r *Repository) CreateHolder(ctx context.Context, h entity.Holder) error {
	query := `INSERT INTO holders (` + holderColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.queryable().Exec(ctx, query, h.Id, h.Address, h.Amount, h.PropertyId, h.CreatedAt, h.UpdatedAt)
	return mapError(err, "failed to insert holder")
}

func (r *Repository) GetHolders(ctx context.Context) ([]*entity.Holder, error) {
	query := `SELECT ` + holderColumns + ` FROM holders ORDER BY created_at ASC`
	holders, err := queryAll(ctx, r.queryable(), scanHolder, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get holders")
	}
	return holders, nil
}

func (r *Repository) GetHolderById(ctx context.Context, id uuid.UUID) (*entity.Holder, error) {
	query := `SELECT ` + holderColumns + ` FROM holders WHERE id = $1`
	h, err := scanHolder(r.queryable().QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "failed to get holder")
	}
	return h, nil
}

func (r *Repository) SearchHolders(ctx context.Context, params datagateway.SearchHoldersParams) ([]*entity.Holder, int64, error) {
	const filter = ` WHERE ($1::text = '' OR address = $1) AND ($2::uuid IS NULL OR property_id = $2)`

	var total int64
	if err := r.queryable().QueryRow(ctx, `SELECT COUNT(*) FROM holders`+filter, params.Address, params.PropertyId).Scan(&total); err != nil {
		return nil, 0, mapError(err, "failed to count holders")
	}

	query := `SELECT ` + holderColumns + ` FROM holders` + filter + ` ORDER BY created_at ASC, id ASC OFFSET $3 LIMIT $4`
	holders, err := queryAll(ctx, r.queryable(), scanHolder, query, params.Address, params.PropertyId, params.Start, params.Limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to search holders")
	}
	return holders, total, nil
}

func (r *Repository) UpdateHolder(ctx context.Context, id uuid.UUID, params datagateway.UpdateHolderParams) (*entity.Holder, error) {
	query := `UPDATE holders SET
		address = COALESCE($2, address),
		amount = COALESCE($3, amount),
		property_id = COALESCE($4, property_id),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + holderColumns
	h, err := scanHolder(r.queryable().QueryRow(ctx, query, id, params.Address, params.Amount, params.PropertyId))
	if err != nil {
		return nil, mapError(err, "failed to update holder")
	}
	return h, nil
}

func (r *Repository) DeleteHolder(ctx context.Context, id uuid.UUID) error {
	tag, err := r.queryable().Exec(ctx, `DELETE FROM holders WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "failed to delete holder")
	}
	return requireAffected(tag, "holder not found")
}

func (r *Repository) AddHolderAmount(ctx context.Context, params datagateway.AddHolderAmountParams) error {
	query := `INSERT INTO holders (id, address, amount, property_id) VALUES ($1, $2, $3, $4)
		ON CONFLICT (address, property_id) DO UPDATE SET amount = holders.amount + EXCLUDED.amount, updated_at = NOW()`
	_, err := r.queryable().Exec(ctx, query, params.Id, params.Address, params.Amount, params.PropertyId)
	return mapError(err, "failed to add holder amount")
}
