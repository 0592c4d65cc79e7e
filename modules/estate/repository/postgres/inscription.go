package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
)

const inscriptionColumns = `id, inscription_id, owner, property_id, created_at, updated_at`

func scanInscription(row rowScanner) (*entity.Inscription, error) {
	var i entity.Inscription
	if err := row.Scan(&i.Id, &i.InscriptionId, &i.Owner, &i.PropertyId, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, errors.WithStack(err)
	}
	return &i, nil
}

func (r *Repository) CreateInscription(ctx context.Context, i entity.Inscription) error {
	query := `INSERT INTO inscriptions (` + inscriptionColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.queryable().Exec(ctx, query, i.Id, i.InscriptionId, i.Owner, i.PropertyId, i.CreatedAt, i.UpdatedAt)
	return mapError(err, "failed to insert inscription")
}

func (r *Repository) CreateInscriptionIfNotExists(ctx context.Context, i entity.Inscription) (bool, error) {
	query := `INSERT INTO inscriptions (` + inscriptionColumns + `) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (inscription_id) DO NOTHING`
	tag, err := r.queryable().Exec(ctx, query, i.Id, i.InscriptionId, i.Owner, i.PropertyId, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return false, mapError(err, "failed to insert inscription")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) GetInscriptions(ctx context.Context) ([]*entity.Inscription, error) {
	query := `SELECT ` + inscriptionColumns + ` FROM inscriptions ORDER BY created_at ASC`
	inscriptions, err := queryAll(ctx, r.queryable(), scanInscription, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscriptions")
	}
	return inscriptions, nil
}

func (r *Repository) GetInscriptionById(ctx context.Context, id uuid.UUID) (*entity.Inscription, error) {
	query := `SELECT ` + inscriptionColumns + ` FROM inscriptions WHERE id = $1`
	i, err := scanInscription(r.queryable().QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "failed to get inscription")
	}
	return i, nil
}

func (r *Repository) GetInscriptionsByInscriptionId(ctx context.Context, inscriptionId string) ([]*entity.Inscription, error) {
	query := `SELECT ` + inscriptionColumns + ` FROM inscriptions WHERE inscription_id = $1`
	inscriptions, err := queryAll(ctx, r.queryable(), scanInscription, query, inscriptionId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscriptions by inscription id")
	}
	return inscriptions, nil
}

func (r *Repository) GetInscriptionsByProperty(ctx context.Context, propertyId uuid.UUID) ([]*entity.Inscription, error) {
	query := `SELECT ` + inscriptionColumns + ` FROM inscriptions WHERE property_id = $1 ORDER BY created_at ASC`
	inscriptions, err := queryAll(ctx, r.queryable(), scanInscription, query, propertyId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscriptions by property")
	}
	return inscriptions, nil
}

func (r *Repository) GetInscriptionsByOwner(ctx context.Context, owner string) ([]*entity.Inscription, error) {
	query := `SELECT ` + inscriptionColumns + ` FROM inscriptions WHERE owner = $1 ORDER BY created_at ASC`
	inscriptions, err := queryAll(ctx, r.queryable(), scanInscription, query, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscriptions by owner")
	}
	return inscriptions, nil
}

func (r *Repository) GetOwnerShares(ctx context.Context, propertyId *uuid.UUID) ([]entity.OwnerShares, error) {
	query := `SELECT owner, COUNT(*) AS amount FROM inscriptions
		WHERE ($1::uuid IS NULL OR property_id = $1)
		GROUP BY owner
		ORDER BY amount DESC, owner ASC`
	shares, err := queryAll(ctx, r.queryable(), func(row rowScanner) (entity.OwnerShares, error) {
		var s entity.OwnerShares
		err := row.Scan(&s.Owner, &s.Amount)
		return s, errors.WithStack(err)
	}, query, propertyId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to group inscriptions by owner")
	}
	return shares, nil
}

func (r *Repository) UpdateInscription(ctx context.Context, id uuid.UUID, params datagateway.UpdateInscriptionParams) (*entity.Inscription, error) {
	query := `UPDATE inscriptions SET
		inscription_id = COALESCE($2, inscription_id),
		owner = COALESCE($3, owner),
		property_id = COALESCE($4, property_id),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + inscriptionColumns
	i, err := scanInscription(r.queryable().QueryRow(ctx, query, id, params.InscriptionId, params.Owner, params.PropertyId))
	if err != nil {
		return nil, mapError(err, "failed to update inscription")
	}
	return i, nil
}

func (r *Repository) UpdateInscriptionOwner(ctx context.Context, id uuid.UUID, owner string) error {
	tag, err := r.queryable().Exec(ctx, `UPDATE inscriptions SET owner = $2, updated_at = NOW() WHERE id = $1`, id, owner)
	if err != nil {
		return mapError(err, "failed to update inscription owner")
	}
	return requireAffected(tag, "inscription not found")
}

func (r *Repository) DeleteInscription(ctx context.Context, id uuid.UUID) error {
	tag, err := r.queryable().Exec(ctx, `DELETE FROM inscriptions WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "failed to delete inscription")
	}
	return requireAffected(tag, "inscription not found")
}

func (r *Repository) DeleteAllInscriptions(ctx context.Context) (int64, error) {
	tag, err := r.queryable().Exec(ctx, `DELETE FROM inscriptions`)
	if err != nil {
		return 0, mapError(err, "failed to delete inscriptions")
	}
	return tag.RowsAffected(), nil
}
