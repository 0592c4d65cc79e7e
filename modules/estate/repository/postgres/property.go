package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
)

const propertyColumns = `id, title, description, supply, price, inscription_id, sold, image_url, status, starts_in, created_at, updated_at`

func scanProperty(row rowScanner) (*entity.Property, error) {
	var p entity.Property
	if err := row.Scan(
		&p.Id, &p.Title, &p.Description, &p.Supply, &p.Price, &p.InscriptionId,
		&p.Sold, &p.ImageURL, &p.Status, &p.StartsIn, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, errors.WithStack(err)
	}
	return &p, nil
}

func (r *Repository) CreateProperty(ctx context.Context, p entity.Property) error {
	query := `INSERT INTO properties (` + propertyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.queryable().Exec(ctx, query,
		p.Id, p.Title, p.Description, p.Supply, p.Price, p.InscriptionId,
		p.Sold, p.ImageURL, p.Status, p.StartsIn, p.CreatedAt, p.UpdatedAt,
	)
	return mapError(err, "failed to insert property")
}

func (r *Repository) GetProperties(ctx context.Context) ([]*entity.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties ORDER BY created_at ASC`
	properties, err := queryAll(ctx, r.queryable(), scanProperty, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get properties")
	}
	return properties, nil
}

func (r *Repository) GetPropertyById(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	p, err := scanProperty(r.queryable().QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "failed to get property")
	}
	return p, nil
}

func (r *Repository) UpdateProperty(ctx context.Context, id uuid.UUID, params datagateway.UpdatePropertyParams) (*entity.Property, error) {
	query := `UPDATE properties SET
		title = COALESCE($2, title),
		description = COALESCE($3, description),
		supply = COALESCE($4, supply),
		price = COALESCE($5, price),
		inscription_id = COALESCE($6, inscription_id),
		sold = COALESCE($7, sold),
		image_url = COALESCE($8, image_url),
		status = COALESCE($9, status),
		starts_in = COALESCE($10, starts_in),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + propertyColumns

	p, err := scanProperty(r.queryable().QueryRow(ctx, query, id,
		params.Title, params.Description, params.Supply, params.Price, params.InscriptionId,
		params.Sold, params.ImageURL, params.Status, params.StartsIn,
	))
	if err != nil {
		return nil, mapError(err, "failed to update property")
	}
	return p, nil
}

func (r *Repository) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	tag, err := r.queryable().Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "failed to delete property")
	}
	return requireAffected(tag, "property not found")
}

func (r *Repository) IncrementPropertySold(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	query := `UPDATE properties SET sold = sold + $2, updated_at = NOW() WHERE id = $1 RETURNING sold`
	var sold int64
	if err := r.queryable().QueryRow(ctx, query, id, amount).Scan(&sold); err != nil {
		return 0, mapError(err, "failed to increment property sold")
	}
	return sold, nil
}
