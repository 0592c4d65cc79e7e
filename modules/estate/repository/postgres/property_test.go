package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProperty() entity.Property {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return entity.Property{
		Id:            uuid.New(),
		Title:         "Villa Ocean",
		Description:   "Two floors, sea view",
		Supply:        1000,
		Price:         decimal.RequireFromString("0.0005"),
		InscriptionId: "6fb976ab49dcec017f1e201e84395983204ae1a7c2abf7ced0a85d692e442799i0",
		Status:        entity.PropertyStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func propertyColumnNames() []string {
	return []string{"id", "title", "description", "supply", "price", "inscription_id", "sold", "image_url", "status", "starts_in", "created_at", "updated_at"}
}

func propertyRow(p entity.Property) *pgxmock.Rows {
	return pgxmock.NewRows(propertyColumnNames()).AddRow(
		p.Id, p.Title, p.Description, p.Supply, p.Price, p.InscriptionId,
		p.Sold, p.ImageURL, p.Status, p.StartsIn, p.CreatedAt, p.UpdatedAt,
	)
}

func TestCreateProperty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	p := newTestProperty()

	mock.ExpectExec("INSERT INTO properties").
		WithArgs(p.Id, p.Title, p.Description, p.Supply, p.Price, p.InscriptionId,
			p.Sold, p.ImageURL, p.Status, p.StartsIn, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.CreateProperty(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPropertyById(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewRepository(mock)
		p := newTestProperty()

		mock.ExpectQuery("SELECT .+ FROM properties WHERE id").
			WithArgs(p.Id).
			WillReturnRows(propertyRow(p))

		result, err := repo.GetPropertyById(context.Background(), p.Id)
		require.NoError(t, err)
		assert.Equal(t, p.Title, result.Title)
		assert.True(t, p.Price.Equal(result.Price))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewRepository(mock)
		id := uuid.New()

		mock.ExpectQuery("SELECT .+ FROM properties WHERE id").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetPropertyById(context.Background(), id)
		assert.ErrorIs(t, err, errs.NotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetProperties(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	p1, p2 := newTestProperty(), newTestProperty()
	rows := propertyRow(p1).AddRow(
		p2.Id, p2.Title, p2.Description, p2.Supply, p2.Price, p2.InscriptionId,
		p2.Sold, p2.ImageURL, p2.Status, p2.StartsIn, p2.CreatedAt, p2.UpdatedAt,
	)
	mock.ExpectQuery("SELECT .+ FROM properties ORDER BY created_at").WillReturnRows(rows)

	properties, err := repo.GetProperties(context.Background())
	require.NoError(t, err)
	require.Len(t, properties, 2)
	assert.Equal(t, p1.Id, properties[0].Id)
	assert.Equal(t, p2.Id, properties[1].Id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProperty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	p := newTestProperty()
	title := "Villa Lagoon"
	p.Title = title

	mock.ExpectQuery("UPDATE properties SET").
		WithArgs(p.Id, &title, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(propertyRow(p))

	result, err := repo.UpdateProperty(context.Background(), p.Id, datagateway.UpdatePropertyParams{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, result.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProperty(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: errs.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			repo := NewRepository(mock)
			id := uuid.New()
			mock.ExpectExec("DELETE FROM properties WHERE id").
				WithArgs(id).
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err = repo.DeleteProperty(context.Background(), id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIncrementPropertySold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE properties SET sold = sold \+ \$2`).
		WithArgs(id, int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"sold"}).AddRow(int64(7)))

	sold, err := repo.IncrementPropertySold(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePropertyConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	p := newTestProperty()

	anyArgs := make([]any, 12)
	for i := range anyArgs {
		anyArgs[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec("INSERT INTO properties").
		WithArgs(anyArgs...).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "properties_pkey"})

	err = repo.CreateProperty(context.Background(), p)
	assert.ErrorIs(t, err, errs.Conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
