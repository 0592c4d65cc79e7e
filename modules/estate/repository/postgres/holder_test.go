package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHolders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	propertyId := uuid.New()
	now := time.Now().UTC()
	params := datagateway.SearchHoldersParams{
		Start:      10,
		Limit:      5,
		Address:    "addrA",
		PropertyId: &propertyId,
	}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM holders").
		WithArgs("addrA", &propertyId).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery("SELECT .+ FROM holders WHERE .+ OFFSET \\$3 LIMIT \\$4").
		WithArgs("addrA", &propertyId, int32(10), int32(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "address", "amount", "property_id", "created_at", "updated_at"}).
			AddRow(uuid.New(), "addrA", int64(3), propertyId, now, now))

	holders, total, err := repo.SearchHolders(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, holders, 1)
	assert.Equal(t, int64(3), holders[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddHolderAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	params := datagateway.AddHolderAmountParams{
		Id:         uuid.New(),
		Address:    "addrA",
		PropertyId: uuid.New(),
		Amount:     2,
	}
	mock.ExpectExec("INSERT INTO holders .+ ON CONFLICT \\(address, property_id\\) DO UPDATE SET amount = holders.amount \\+ EXCLUDED.amount").
		WithArgs(params.Id, params.Address, params.Amount, params.PropertyId).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.AddHolderAmount(context.Background(), params))
	assert.NoError(t, mock.ExpectationsWereMet())
}
