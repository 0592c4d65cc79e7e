package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
)

const (
	propertyIncomeColumns = `id, amount, status, property_id, created_at, updated_at`
	userIncomeColumns     = `id, amount, address, property_id, created_at, updated_at`
)

func scanPropertyIncome(row rowScanner) (*entity.PropertyIncome, error) {
	var i entity.PropertyIncome
	if err := row.Scan(&i.Id, &i.Amount, &i.Status, &i.PropertyId, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, errors.WithStack(err)
	}
	return &i, nil
}

func scanUserIncome(row rowScanner) (*entity.UserIncome, error) {
	var i entity.UserIncome
	if err := row.Scan(&i.Id, &i.Amount, &i.Address, &i.PropertyId, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, errors.WithStack(err)
	}
	return &i, nil
}

func scanMonthlyIncome(row rowScanner) (entity.MonthlyIncome, error) {
	var m entity.MonthlyIncome
	err := row.Scan(&m.Month, &m.Total, &m.Count)
	return m, errors.WithStack(err)
}

func scanPropertyIncomeTotal(row rowScanner) (entity.PropertyIncomeTotal, error) {
	var t entity.PropertyIncomeTotal
	err := row.Scan(&t.PropertyId, &t.PropertyTitle, &t.Total, &t.Count)
	return t, errors.WithStack(err)
}

func scanIncomeStats(row rowScanner) (*entity.IncomeStats, error) {
	var s entity.IncomeStats
	if err := row.Scan(&s.Total, &s.Average, &s.Max, &s.Min, &s.Count); err != nil {
		return nil, errors.WithStack(err)
	}
	return &s, nil
}

const incomeStatsSelect = `SELECT COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0), COALESCE(MAX(amount), 0), COALESCE(MIN(amount), 0), COUNT(*)`

func (r *Repository) CreatePropertyIncome(ctx context.Context, i entity.PropertyIncome) error {
	query := `INSERT INTO property_incomes (` + propertyIncomeColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.queryable().Exec(ctx, query, i.Id, i.Amount, i.Status, i.PropertyId, i.CreatedAt, i.UpdatedAt)
	return mapError(err, "failed to insert property income")
}

func (r *Repository) GetPropertyIncomes(ctx context.Context) ([]*entity.PropertyIncome, error) {
	query := `SELECT ` + propertyIncomeColumns + ` FROM property_incomes ORDER BY created_at ASC`
	incomes, err := queryAll(ctx, r.queryable(), scanPropertyIncome, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get property incomes")
	}
	return incomes, nil
}

func (r *Repository) GetPropertyIncomeById(ctx context.Context, id uuid.UUID) (*entity.PropertyIncome, error) {
	query := `SELECT ` + propertyIncomeColumns + ` FROM property_incomes WHERE id = $1`
	i, err := scanPropertyIncome(r.queryable().QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "failed to get property income")
	}
	return i, nil
}

func (r *Repository) UpdatePropertyIncome(ctx context.Context, id uuid.UUID, params datagateway.UpdatePropertyIncomeParams) (*entity.PropertyIncome, error) {
	query := `UPDATE property_incomes SET
		amount = COALESCE($2, amount),
		status = COALESCE($3, status),
		property_id = COALESCE($4, property_id),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + propertyIncomeColumns
	i, err := scanPropertyIncome(r.queryable().QueryRow(ctx, query, id, params.Amount, params.Status, params.PropertyId))
	if err != nil {
		return nil, mapError(err, "failed to update property income")
	}
	return i, nil
}

func (r *Repository) DeletePropertyIncome(ctx context.Context, id uuid.UUID) error {
	tag, err := r.queryable().Exec(ctx, `DELETE FROM property_incomes WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "failed to delete property income")
	}
	return requireAffected(tag, "property income not found")
}

func (r *Repository) GetPropertyIncomeMonthly(ctx context.Context) ([]entity.MonthlyIncome, error) {
	query := `SELECT EXTRACT(MONTH FROM created_at)::int AS month, SUM(amount), COUNT(*)
		FROM property_incomes GROUP BY month ORDER BY month ASC`
	months, err := queryAll(ctx, r.queryable(), scanMonthlyIncome, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze monthly property income")
	}
	return months, nil
}

func (r *Repository) GetPropertyIncomeByProperty(ctx context.Context) ([]entity.PropertyIncomeTotal, error) {
	query := `SELECT i.property_id, COALESCE(p.title, ''), SUM(i.amount) AS total, COUNT(*)
		FROM property_incomes i LEFT JOIN properties p ON p.id = i.property_id
		GROUP BY i.property_id, p.title
		ORDER BY total DESC`
	totals, err := queryAll(ctx, r.queryable(), scanPropertyIncomeTotal, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze property income by property")
	}
	return totals, nil
}

func (r *Repository) GetPropertyIncomeStats(ctx context.Context) (*entity.IncomeStats, error) {
	stats, err := scanIncomeStats(r.queryable().QueryRow(ctx, incomeStatsSelect+` FROM property_incomes`))
	if err != nil {
		return nil, mapError(err, "failed to analyze property income amount")
	}
	return stats, nil
}

func (r *Repository) CreateUserIncome(ctx context.Context, i entity.UserIncome) error {
	query := `INSERT INTO user_incomes (` + userIncomeColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.queryable().Exec(ctx, query, i.Id, i.Amount, i.Address, i.PropertyId, i.CreatedAt, i.UpdatedAt)
	return mapError(err, "failed to insert user income")
}

func (r *Repository) GetUserIncomes(ctx context.Context) ([]*entity.UserIncome, error) {
	query := `SELECT ` + userIncomeColumns + ` FROM user_incomes ORDER BY created_at ASC`
	incomes, err := queryAll(ctx, r.queryable(), scanUserIncome, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user incomes")
	}
	return incomes, nil
}

func (r *Repository) GetUserIncomeById(ctx context.Context, id uuid.UUID) (*entity.UserIncome, error) {
	query := `SELECT ` + userIncomeColumns + ` FROM user_incomes WHERE id = $1`
	i, err := scanUserIncome(r.queryable().QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "failed to get user income")
	}
	return i, nil
}

func (r *Repository) UpdateUserIncome(ctx context.Context, id uuid.UUID, params datagateway.UpdateUserIncomeParams) (*entity.UserIncome, error) {
	query := `UPDATE user_incomes SET
		amount = COALESCE($2, amount),
		address = COALESCE($3, address),
		property_id = COALESCE($4, property_id),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userIncomeColumns
	i, err := scanUserIncome(r.queryable().QueryRow(ctx, query, id, params.Amount, params.Address, params.PropertyId))
	if err != nil {
		return nil, mapError(err, "failed to update user income")
	}
	return i, nil
}

func (r *Repository) DeleteUserIncome(ctx context.Context, id uuid.UUID) error {
	tag, err := r.queryable().Exec(ctx, `DELETE FROM user_incomes WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "failed to delete user income")
	}
	return requireAffected(tag, "user income not found")
}

const userIncomeFilter = ` WHERE ($1::text = '' OR address = $1) AND ($2::uuid IS NULL OR property_id = $2)`

func (r *Repository) GetUserIncomeByAddress(ctx context.Context, filter datagateway.UserIncomeFilter) ([]entity.AddressIncomeTotal, error) {
	query := `SELECT address, SUM(amount) AS total, COUNT(*) FROM user_incomes` + userIncomeFilter + `
		GROUP BY address ORDER BY total DESC, address ASC`
	totals, err := queryAll(ctx, r.queryable(), func(row rowScanner) (entity.AddressIncomeTotal, error) {
		var t entity.AddressIncomeTotal
		err := row.Scan(&t.Address, &t.Total, &t.Count)
		return t, errors.WithStack(err)
	}, query, filter.Address, filter.PropertyId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze user income by address")
	}
	return totals, nil
}

func (r *Repository) GetUserIncomeMonthly(ctx context.Context) ([]entity.MonthlyIncome, error) {
	query := `SELECT EXTRACT(MONTH FROM created_at)::int AS month, SUM(amount), COUNT(*)
		FROM user_incomes GROUP BY month ORDER BY month ASC`
	months, err := queryAll(ctx, r.queryable(), scanMonthlyIncome, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze monthly user income")
	}
	return months, nil
}

func (r *Repository) GetUserIncomeByProperty(ctx context.Context) ([]entity.PropertyIncomeTotal, error) {
	query := `SELECT i.property_id, COALESCE(p.title, ''), SUM(i.amount) AS total, COUNT(*)
		FROM user_incomes i LEFT JOIN properties p ON p.id = i.property_id
		WHERE i.property_id IS NOT NULL
		GROUP BY i.property_id, p.title
		ORDER BY total DESC`
	totals, err := queryAll(ctx, r.queryable(), scanPropertyIncomeTotal, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze user income by property")
	}
	return totals, nil
}

func (r *Repository) GetUserIncomeStats(ctx context.Context, filter datagateway.UserIncomeFilter) (*entity.IncomeStats, error) {
	stats, err := scanIncomeStats(r.queryable().QueryRow(ctx, incomeStatsSelect+` FROM user_incomes`+userIncomeFilter, filter.Address, filter.PropertyId))
	if err != nil {
		return nil, mapError(err, "failed to analyze user income amount")
	}
	return stats, nil
}
