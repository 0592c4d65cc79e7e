package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
)

const DefaultPropertyIncomeStatus = 1

func (u *Usecase) CreatePropertyIncome(ctx context.Context, income entity.PropertyIncome) (*entity.PropertyIncome, error) {
	var errList []error
	if income.Amount.IsNegative() {
		errList = append(errList, errors.New("'amount' must be non-negative"))
	}
	if err := requireId(income.PropertyId, "property"); err != nil {
		errList = append(errList, err)
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	now := u.now()
	income.Id = uuid.New()
	if income.Status == 0 {
		income.Status = DefaultPropertyIncomeStatus
	}
	income.CreatedAt = now
	income.UpdatedAt = now
	if err := u.estateDg.CreatePropertyIncome(ctx, income); err != nil {
		return nil, errors.Wrap(err, "failed to create property income")
	}
	return &income, nil
}

func (u *Usecase) GetPropertyIncomes(ctx context.Context) ([]*entity.PropertyIncome, error) {
	incomes, err := u.estateDg.GetPropertyIncomes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get property incomes")
	}
	return incomes, nil
}

func (u *Usecase) GetPropertyIncomeById(ctx context.Context, id uuid.UUID) (*entity.PropertyIncome, error) {
	income, err := u.estateDg.GetPropertyIncomeById(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get property income")
	}
	return income, nil
}

func (u *Usecase) UpdatePropertyIncome(ctx context.Context, id uuid.UUID, params datagateway.UpdatePropertyIncomeParams) (*entity.PropertyIncome, error) {
	if params.Amount != nil && params.Amount.IsNegative() {
		return nil, errors.WithStack(validationError([]error{errors.New("'amount' must be non-negative")}))
	}
	income, err := u.estateDg.UpdatePropertyIncome(ctx, id, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update property income")
	}
	return income, nil
}

func (u *Usecase) DeletePropertyIncome(ctx context.Context, id uuid.UUID) error {
	if err := u.estateDg.DeletePropertyIncome(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete property income")
	}
	return nil
}

func (u *Usecase) AnalyzePropertyIncomeMonthly(ctx context.Context) ([]entity.MonthlyIncome, error) {
	result, err := u.estateDg.GetPropertyIncomeMonthly(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze property income by month")
	}
	return result, nil
}

func (u *Usecase) AnalyzePropertyIncomeByProperty(ctx context.Context) ([]entity.PropertyIncomeTotal, error) {
	result, err := u.estateDg.GetPropertyIncomeByProperty(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze property income by property")
	}
	return result, nil
}

func (u *Usecase) AnalyzePropertyIncomeByAmount(ctx context.Context) (*entity.IncomeStats, error) {
	result, err := u.estateDg.GetPropertyIncomeStats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze property income by amount")
	}
	return result, nil
}

func (u *Usecase) CreateUserIncome(ctx context.Context, income entity.UserIncome) (*entity.UserIncome, error) {
	var errList []error
	if income.Amount.IsNegative() {
		errList = append(errList, errors.New("'amount' must be non-negative"))
	}
	if err := u.validateAddress(income.Address); err != nil {
		errList = append(errList, err)
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	now := u.now()
	income.Id = uuid.New()
	income.CreatedAt = now
	income.UpdatedAt = now
	if err := u.estateDg.CreateUserIncome(ctx, income); err != nil {
		return nil, errors.Wrap(err, "failed to create user income")
	}
	return &income, nil
}

func (u *Usecase) GetUserIncomes(ctx context.Context) ([]*entity.UserIncome, error) {
	incomes, err := u.estateDg.GetUserIncomes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user incomes")
	}
	return incomes, nil
}

func (u *Usecase) GetUserIncomeById(ctx context.Context, id uuid.UUID) (*entity.UserIncome, error) {
	income, err := u.estateDg.GetUserIncomeById(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user income")
	}
	return income, nil
}

func (u *Usecase) UpdateUserIncome(ctx context.Context, id uuid.UUID, params datagateway.UpdateUserIncomeParams) (*entity.UserIncome, error) {
	var errList []error
	if params.Amount != nil && params.Amount.IsNegative() {
		errList = append(errList, errors.New("'amount' must be non-negative"))
	}
	if params.Address != nil {
		if err := u.validateAddress(*params.Address); err != nil {
			errList = append(errList, err)
		}
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	income, err := u.estateDg.UpdateUserIncome(ctx, id, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update user income")
	}
	return income, nil
}

func (u *Usecase) DeleteUserIncome(ctx context.Context, id uuid.UUID) error {
	if err := u.estateDg.DeleteUserIncome(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete user income")
	}
	return nil
}

// AnalyzeUserIncomeByAddress totals user incomes per address, narrowed by filter.
func (u *Usecase) AnalyzeUserIncomeByAddress(ctx context.Context, filter datagateway.UserIncomeFilter) ([]entity.AddressIncomeTotal, error) {
	if err := u.validateFilter(filter); err != nil {
		return nil, errors.WithStack(err)
	}
	result, err := u.estateDg.GetUserIncomeByAddress(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze user income by address")
	}
	return result, nil
}

func (u *Usecase) AnalyzeUserIncomeMonthly(ctx context.Context) ([]entity.MonthlyIncome, error) {
	result, err := u.estateDg.GetUserIncomeMonthly(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze user income by month")
	}
	return result, nil
}

func (u *Usecase) AnalyzeUserIncomeByProperty(ctx context.Context) ([]entity.PropertyIncomeTotal, error) {
	result, err := u.estateDg.GetUserIncomeByProperty(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze user income by property")
	}
	return result, nil
}

// AnalyzeUserIncomeByAmount returns total, average, max and min of user incomes, narrowed by filter.
func (u *Usecase) AnalyzeUserIncomeByAmount(ctx context.Context, filter datagateway.UserIncomeFilter) (*entity.IncomeStats, error) {
	if err := u.validateFilter(filter); err != nil {
		return nil, errors.WithStack(err)
	}
	result, err := u.estateDg.GetUserIncomeStats(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze user income by amount")
	}
	return result, nil
}

func (u *Usecase) validateFilter(filter datagateway.UserIncomeFilter) error {
	if filter.Address == "" {
		return nil
	}
	if err := u.validateAddress(filter.Address); err != nil {
		return errors.WithStack(validationError([]error{err}))
	}
	return nil
}
