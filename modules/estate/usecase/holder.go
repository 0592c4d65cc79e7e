package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
)

const (
	DefaultSearchHoldersLimit = 20
	MaxSearchHoldersLimit     = 1000
)

func (u *Usecase) CreateHolder(ctx context.Context, holder entity.Holder) (*entity.Holder, error) {
	var errList []error
	if err := u.validateAddress(holder.Address); err != nil {
		errList = append(errList, err)
	}
	if holder.Amount < 0 {
		errList = append(errList, errors.New("'amount' must be non-negative"))
	}
	if err := requireId(holder.PropertyId, "property"); err != nil {
		errList = append(errList, err)
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	now := u.now()
	holder.Id = uuid.New()
	holder.CreatedAt = now
	holder.UpdatedAt = now
	if err := u.estateDg.CreateHolder(ctx, holder); err != nil {
		return nil, errors.Wrap(err, "failed to create holder")
	}
	return &holder, nil
}

func (u *Usecase) GetHolders(ctx context.Context) ([]*entity.Holder, error) {
	holders, err := u.estateDg.GetHolders(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get holders")
	}
	return holders, nil
}

func (u *Usecase) GetHolderById(ctx context.Context, id uuid.UUID) (*entity.Holder, error) {
	holder, err := u.estateDg.GetHolderById(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get holder")
	}
	return holder, nil
}

// SearchHolders returns a page of holders and the total number of matches.
func (u *Usecase) SearchHolders(ctx context.Context, params datagateway.SearchHoldersParams) ([]*entity.Holder, int64, error) {
	var errList []error
	if params.Start < 0 {
		errList = append(errList, errors.New("'start' must be non-negative"))
	}
	if params.Limit < 0 {
		errList = append(errList, errors.New("'limit' must be non-negative"))
	}
	if params.Limit > MaxSearchHoldersLimit {
		errList = append(errList, errors.Newf("'limit' cannot exceed %d", MaxSearchHoldersLimit))
	}
	if params.Address != "" {
		if err := u.validateAddress(params.Address); err != nil {
			errList = append(errList, err)
		}
	}
	if err := validationError(errList); err != nil {
		return nil, 0, errors.WithStack(err)
	}
	if params.Limit == 0 {
		params.Limit = DefaultSearchHoldersLimit
	}

	holders, total, err := u.estateDg.SearchHolders(ctx, params)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to search holders")
	}
	return holders, total, nil
}

func (u *Usecase) UpdateHolder(ctx context.Context, id uuid.UUID, params datagateway.UpdateHolderParams) (*entity.Holder, error) {
	var errList []error
	if params.Address != nil {
		if err := u.validateAddress(*params.Address); err != nil {
			errList = append(errList, err)
		}
	}
	if params.Amount != nil && *params.Amount < 0 {
		errList = append(errList, errors.New("'amount' must be non-negative"))
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	holder, err := u.estateDg.UpdateHolder(ctx, id, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update holder")
	}
	return holder, nil
}

func (u *Usecase) DeleteHolder(ctx context.Context, id uuid.UUID) error {
	if err := u.estateDg.DeleteHolder(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete holder")
	}
	return nil
}
