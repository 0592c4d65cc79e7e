package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/google/uuid"
)

func (u *Usecase) CreateInscription(ctx context.Context, inscription entity.Inscription) (*entity.Inscription, error) {
	var errList []error
	if err := validateInscriptionId(inscription.InscriptionId); err != nil {
		errList = append(errList, err)
	}
	if err := u.validateAddress(inscription.Owner); err != nil {
		errList = append(errList, err)
	}
	if err := requireId(inscription.PropertyId, "property"); err != nil {
		errList = append(errList, err)
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	now := u.now()
	inscription.Id = uuid.New()
	inscription.CreatedAt = now
	inscription.UpdatedAt = now
	if err := u.estateDg.CreateInscription(ctx, inscription); err != nil {
		return nil, errors.Wrap(err, "failed to create inscription")
	}
	return &inscription, nil
}

func (u *Usecase) GetInscriptions(ctx context.Context) ([]*entity.Inscription, error) {
	inscriptions, err := u.estateDg.GetInscriptions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscriptions")
	}
	return inscriptions, nil
}

func (u *Usecase) GetInscriptionById(ctx context.Context, id uuid.UUID) (*entity.Inscription, error) {
	inscription, err := u.estateDg.GetInscriptionById(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscription")
	}
	return inscription, nil
}

func (u *Usecase) GetInscriptionsByInscriptionId(ctx context.Context, inscriptionId string) ([]*entity.Inscription, error) {
	if err := validateInscriptionId(inscriptionId); err != nil {
		return nil, errors.WithStack(validationError([]error{err}))
	}
	inscriptions, err := u.estateDg.GetInscriptionsByInscriptionId(ctx, inscriptionId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscriptions by inscription id")
	}
	return inscriptions, nil
}

func (u *Usecase) GetInscriptionsByProperty(ctx context.Context, propertyId uuid.UUID) ([]*entity.Inscription, error) {
	inscriptions, err := u.estateDg.GetInscriptionsByProperty(ctx, propertyId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscriptions by property")
	}
	return inscriptions, nil
}

func (u *Usecase) GetInscriptionsByOwner(ctx context.Context, owner string) ([]*entity.Inscription, error) {
	if err := u.validateAddress(owner); err != nil {
		return nil, errors.WithStack(validationError([]error{err}))
	}
	inscriptions, err := u.estateDg.GetInscriptionsByOwner(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscriptions by owner")
	}
	return inscriptions, nil
}

// GetOwnerShares groups inscriptions by owner. A nil property groups across all properties.
func (u *Usecase) GetOwnerShares(ctx context.Context, propertyId *uuid.UUID) ([]entity.OwnerShares, error) {
	shares, err := u.estateDg.GetOwnerShares(ctx, propertyId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get owner shares")
	}
	return shares, nil
}

func (u *Usecase) UpdateInscription(ctx context.Context, id uuid.UUID, params datagateway.UpdateInscriptionParams) (*entity.Inscription, error) {
	var errList []error
	if params.InscriptionId != nil {
		if err := validateInscriptionId(*params.InscriptionId); err != nil {
			errList = append(errList, err)
		}
	}
	if params.Owner != nil {
		if err := u.validateAddress(*params.Owner); err != nil {
			errList = append(errList, err)
		}
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	inscription, err := u.estateDg.UpdateInscription(ctx, id, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update inscription")
	}
	return inscription, nil
}

func (u *Usecase) DeleteInscription(ctx context.Context, id uuid.UUID) error {
	if err := u.estateDg.DeleteInscription(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete inscription")
	}
	return nil
}

func (u *Usecase) DeleteAllInscriptions(ctx context.Context) (int64, error) {
	deleted, err := u.estateDg.DeleteAllInscriptions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete inscriptions")
	}
	return deleted, nil
}
