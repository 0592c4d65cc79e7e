package usecase

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/pkg/btcutils"
	"github.com/gaze-network/estate-ordinals/pkg/ordinals"
	"github.com/google/uuid"
)

func validateInscriptionId(inscriptionId string) error {
	if _, err := ordinals.NewInscriptionIdFromString(inscriptionId); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (u *Usecase) validateAddress(address string) error {
	return errors.WithStack(btcutils.ValidateAddress(address, u.network.ChainParams()))
}

func requireId(id uuid.UUID, field string) error {
	if id == uuid.Nil {
		return errors.Wrapf(errs.InvalidArgument, "'%s' is required", field)
	}
	return nil
}

// validationError joins errList into a public error, nil if errList is empty.
func validationError(errList []error) error {
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}
