package httphandler

import (
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type createInscriptionRequest struct {
	InscriptionId string    `json:"inscriptionId"`
	Owner         string    `json:"owner"`
	Property      uuid.UUID `json:"property"`
}

func (h *HttpHandler) CreateInscription(ctx *fiber.Ctx) error {
	var req createInscriptionRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.CreateInscription(ctx.UserContext(), entity.Inscription{
		InscriptionId: req.InscriptionId,
		Owner:         req.Owner,
		PropertyId:    req.Property,
	})
	if err != nil {
		if errors.Is(err, errs.Conflict) {
			return errs.NewPublicErrorFrom(err, "inscription already exists")
		}
		return errors.Wrap(err, "error during CreateInscription")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapInscription(result))))
}

func (h *HttpHandler) GetInscriptions(ctx *fiber.Ctx) error {
	inscriptions, err := h.usecase.GetInscriptions(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetInscriptions")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(inscriptions, mapInscription))))
}

func (h *HttpHandler) GetInscription(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.GetInscriptionById(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "inscription not found")
		}
		return errors.Wrap(err, "error during GetInscriptionById")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapInscription(result))))
}

func (h *HttpHandler) GetInscriptionsByInscriptionId(ctx *fiber.Ctx) error {
	inscriptionId, err := url.PathUnescape(ctx.Params("inscriptionId"))
	if err != nil {
		return errs.WithPublicMessage(err, "invalid inscription id")
	}
	inscriptions, err := h.usecase.GetInscriptionsByInscriptionId(ctx.UserContext(), inscriptionId)
	if err != nil {
		return errors.Wrap(err, "error during GetInscriptionsByInscriptionId")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(inscriptions, mapInscription))))
}

func (h *HttpHandler) GetInscriptionsByProperty(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	inscriptions, err := h.usecase.GetInscriptionsByProperty(ctx.UserContext(), id)
	if err != nil {
		return errors.Wrap(err, "error during GetInscriptionsByProperty")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(inscriptions, mapInscription))))
}

func (h *HttpHandler) GetInscriptionsByOwner(ctx *fiber.Ctx) error {
	inscriptions, err := h.usecase.GetInscriptionsByOwner(ctx.UserContext(), ctx.Params("address"))
	if err != nil {
		return errors.Wrap(err, "error during GetInscriptionsByOwner")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(inscriptions, mapInscription))))
}

func (h *HttpHandler) GetOwnerShares(ctx *fiber.Ctx) error {
	return h.ownerShares(ctx, nil)
}

func (h *HttpHandler) GetPropertyOwnerShares(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	return h.ownerShares(ctx, &id)
}

func (h *HttpHandler) ownerShares(ctx *fiber.Ctx, propertyId *uuid.UUID) error {
	shares, err := h.usecase.GetOwnerShares(ctx.UserContext(), propertyId)
	if err != nil {
		return errors.Wrap(err, "error during GetOwnerShares")
	}
	return errors.WithStack(ctx.JSON(common.OK(lo.Map(shares, func(s entity.OwnerShares, _ int) ownerShares {
		return ownerShares{Owner: s.Owner, Amount: s.Amount}
	}))))
}

type updateInscriptionRequest struct {
	InscriptionId *string    `json:"inscriptionId"`
	Owner         *string    `json:"owner"`
	Property      *uuid.UUID `json:"property"`
}

func (h *HttpHandler) UpdateInscription(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	var req updateInscriptionRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.UpdateInscription(ctx.UserContext(), id, datagateway.UpdateInscriptionParams{
		InscriptionId: req.InscriptionId,
		Owner:         req.Owner,
		PropertyId:    req.Property,
	})
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "inscription not found")
		}
		return errors.Wrap(err, "error during UpdateInscription")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapInscription(result))))
}

func (h *HttpHandler) DeleteInscription(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.usecase.DeleteInscription(ctx.UserContext(), id); err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "inscription not found")
		}
		return errors.Wrap(err, "error during DeleteInscription")
	}
	return errors.WithStack(ctx.JSON(common.OK(map[string]string{"message": "Inscription was deleted successfully!"})))
}

func (h *HttpHandler) DeleteAllInscriptions(ctx *fiber.Ctx) error {
	deleted, err := h.usecase.DeleteAllInscriptions(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during DeleteAllInscriptions")
	}
	return errors.WithStack(ctx.JSON(common.OK(deletedResult{Deleted: deleted})))
}
