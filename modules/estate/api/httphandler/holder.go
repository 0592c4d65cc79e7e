package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createHolderRequest struct {
	Address  string    `json:"address"`
	Amount   int64     `json:"amount"`
	Property uuid.UUID `json:"property"`
}

func (h *HttpHandler) CreateHolder(ctx *fiber.Ctx) error {
	var req createHolderRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.CreateHolder(ctx.UserContext(), entity.Holder{
		Address:    req.Address,
		Amount:     req.Amount,
		PropertyId: req.Property,
	})
	if err != nil {
		if errors.Is(err, errs.Conflict) {
			return errs.NewPublicErrorFrom(err, "holder already exists for this property")
		}
		return errors.Wrap(err, "error during CreateHolder")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapHolder(result))))
}

func (h *HttpHandler) GetHolders(ctx *fiber.Ctx) error {
	holders, err := h.usecase.GetHolders(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetHolders")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(holders, mapHolder))))
}

func (h *HttpHandler) GetHolder(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.GetHolderById(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "holder not found")
		}
		return errors.Wrap(err, "error during GetHolderById")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapHolder(result))))
}

type searchHoldersRequest struct {
	Start    *int32     `json:"start"`
	Limit    *int32     `json:"limit"`
	Address  string     `json:"address"`
	Property *uuid.UUID `json:"property"`
}

func (r searchHoldersRequest) Validate() error {
	var errList []error
	if r.Start == nil {
		errList = append(errList, errors.New("'start' is required"))
	}
	if r.Limit == nil {
		errList = append(errList, errors.New("'limit' is required"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type searchHoldersResult struct {
	Total int64    `json:"total"`
	List  []holder `json:"list"`
}

func (h *HttpHandler) SearchHolders(ctx *fiber.Ctx) error {
	var req searchHoldersRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}
	holders, total, err := h.usecase.SearchHolders(ctx.UserContext(), datagateway.SearchHoldersParams{
		Start:      *req.Start,
		Limit:      *req.Limit,
		Address:    req.Address,
		PropertyId: req.Property,
	})
	if err != nil {
		return errors.Wrap(err, "error during SearchHolders")
	}
	return errors.WithStack(ctx.JSON(common.OK(searchHoldersResult{
		Total: total,
		List:  mapSlice(holders, mapHolder),
	})))
}

type updateHolderRequest struct {
	Address  *string    `json:"address"`
	Amount   *int64     `json:"amount"`
	Property *uuid.UUID `json:"property"`
}

func (h *HttpHandler) UpdateHolder(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	var req updateHolderRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.UpdateHolder(ctx.UserContext(), id, datagateway.UpdateHolderParams{
		Address:    req.Address,
		Amount:     req.Amount,
		PropertyId: req.Property,
	})
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "holder not found")
		}
		return errors.Wrap(err, "error during UpdateHolder")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapHolder(result))))
}

func (h *HttpHandler) DeleteHolder(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.usecase.DeleteHolder(ctx.UserContext(), id); err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "holder not found")
		}
		return errors.Wrap(err, "error during DeleteHolder")
	}
	return errors.WithStack(ctx.JSON(common.OK(map[string]string{"message": "Holder was deleted successfully!"})))
}
