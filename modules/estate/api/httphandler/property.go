package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type createPropertyRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Supply        int64           `json:"supply"`
	Price         decimal.Decimal `json:"price"`
	InscriptionId string          `json:"inscriptionId"`
	Sold          int64           `json:"sold"`
	ImageURL      string          `json:"imageURL"`
	Status        string          `json:"status"`
	StartsIn      string          `json:"startsIn"`
}

func (h *HttpHandler) CreateProperty(ctx *fiber.Ctx) error {
	var req createPropertyRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.CreateProperty(ctx.UserContext(), entity.Property{
		Title:         req.Title,
		Description:   req.Description,
		Supply:        req.Supply,
		Price:         req.Price,
		InscriptionId: req.InscriptionId,
		Sold:          req.Sold,
		ImageURL:      req.ImageURL,
		Status:        req.Status,
		StartsIn:      req.StartsIn,
	})
	if err != nil {
		return errors.Wrap(err, "error during CreateProperty")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapProperty(result))))
}

func (h *HttpHandler) GetProperties(ctx *fiber.Ctx) error {
	properties, err := h.usecase.GetProperties(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetProperties")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(properties, mapProperty))))
}

func (h *HttpHandler) GetProperty(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.GetPropertyById(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "property not found")
		}
		return errors.Wrap(err, "error during GetPropertyById")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapProperty(result))))
}

type updatePropertyRequest struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	Supply          *int64           `json:"supply"`
	Price           *decimal.Decimal `json:"price"`
	InscriptionId   *string          `json:"inscriptionId"`
	Sold            *int64           `json:"sold"`
	ImageURL        *string          `json:"imageURL"`
	Status          *string          `json:"status"`
	StartsIn        *string          `json:"startsIn"`
	SoldShareAmount *int64           `json:"soldShareAmount"`
}

func (h *HttpHandler) UpdateProperty(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	var req updatePropertyRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.UpdateProperty(ctx.UserContext(), id, datagateway.UpdatePropertyParams{
		Title:         req.Title,
		Description:   req.Description,
		Supply:        req.Supply,
		Price:         req.Price,
		InscriptionId: req.InscriptionId,
		Sold:          req.Sold,
		ImageURL:      req.ImageURL,
		Status:        req.Status,
		StartsIn:      req.StartsIn,
	}, req.SoldShareAmount)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "property not found")
		}
		return errors.Wrap(err, "error during UpdateProperty")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapProperty(result))))
}

func (h *HttpHandler) DeleteProperty(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.usecase.DeleteProperty(ctx.UserContext(), id); err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "property not found")
		}
		return errors.Wrap(err, "error during DeleteProperty")
	}
	return errors.WithStack(ctx.JSON(common.OK(map[string]string{"message": "Property was deleted successfully!"})))
}

const maxImageSize = 10 << 20

func (h *HttpHandler) UploadPropertyImage(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	header, err := ctx.FormFile("image")
	if err != nil {
		return errs.NewPublicError("multipart field 'image' is required")
	}
	if header.Size > maxImageSize {
		return errs.NewPublicError("image is too large")
	}
	file, err := header.Open()
	if err != nil {
		return errors.Wrap(err, "can't open uploaded image")
	}
	defer file.Close()

	result, err := h.usecase.UploadPropertyImage(ctx.UserContext(), id, header.Filename, header.Header.Get(fiber.HeaderContentType), file)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "property not found")
		}
		return errors.Wrap(err, "error during UploadPropertyImage")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapProperty(result))))
}
