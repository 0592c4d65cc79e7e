package httphandler

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/modules/estate/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type createPropertyIncomeRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Status   int32           `json:"status"`
	Property uuid.UUID       `json:"property"`
}

func (h *HttpHandler) CreatePropertyIncome(ctx *fiber.Ctx) error {
	var req createPropertyIncomeRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.CreatePropertyIncome(ctx.UserContext(), entity.PropertyIncome{
		Amount:     req.Amount,
		Status:     req.Status,
		PropertyId: req.Property,
	})
	if err != nil {
		return errors.Wrap(err, "error during CreatePropertyIncome")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapPropertyIncome(result))))
}

func (h *HttpHandler) GetPropertyIncomes(ctx *fiber.Ctx) error {
	incomes, err := h.usecase.GetPropertyIncomes(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetPropertyIncomes")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(incomes, mapPropertyIncome))))
}

func (h *HttpHandler) GetPropertyIncome(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.GetPropertyIncomeById(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "property income not found")
		}
		return errors.Wrap(err, "error during GetPropertyIncomeById")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapPropertyIncome(result))))
}

type updatePropertyIncomeRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Status   *int32           `json:"status"`
	Property *uuid.UUID       `json:"property"`
}

func (h *HttpHandler) UpdatePropertyIncome(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	var req updatePropertyIncomeRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.UpdatePropertyIncome(ctx.UserContext(), id, datagateway.UpdatePropertyIncomeParams{
		Amount:     req.Amount,
		Status:     req.Status,
		PropertyId: req.Property,
	})
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "property income not found")
		}
		return errors.Wrap(err, "error during UpdatePropertyIncome")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapPropertyIncome(result))))
}

func (h *HttpHandler) DeletePropertyIncome(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.usecase.DeletePropertyIncome(ctx.UserContext(), id); err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "property income not found")
		}
		return errors.Wrap(err, "error during DeletePropertyIncome")
	}
	return errors.WithStack(ctx.JSON(common.OK(map[string]string{"message": "Property income was deleted successfully!"})))
}

func (h *HttpHandler) AnalyzePropertyIncomeMonthly(ctx *fiber.Ctx) error {
	result, err := h.usecase.AnalyzePropertyIncomeMonthly(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during AnalyzePropertyIncomeMonthly")
	}
	return errors.WithStack(ctx.JSON(common.OK(lo.Map(result, mapMonthlyIncome))))
}

func (h *HttpHandler) AnalyzePropertyIncomeByProperty(ctx *fiber.Ctx) error {
	result, err := h.usecase.AnalyzePropertyIncomeByProperty(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during AnalyzePropertyIncomeByProperty")
	}
	return errors.WithStack(ctx.JSON(common.OK(lo.Map(result, mapPropertyIncomeTotal))))
}

func (h *HttpHandler) AnalyzePropertyIncomeByAmount(ctx *fiber.Ctx) error {
	result, err := h.usecase.AnalyzePropertyIncomeByAmount(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during AnalyzePropertyIncomeByAmount")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapIncomeStats(result))))
}

type createUserIncomeRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Address  string          `json:"address"`
	Property *uuid.UUID      `json:"property"`
}

func (h *HttpHandler) CreateUserIncome(ctx *fiber.Ctx) error {
	var req createUserIncomeRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.CreateUserIncome(ctx.UserContext(), entity.UserIncome{
		Amount:     req.Amount,
		Address:    req.Address,
		PropertyId: req.Property,
	})
	if err != nil {
		return errors.Wrap(err, "error during CreateUserIncome")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapUserIncome(result))))
}

func (h *HttpHandler) GetUserIncomes(ctx *fiber.Ctx) error {
	incomes, err := h.usecase.GetUserIncomes(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetUserIncomes")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(incomes, mapUserIncome))))
}

func (h *HttpHandler) GetUserIncome(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.GetUserIncomeById(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "user income not found")
		}
		return errors.Wrap(err, "error during GetUserIncomeById")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapUserIncome(result))))
}

type updateUserIncomeRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Address  *string          `json:"address"`
	Property *uuid.UUID       `json:"property"`
}

func (h *HttpHandler) UpdateUserIncome(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	var req updateUserIncomeRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.UpdateUserIncome(ctx.UserContext(), id, datagateway.UpdateUserIncomeParams{
		Amount:     req.Amount,
		Address:    req.Address,
		PropertyId: req.Property,
	})
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "user income not found")
		}
		return errors.Wrap(err, "error during UpdateUserIncome")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapUserIncome(result))))
}

func (h *HttpHandler) DeleteUserIncome(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.usecase.DeleteUserIncome(ctx.UserContext(), id); err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "user income not found")
		}
		return errors.Wrap(err, "error during DeleteUserIncome")
	}
	return errors.WithStack(ctx.JSON(common.OK(map[string]string{"message": "User income was deleted successfully!"})))
}

func (h *HttpHandler) AnalyzeUserIncomeMonthly(ctx *fiber.Ctx) error {
	result, err := h.usecase.AnalyzeUserIncomeMonthly(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during AnalyzeUserIncomeMonthly")
	}
	return errors.WithStack(ctx.JSON(common.OK(lo.Map(result, mapMonthlyIncome))))
}

func (h *HttpHandler) AnalyzeUserIncomeByProperty(ctx *fiber.Ctx) error {
	result, err := h.usecase.AnalyzeUserIncomeByProperty(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during AnalyzeUserIncomeByProperty")
	}
	return errors.WithStack(ctx.JSON(common.OK(lo.Map(result, mapPropertyIncomeTotal))))
}

func (h *HttpHandler) AnalyzeUserIncomeByAddress(ctx *fiber.Ctx) error {
	return h.userIncomeByAddress(ctx, datagateway.UserIncomeFilter{})
}

func (h *HttpHandler) AnalyzeUserIncomeOfAddress(ctx *fiber.Ctx) error {
	return h.userIncomeByAddress(ctx, datagateway.UserIncomeFilter{Address: ctx.Params("address")})
}

func (h *HttpHandler) AnalyzeUserIncomeOfProperty(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	return h.userIncomeByAddress(ctx, datagateway.UserIncomeFilter{PropertyId: &id})
}

func (h *HttpHandler) userIncomeByAddress(ctx *fiber.Ctx, filter datagateway.UserIncomeFilter) error {
	result, err := h.usecase.AnalyzeUserIncomeByAddress(ctx.UserContext(), filter)
	if err != nil {
		return errors.Wrap(err, "error during AnalyzeUserIncomeByAddress")
	}
	return errors.WithStack(ctx.JSON(common.OK(lo.Map(result, mapAddressIncomeTotal))))
}

func (h *HttpHandler) AnalyzeUserIncomeByAmount(ctx *fiber.Ctx) error {
	return h.userIncomeStats(ctx, datagateway.UserIncomeFilter{})
}

func (h *HttpHandler) AnalyzeUserIncomeAmountOfAddress(ctx *fiber.Ctx) error {
	return h.userIncomeStats(ctx, datagateway.UserIncomeFilter{Address: ctx.Params("address")})
}

func (h *HttpHandler) AnalyzeUserIncomeAmountOfProperty(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	return h.userIncomeStats(ctx, datagateway.UserIncomeFilter{PropertyId: &id})
}

func (h *HttpHandler) userIncomeStats(ctx *fiber.Ctx, filter datagateway.UserIncomeFilter) error {
	result, err := h.usecase.AnalyzeUserIncomeByAmount(ctx.UserContext(), filter)
	if err != nil {
		return errors.Wrap(err, "error during AnalyzeUserIncomeByAmount")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapIncomeStats(result))))
}

type exportIncomesRequest struct {
	Upload bool `query:"upload"`
}

type exportIncomesResult struct {
	Count int    `json:"count"`
	URL   string `json:"url"`
}

func (h *HttpHandler) ExportUserIncomes(ctx *fiber.Ctx) error {
	return h.exportIncomes(ctx, usecase.IncomeKindUser)
}

func (h *HttpHandler) ExportPropertyIncomes(ctx *fiber.Ctx) error {
	return h.exportIncomes(ctx, usecase.IncomeKindProperty)
}

// exportIncomes streams the parquet file back, or uploads it to the object store with ?upload=true.
func (h *HttpHandler) exportIncomes(ctx *fiber.Ctx, kind usecase.IncomeKind) error {
	var req exportIncomesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errs.WithPublicMessage(err, "invalid query")
	}
	export, err := h.usecase.ExportIncomes(ctx.UserContext(), kind)
	if err != nil {
		return errors.Wrap(err, "error during ExportIncomes")
	}

	if req.Upload {
		url, err := h.usecase.UploadIncomeExport(ctx.UserContext(), export)
		if err != nil {
			return errors.Wrap(err, "error during UploadIncomeExport")
		}
		return errors.WithStack(ctx.JSON(common.OK(exportIncomesResult{Count: export.Count, URL: url})))
	}

	ctx.Set(fiber.HeaderContentType, usecase.ParquetContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.Filename()))
	return errors.WithStack(ctx.Send(export.Data))
}
