package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	OrderId        string             `json:"orderId"`
	Property       uuid.UUID          `json:"property"`
	Status         entity.OrderStatus `json:"status"`
	PayAddress     string             `json:"payAddress"`
	ReceiveAddress string             `json:"receiveAddress"`
	Amount         int64              `json:"amount"`
	PaidAmount     int64              `json:"paidAmount"`
	OutputValue    int64              `json:"outputValue"`
	FeeRate        decimal.Decimal    `json:"feeRate"`
	MinerFee       int64              `json:"minerFee"`
	ServiceFee     int64              `json:"serviceFee"`
	DevFee         int64              `json:"devFee"`
	Files          []entity.OrderFile `json:"files"`
	Count          int64              `json:"count"`
	CreateTime     int64              `json:"createTime"`
}

func (h *HttpHandler) CreateOrder(ctx *fiber.Ctx) error {
	var req createOrderRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.CreateOrder(ctx.UserContext(), entity.Order{
		OrderId:        req.OrderId,
		PropertyId:     req.Property,
		Status:         req.Status,
		PayAddress:     req.PayAddress,
		ReceiveAddress: req.ReceiveAddress,
		Amount:         req.Amount,
		PaidAmount:     req.PaidAmount,
		OutputValue:    req.OutputValue,
		FeeRate:        req.FeeRate,
		MinerFee:       req.MinerFee,
		ServiceFee:     req.ServiceFee,
		DevFee:         req.DevFee,
		Files:          req.Files,
		Count:          req.Count,
		CreateTime:     req.CreateTime,
	})
	if err != nil {
		if errors.Is(err, errs.Conflict) {
			return errs.NewPublicErrorFrom(err, "order already exists")
		}
		return errors.Wrap(err, "error during CreateOrder")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapOrder(result))))
}

func (h *HttpHandler) GetOrders(ctx *fiber.Ctx) error {
	orders, err := h.usecase.GetOrders(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetOrders")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapSlice(orders, mapOrder))))
}

func (h *HttpHandler) GetOrder(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.GetOrderById(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "order not found")
		}
		return errors.Wrap(err, "error during GetOrderById")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapOrder(result))))
}

type updateOrderRequest struct {
	Status         *entity.OrderStatus `json:"status"`
	Property       *uuid.UUID          `json:"property"`
	PayAddress     *string             `json:"payAddress"`
	ReceiveAddress *string             `json:"receiveAddress"`
	Amount         *int64              `json:"amount"`
	PaidAmount     *int64              `json:"paidAmount"`
}

func (h *HttpHandler) UpdateOrder(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	var req updateOrderRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	result, err := h.usecase.UpdateOrder(ctx.UserContext(), id, datagateway.UpdateOrderParams{
		Status:         req.Status,
		PropertyId:     req.Property,
		PayAddress:     req.PayAddress,
		ReceiveAddress: req.ReceiveAddress,
		Amount:         req.Amount,
		PaidAmount:     req.PaidAmount,
	})
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "order not found")
		}
		if errors.Is(err, errs.InvalidArgument) {
			return errs.NewPublicErrorFrom(err, "order is finalized, its status can no longer change")
		}
		return errors.Wrap(err, "error during UpdateOrder")
	}
	return errors.WithStack(ctx.JSON(common.OK(mapOrder(result))))
}

func (h *HttpHandler) DeleteOrder(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.usecase.DeleteOrder(ctx.UserContext(), id); err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicErrorFrom(err, "order not found")
		}
		return errors.Wrap(err, "error during DeleteOrder")
	}
	return errors.WithStack(ctx.JSON(common.OK(map[string]string{"message": "Order was deleted successfully!"})))
}

func (h *HttpHandler) DeleteAllOrders(ctx *fiber.Ctx) error {
	deleted, err := h.usecase.DeleteAllOrders(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during DeleteAllOrders")
	}
	return errors.WithStack(ctx.JSON(common.OK(deletedResult{Deleted: deleted})))
}
