package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
)

type welcomeResponse struct {
	Message string `json:"message"`
}

func (h *HttpHandler) Welcome(ctx *fiber.Ctx) error {
	return errors.WithStack(ctx.JSON(welcomeResponse{Message: welcomeMessage}))
}
