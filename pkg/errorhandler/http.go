package errorhandler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

// NewHTTPErrorHandler maps handler errors to the API envelope.
//
//   - [errs.PublicError]: 400 with its public message
//   - [errs.NotFound]: 404
//   - [errs.Conflict]: 409
//   - [fiber.Error]: its own status code
//   - anything else: 500, logged
func NewHTTPErrorHandler() func(ctx *fiber.Ctx, err error) error {
	return func(ctx *fiber.Ctx, err error) error {
		if e := new(errs.PublicError); errors.As(err, &e) {
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, errs.NotFound):
				status = http.StatusNotFound
			case errors.Is(err, errs.Conflict):
				status = http.StatusConflict
			}
			return errors.WithStack(ctx.Status(status).JSON(common.Fail(e.Message())))
		}
		if errors.Is(err, errs.NotFound) {
			return errors.WithStack(ctx.Status(http.StatusNotFound).JSON(common.Fail("not found")))
		}
		if errors.Is(err, errs.Conflict) {
			return errors.WithStack(ctx.Status(http.StatusConflict).JSON(common.Fail("already exists")))
		}
		if e := new(fiber.Error); errors.As(err, &e) {
			return errors.WithStack(ctx.Status(e.Code).JSON(common.Fail(e.Message)))
		}

		logger.ErrorContext(ctx.UserContext(), "Something went wrong, unhandled api error",
			slogx.String("event", "api_unhandled_error"),
			slogx.Error(err),
		)

		return errors.WithStack(ctx.Status(http.StatusInternalServerError).JSON(common.Fail("Internal Server Error")))
	}
}
