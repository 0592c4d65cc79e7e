// Package requestcontext copies per-request values (request id, client ip) into the
// request's user context so handlers and loggers can read them from a context.Context.
package requestcontext

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Option derives the next context from the request. Returning a *RejectError stops the
// request with its status.
type Option func(ctx context.Context, c *fiber.Ctx) (context.Context, error)

// RejectError ends the request with Status and a public Message.
type RejectError struct {
	Status  int
	Message string
}

func (e *RejectError) Error() string { return e.Message }

func New(opts ...Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		for i, opt := range opts {
			next, err := opt(ctx, c)
			if err != nil {
				var reject *RejectError
				if errors.As(err, &reject) {
					return errors.WithStack(c.Status(reject.Status).JSON(common.Fail(reject.Message)))
				}
				logger.ErrorContext(ctx, "Failed to build request context",
					slogx.String("event", "requestcontext_error"),
					slogx.Int("option", i),
					slogx.Error(err),
				)
				return errors.WithStack(c.Status(http.StatusInternalServerError).JSON(common.Fail("Internal Server Error")))
			}
			ctx = next
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

type requestIdKey struct{}

// WithRequestId reuses the id set by the requestid middleware or the incoming header,
// generating one when neither exists, and adds it to the context logger.
func WithRequestId() Option {
	header := requestid.ConfigDefault.Header
	localsKey := requestid.ConfigDefault.ContextKey
	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		id, _ := c.Locals(localsKey).(string)
		if id == "" {
			id = c.Get(header)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(header, id)
			c.Locals(localsKey, id)
		}
		ctx = context.WithValue(ctx, requestIdKey{}, id)
		return logger.WithContext(ctx, slogx.String("requestId", id)), nil
	}
}

// GetRequestId returns the request id, or "" outside a request context.
func GetRequestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}
