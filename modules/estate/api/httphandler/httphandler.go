package httphandler

import (
	"context"
	"fmt"

	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/reconciler"
	"github.com/gaze-network/estate-ordinals/modules/estate/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Reconciler is the part of [reconciler.Reconciler] exposed over http.
type Reconciler interface {
	FetchAndAddNewInscriptions(ctx context.Context) (int, error)
	StartUpdateHolders() bool
	Status() reconciler.Status
}

type HttpHandler struct {
	usecase    *usecase.Usecase
	reconciler Reconciler
	websocket  fiber.Handler // nil disables /ws
}

func New(usecase *usecase.Usecase, reconciler Reconciler, websocket fiber.Handler) *HttpHandler {
	return &HttpHandler{
		usecase:    usecase,
		reconciler: reconciler,
		websocket:  websocket,
	}
}

func paramId(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, errs.NewPublicError(fmt.Sprintf("'%s' must be a valid id", name))
	}
	return id, nil
}

func parseBody(ctx *fiber.Ctx, out any) error {
	if err := ctx.BodyParser(out); err != nil {
		return errs.WithPublicMessage(err, "invalid request body")
	}
	return nil
}
