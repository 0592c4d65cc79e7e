package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

type reconcileOrdersResult struct {
	Added int `json:"added"`
}

// ReconcileOrders queues every pending order. Draining continues in the background.
func (h *HttpHandler) ReconcileOrders(ctx *fiber.Ctx) error {
	added, err := h.reconciler.FetchAndAddNewInscriptions(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during FetchAndAddNewInscriptions")
	}
	logger.InfoContext(ctx.UserContext(), "Queued pending orders from http", slogx.Int("added", added))
	return errors.WithStack(ctx.Status(fiber.StatusAccepted).JSON(common.OK(reconcileOrdersResult{Added: added})))
}

type reconcileHoldersResult struct {
	// Started is false when a holder sync is already running.
	Started bool `json:"started"`
}

func (h *HttpHandler) ReconcileHolders(ctx *fiber.Ctx) error {
	started := h.reconciler.StartUpdateHolders()
	return errors.WithStack(ctx.Status(fiber.StatusAccepted).JSON(common.OK(reconcileHoldersResult{Started: started})))
}

type reconcileStatus struct {
	QueueLength    int  `json:"queueLength"`
	Processing     bool `json:"processing"`
	SyncingHolders bool `json:"syncingHolders"`
}

func (h *HttpHandler) GetReconcileStatus(ctx *fiber.Ctx) error {
	status := h.reconciler.Status()
	return errors.WithStack(ctx.JSON(common.OK(reconcileStatus{
		QueueLength:    status.QueueLength,
		Processing:     status.Processing,
		SyncingHolders: status.SyncingHolders,
	})))
}
