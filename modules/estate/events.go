package estate

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/reconciler"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
)

// watchQueueEvents reports orders the queue gave up on. The returned func unsubscribes
// and waits for the watcher to exit.
func watchQueueEvents(ctx context.Context, queue *reconciler.Queue) func(context.Context) error {
	events := make(chan reconciler.QueueEvent, 16)
	sub := queue.Events(events)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		logQueueEvents(ctx, events, sub.Done())
	}()

	return func(ctx context.Context) error {
		if err := sub.UnsubscribeWithContext(ctx); err != nil {
			return errors.Wrap(err, "failed to unsubscribe from queue events")
		}
		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		}
	}
}

func logQueueEvents(ctx context.Context, events <-chan reconciler.QueueEvent, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case event := <-events:
			switch event.Kind {
			case reconciler.OrderFailed:
				logger.ErrorContext(ctx, "Order marked failed, it will not be reconciled again",
					slogx.String("orderId", event.OrderId),
					slogx.Error(event.Err),
				)
			case reconciler.OrderDropped:
				logger.WarnContext(ctx, "Order dropped for this cycle, it stays pending",
					slogx.String("orderId", event.OrderId),
					slogx.String("status", string(event.Status)),
					slogx.Error(event.Err),
				)
			}
		}
	}
}
