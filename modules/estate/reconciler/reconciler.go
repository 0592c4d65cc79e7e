// Package reconciler keeps stored orders, inscriptions and holdings in line with the
// minting service and the chain.
package reconciler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
)

// Reconciler runs order drains in the background. Background drains are bound to the
// lifetime context given to New, not to the caller's context.
type Reconciler struct {
	lifetime context.Context
	orders   datagateway.OrderDataGateway
	queue    *Queue
	holders  *HolderSynchronizer

	wg      sync.WaitGroup
	syncing atomic.Bool
}

type Status struct {
	QueueLength    int
	Processing     bool
	SyncingHolders bool
}

func New(lifetime context.Context, orders datagateway.OrderDataGateway, queue *Queue, holders *HolderSynchronizer) *Reconciler {
	return &Reconciler{
		lifetime: lifetime,
		orders:   orders,
		queue:    queue,
		holders:  holders,
	}
}

func (r *Reconciler) Queue() *Queue {
	return r.queue
}

// FetchAndAddNewInscriptions queues every pending order and starts a drain if none is running.
// It does not wait for the drain and returns the number of newly queued orders.
func (r *Reconciler) FetchAndAddNewInscriptions(ctx context.Context) (int, error) {
	orders, err := r.orders.GetPendingOrders(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending orders")
	}
	added := r.queue.Enqueue(ctx, orders...)
	logger.DebugContext(ctx, "Queued pending orders",
		slogx.String("package", "reconciler"),
		slogx.Int("pending", len(orders)),
		slogx.Int("added", added),
	)
	r.startDrain()
	return added, nil
}

// UpdateHolders runs one holder synchronization pass.
func (r *Reconciler) UpdateHolders(ctx context.Context) (SyncReport, error) {
	report, err := r.holders.Sync(ctx)
	if err != nil {
		return report, errors.WithStack(err)
	}
	return report, nil
}

// StartUpdateHolders runs a holder synchronization pass in the background. It returns
// false if a background pass is already running.
func (r *Reconciler) StartUpdateHolders() bool {
	if !r.syncing.CompareAndSwap(false, true) {
		return false
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.syncing.Store(false)
		if _, err := r.UpdateHolders(r.lifetime); err != nil {
			logger.ErrorContext(r.lifetime, "Background holder sync failed", slogx.String("package", "reconciler"), slogx.Error(err))
		}
	}()
	return true
}

func (r *Reconciler) Status() Status {
	return Status{
		QueueLength:    r.queue.Len(),
		Processing:     r.queue.Processing(),
		SyncingHolders: r.syncing.Load(),
	}
}

// Wait blocks until background drains have returned.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) startDrain() {
	if r.queue.Processing() || r.queue.Len() == 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.queue.Drain(r.lifetime)
	}()
}
