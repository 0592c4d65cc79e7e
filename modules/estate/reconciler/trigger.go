package reconciler

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/core"
	"github.com/gaze-network/estate-ordinals/core/datasources"
	"github.com/gaze-network/estate-ordinals/core/types"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
)

const DefaultResubscribeDelay = 5 * time.Second

var _ core.Worker = (*Trigger)(nil)

// Trigger reconciles on every new block: holders first, then pending orders.
type Trigger struct {
	feed             datasources.BlockFeed
	reconciler       *Reconciler
	resubscribeDelay time.Duration
	sleep            Sleeper

	lastHash chainhash.Hash
}

func NewTrigger(feed datasources.BlockFeed, reconciler *Reconciler, resubscribeDelay time.Duration, sleep Sleeper) *Trigger {
	if resubscribeDelay <= 0 {
		resubscribeDelay = DefaultResubscribeDelay
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &Trigger{
		feed:             feed,
		reconciler:       reconciler,
		resubscribeDelay: resubscribeDelay,
		sleep:            sleep,
	}
}

// Run consumes the block feed until ctx is done, resubscribing after feed failures.
func (t *Trigger) Run(ctx context.Context) error {
	ctx = logger.WithContext(ctx, slogx.String("package", "reconciler"), slogx.String("datasource", t.feed.Name()))
	logger.InfoContext(ctx, "Block trigger started")
	defer t.reconciler.Wait()

	for {
		err := t.consume(ctx)
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "Block trigger stopped")
			return nil
		}
		logger.WarnContext(ctx, "Block feed failed, resubscribing",
			slogx.Error(err),
			slogx.Duration("delay", t.resubscribeDelay),
		)
		if err := t.sleep(ctx, t.resubscribeDelay); err != nil {
			logger.InfoContext(ctx, "Block trigger stopped")
			return nil
		}
	}
}

func (t *Trigger) consume(ctx context.Context) error {
	ch := make(chan types.BlockHeader)
	sub, err := t.feed.Subscribe(ctx, ch)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe to block feed")
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case err := <-sub.Err():
			return errors.WithStack(err)
		case <-sub.Done():
			return errors.Wrap(errs.Closed, "block subscription closed")
		case header := <-ch:
			t.OnBlock(ctx, header)
		}
	}
}

// OnBlock reconciles for a new tip. A tip equal to the previous one is ignored.
func (t *Trigger) OnBlock(ctx context.Context, header types.BlockHeader) {
	if header.Hash == t.lastHash {
		return
	}
	t.lastHash = header.Hash

	ctx = logger.WithContext(ctx, slogx.Int64("height", header.Height), slogx.Stringer("hash", header.Hash))
	logger.InfoContext(ctx, "New block, reconciling")

	if _, err := t.reconciler.UpdateHolders(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to update holders", slogx.Error(err))
	}
	if _, err := t.reconciler.FetchAndAddNewInscriptions(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to queue pending orders", slogx.Error(err))
	}
}
