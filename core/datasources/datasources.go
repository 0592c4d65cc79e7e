package datasources

import (
	"context"

	"github.com/gaze-network/estate-ordinals/core/types"
	"github.com/gaze-network/estate-ordinals/internal/subscription"
)

// BlockFeed notifies new chain tips. Implementations may repeat a tip, consumers dedupe by hash.
type BlockFeed interface {
	Name() string

	// Subscribe streams block headers to ch until the subscription is closed or fails.
	// A failure is delivered on the subscription error channel, after which no more
	// headers are sent.
	Subscribe(ctx context.Context, ch chan<- types.BlockHeader) (*subscription.ClientSubscription[types.BlockHeader], error)
}
