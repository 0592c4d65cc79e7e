package reconciler

import (
	"context"
	"sync"

	"github.com/gaze-network/estate-ordinals/internal/subscription"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
)

type QueueEventKind string

const (
	OrderStarted QueueEventKind = "order_started"
	// OrderCompleted is published once the order status was read, whether or not it was terminal.
	OrderCompleted QueueEventKind = "order_completed"
	// OrderDropped is published when an order is skipped for this cycle without retrying.
	OrderDropped QueueEventKind = "order_dropped"
	// OrderFailed is published when an order ran out of attempts and was marked failed.
	OrderFailed QueueEventKind = "order_failed"
	DrainIdle   QueueEventKind = "drain_idle"
)

type QueueEvent struct {
	Kind    QueueEventKind
	OrderId string
	Status  entity.OrderStatus
	Err     error
}

// eventStream fans queue events out to subscribers. Subscribers must keep reading,
// a full subscriber blocks the queue until ctx is done.
type eventStream struct {
	mu   sync.Mutex
	subs []*subscription.Subscription[QueueEvent]
}

func (s *eventStream) subscribe(ch chan<- QueueEvent) *subscription.ClientSubscription[QueueEvent] {
	sub := subscription.NewSubscription(ch)
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return sub.Client()
}

func (s *eventStream) publish(ctx context.Context, event QueueEvent) {
	s.mu.Lock()
	subs := s.subs[:0:0]
	for _, sub := range s.subs {
		if !sub.IsClosed() {
			subs = append(subs, sub)
		}
	}
	s.subs = subs
	s.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Send(ctx, event)
	}
}
