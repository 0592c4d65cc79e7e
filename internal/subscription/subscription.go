// Package subscription delivers a stream of values and a terminal error from a producer
// goroutine to a consumer channel.
package subscription

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
)

// BufferSize is how many values a producer can hand over before Send blocks on a slow consumer.
var BufferSize = 8

var errClosed = errors.Wrap(errs.Closed, "subscription is closed")

// Subscription is the producer side. Values go through a buffered queue and are forwarded
// to the consumer channel by a single goroutine, so the consumer sees them in Send order.
type Subscription[T any] struct {
	out     chan<- T
	queue   chan T
	errCh   chan error
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewSubscription[T any](out chan<- T) *Subscription[T] {
	s := &Subscription[T]{
		out:     out,
		queue:   make(chan T, BufferSize),
		errCh:   make(chan error, BufferSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.forward()
	return s
}

func (s *Subscription[T]) forward() {
	defer close(s.stopped)
	for {
		var value T
		select {
		case <-s.stop:
			return
		case value = <-s.queue:
		}
		select {
		case s.out <- value:
		case <-s.stop:
			return
		}
	}
}

// Send queues value for the consumer.
func (s *Subscription[T]) Send(ctx context.Context, value T) error {
	if s.IsClosed() {
		return errClosed
	}
	select {
	case s.queue <- value:
		return nil
	case <-s.stopped:
		return errClosed
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// SendError reports a failure on the error channel. Producers stop sending values after it.
func (s *Subscription[T]) SendError(ctx context.Context, err error) error {
	if s.IsClosed() {
		return errClosed
	}
	select {
	case s.errCh <- err:
		return nil
	case <-s.stopped:
		return errClosed
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

func (s *Subscription[T]) Unsubscribe() {
	_ = s.UnsubscribeWithContext(context.Background())
}

// UnsubscribeWithContext stops forwarding and waits for the forwarder to exit. Only the
// first call has an effect.
func (s *Subscription[T]) UnsubscribeWithContext(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		select {
		case <-s.stopped:
		case <-ctx.Done():
			err = errors.WithStack(ctx.Err())
		}
	})
	return err
}

func (s *Subscription[T]) Err() <-chan error { return s.errCh }

func (s *Subscription[T]) Done() <-chan struct{} { return s.stopped }

func (s *Subscription[T]) IsClosed() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

// Client returns the consumer view, which cannot send.
func (s *Subscription[T]) Client() *ClientSubscription[T] {
	return &ClientSubscription[T]{s: s}
}

// ClientSubscription is what a consumer holds: it can read errors, watch for closure and unsubscribe.
type ClientSubscription[T any] struct {
	s *Subscription[T]
}

func (c *ClientSubscription[T]) Unsubscribe() { c.s.Unsubscribe() }

func (c *ClientSubscription[T]) UnsubscribeWithContext(ctx context.Context) error {
	return c.s.UnsubscribeWithContext(ctx)
}

func (c *ClientSubscription[T]) Err() <-chan error { return c.s.Err() }

func (c *ClientSubscription[T]) Done() <-chan struct{} { return c.s.Done() }

func (c *ClientSubscription[T]) IsClosed() bool { return c.s.IsClosed() }
