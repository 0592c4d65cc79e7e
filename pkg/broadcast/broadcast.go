// Package broadcast fans events out to every websocket client connected to `/ws`.
// With a relay configured, events go through Redis pub/sub so that every replica
// delivers them to its own clients.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
)

// DefaultClientBufferSize is the number of pending events a client may lag behind
// before it is disconnected.
const DefaultClientBufferSize = 16

// Event is the message pushed to clients.
type Event struct {
	EventName string `json:"eventName"`
	Data      any    `json:"data"`
}

const EventSold = "sold"

// SoldData is the payload of the `sold` event.
type SoldData struct {
	Id     string `json:"id"`
	Amount int64  `json:"amount"`
}

func NewSoldEvent(id string, amount int64) Event {
	return Event{EventName: EventSold, Data: SoldData{Id: id, Amount: amount}}
}

// Broadcaster publishes events to connected clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Relay carries encoded events between replicas.
type Relay interface {
	Publish(ctx context.Context, payload []byte) error
	Listen(ctx context.Context, deliver func(payload []byte)) error
}

var _ Broadcaster = (*Hub)(nil)

type client struct {
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	relay      Relay
	bufferSize int
}

// NewHub creates a hub, relay is optional.
func NewHub(relay Relay) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		relay:      relay,
		bufferSize: DefaultClientBufferSize,
	}
}

// Broadcast encodes the event and delivers it, through the relay if there is one.
func (h *Hub) Broadcast(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "can't encode event")
	}
	if h.relay != nil {
		if err := h.relay.Publish(ctx, payload); err != nil {
			return errors.Wrap(err, "can't publish event")
		}
		return nil
	}
	h.deliver(payload)
	return nil
}

// Run listens to the relay until ctx is done. Without a relay it only waits for ctx.
func (h *Hub) Run(ctx context.Context) error {
	defer h.closeAll()
	if h.relay == nil {
		<-ctx.Done()
		return nil
	}
	if err := h.relay.Listen(ctx, h.deliver); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "broadcast relay stopped")
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register() *client {
	c := &client{
		send: make(chan []byte, h.bufferSize),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) deliver(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			logger.Warn("Disconnected slow websocket client", slogx.String("package", "broadcast"))
			c.close()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
