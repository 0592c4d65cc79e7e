package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Claims tracks order ids that are queued or being processed, so an order is never
// queued twice.
type Claims interface {
	// Claim reports false if the order id is already claimed.
	Claim(ctx context.Context, orderId string) (bool, error)
	// Refresh extends a claim held by this instance while the order is being worked on.
	Refresh(ctx context.Context, orderId string) error
	Release(ctx context.Context, orderId string) error
}

var (
	_ Claims = (*MemoryClaims)(nil)
	_ Claims = (*RedisClaims)(nil)
)

type MemoryClaims struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{ids: make(map[string]struct{})}
}

func (c *MemoryClaims) Claim(_ context.Context, orderId string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[orderId]; ok {
		return false, nil
	}
	c.ids[orderId] = struct{}{}
	return true, nil
}

func (c *MemoryClaims) Refresh(context.Context, string) error { return nil }

func (c *MemoryClaims) Release(_ context.Context, orderId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, orderId)
	return nil
}

const DefaultClaimKeyPrefix = "estate:order-claim:"

// releaseScript deletes the claim key only while it still holds this replica's token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var refreshScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisClaims shares claims between service replicas with SET NX. Claims expire
// after ttl so a crashed replica does not hold an order forever. Release only removes
// a claim this instance still owns.
type RedisClaims struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisClaims(client goredis.UniversalClient, ttl time.Duration) *RedisClaims {
	return &RedisClaims{
		client: client,
		prefix: DefaultClaimKeyPrefix,
		ttl:    ttl,
		tokens: make(map[string]string),
	}
}

func (c *RedisClaims) Claim(ctx context.Context, orderId string) (bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, c.prefix+orderId, token, c.ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to claim order %q", orderId)
	}
	if ok {
		c.mu.Lock()
		c.tokens[orderId] = token
		c.mu.Unlock()
	}
	return ok, nil
}

func (c *RedisClaims) Refresh(ctx context.Context, orderId string) error {
	c.mu.Lock()
	token, ok := c.tokens[orderId]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if err := refreshScript.Run(ctx, c.client, []string{c.prefix + orderId}, token, c.ttl.Milliseconds()).Err(); err != nil {
		return errors.Wrapf(err, "failed to refresh claim of order %q", orderId)
	}
	return nil
}

func (c *RedisClaims) Release(ctx context.Context, orderId string) error {
	c.mu.Lock()
	token, ok := c.tokens[orderId]
	delete(c.tokens, orderId)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if err := releaseScript.Run(ctx, c.client, []string{c.prefix + orderId}, token).Err(); err != nil {
		return errors.Wrapf(err, "failed to release order %q", orderId)
	}
	return nil
}
