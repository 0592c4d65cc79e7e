package broadcast

import (
	"context"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultRedisChannel = "estate:broadcast"

var _ Relay = (*RedisRelay)(nil)

// RedisRelay relays events over a Redis pub/sub channel.
type RedisRelay struct {
	client  goredis.UniversalClient
	channel string
}

func NewRedisRelay(client goredis.UniversalClient, channel string) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: utils.Default(channel, DefaultRedisChannel),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, payload []byte) error {
	return errors.WithStack(r.client.Publish(ctx, r.channel, payload).Err())
}

// Listen subscribes to the channel and calls deliver for every message until ctx is done.
func (r *RedisRelay) Listen(ctx context.Context, deliver func(payload []byte)) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// wait for the subscription confirmation so that no publish is missed after Listen starts
	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrapf(err, "can't subscribe to %q", r.channel)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			deliver([]byte(msg.Payload))
		}
	}
}
