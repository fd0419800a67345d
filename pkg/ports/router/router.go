// Package router implements ports.MessageRouterPort over Redis pub/sub,
// so StreamingObserver can fan diagram events out to a remote transport
// (a WebSocket gateway, another process following a sub-diagram's
// parent) without that subscriber sharing process memory with the
// engine.
package router

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis wraps an existing Redis client. It carries no state of its own;
// channels are plain Redis pub/sub channel names, namespaced by callers
// the same way conversation.RedisStore namespaces its keys.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing Redis client for use as a MessageRouterPort.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Publish implements ports.MessageRouterPort.
func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.client.Publish(ctx, channel, payload).Err()
}

// Subscribe implements ports.MessageRouterPort. The returned channel is
// closed when ctx is canceled; callers don't need to call anything else
// to stop receiving.
func (r *Redis) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := r.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
