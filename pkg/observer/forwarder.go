package observer

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/dipeo/execengine/pkg/events"
)

// EventForwarder republishes every event onto a redis pub/sub channel so
// a remote monitor process can subscribe without sharing memory with the
// engine — a concrete stand-in for the external GraphQL/WebSocket/SSE
// transport, which is out of scope for this module.
type EventForwarder struct {
	client  *redis.Client
	channel string
}

// NewEventForwarder creates an EventForwarder publishing to channel on
// client.
func NewEventForwarder(client *redis.Client, channel string) *EventForwarder {
	return &EventForwarder{client: client, channel: channel}
}

func (o *EventForwarder) Run(ctx context.Context, ch <-chan events.DomainEvent) {
	runLoop(ctx, ch, func(event events.DomainEvent) {
		body, err := json.Marshal(event)
		if err != nil {
			return
		}
		o.client.Publish(ctx, o.channel, body)
	})
}
