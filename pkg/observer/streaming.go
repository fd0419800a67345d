package observer

import (
	"context"
	"encoding/json"

	"github.com/dipeo/execengine/pkg/events"
	"github.com/dipeo/execengine/pkg/ports"
)

// StreamingObserver serializes events and republishes them on a channel
// through the MessageRouterPort, so a remote transport (WebSocket/SSE)
// can fan them out without sharing process memory with the engine.
type StreamingObserver struct {
	router  ports.MessageRouterPort
	channel string
}

// NewStreamingObserver creates a StreamingObserver publishing to channel
// via router.
func NewStreamingObserver(router ports.MessageRouterPort, channel string) *StreamingObserver {
	return &StreamingObserver{router: router, channel: channel}
}

func (o *StreamingObserver) Run(ctx context.Context, ch <-chan events.DomainEvent) {
	runLoop(ctx, ch, func(event events.DomainEvent) {
		body, err := json.Marshal(event)
		if err != nil {
			return
		}
		_ = o.router.Publish(ctx, o.channel, body)
	})
}
