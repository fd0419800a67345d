// Package observer defines the standard event-bus subscribers and the
// scoping wrapper used to propagate (or isolate) a sub-diagram's events
// from its parent's observer set. Subscribers drain a bounded channel
// handed out by pkg/eventbus rather than receiving a synchronous
// callback. When a slow observer's channel is full, a ClassStreaming
// subscriber loses the event and a ClassStateStore subscriber blocks the
// publisher until there is room.
package observer

import (
	"context"

	"github.com/dipeo/execengine/pkg/events"
)

// Observer drains a subscription channel until it is closed or ctx is
// done. Implementations are expected to loop internally (typically via
// Run) rather than be invoked per event, since delivery is channel-based.
type Observer interface {
	Run(ctx context.Context, ch <-chan events.DomainEvent)
}

// runLoop is the shared drain loop every standard observer uses: read
// until the channel closes or ctx is cancelled, dispatching each event to
// handle.
func runLoop(ctx context.Context, ch <-chan events.DomainEvent, handle func(events.DomainEvent)) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			handle(event)
		case <-ctx.Done():
			return
		}
	}
}
