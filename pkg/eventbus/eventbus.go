// Package eventbus is the bounded pub/sub fan-out between an execution's
// events.Pipeline and its observers. Each subscriber owns a buffered
// channel; every Publish call hands the event to all subscribers
// concurrently, one goroutine per subscriber, and returns only once each
// delivery has finished, so events published one after another reach
// every subscriber in publication order. A full channel drops or blocks
// according to the subscriber's Class.
package eventbus

import (
	"context"
	"sync"

	"github.com/dipeo/execengine/pkg/events"
	"github.com/dipeo/execengine/pkg/logging"
)

// Class controls how a subscriber's channel behaves under back-pressure.
type Class int

const (
	// ClassStreaming subscribers (live UI/transport fan-out) are
	// best-effort: a full channel causes the event to be dropped with a
	// logged warning rather than blocking the publisher.
	ClassStreaming Class = iota
	// ClassStateStore subscribers (durable persistence) must never miss
	// an event: a full channel blocks the publish call until space frees
	// up or the context is cancelled.
	ClassStateStore
)

const defaultCapacity = 256

type subscriber struct {
	ch    chan events.DomainEvent
	class Class
	label string
}

// Bus fans events out to subscribers for a single execution, in strict
// per-subscriber seq order (no cross-subscriber ordering guarantee).
type Bus struct {
	mu          sync.RWMutex
	subscribers []*subscriber
	log         *logging.Logger
}

// New creates an empty Bus. One Bus is typically constructed per
// execution.
func New(log *logging.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers a new subscriber and returns its receive channel.
// The returned channel is closed when Close is called.
func (b *Bus) Subscribe(label string, class Class) <-chan events.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &subscriber{ch: make(chan events.DomainEvent, defaultCapacity), class: class, label: label}
	b.subscribers = append(b.subscribers, sub)
	return sub.ch
}

// Publish delivers event to every subscriber concurrently and returns once
// every delivery has finished.
// Streaming subscribers are fed with a non-blocking send and dropped on
// overflow; state-store subscribers block (respecting ctx cancellation).
// Each delivery runs in its own panic-isolated goroutine so one observer's
// panic can't take down the bus or another subscriber's delivery.
func (b *Bus) Publish(ctx context.Context, executionID string, event events.DomainEvent) {
	b.mu.RLock()
	subs := make([]*subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscriber) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil && b.log != nil {
					b.log.WithFields(map[string]interface{}{
						"subscriber":   s.label,
						"execution_id": executionID,
						"panic":        r,
					}).Error("eventbus subscriber delivery panicked")
				}
			}()
			b.deliver(ctx, s, event, executionID)
		}(sub)
	}
	wg.Wait()
}

func (b *Bus) deliver(ctx context.Context, s *subscriber, event events.DomainEvent, executionID string) {
	switch s.class {
	case ClassStateStore:
		select {
		case s.ch <- event:
		case <-ctx.Done():
		}
	default: // ClassStreaming
		select {
		case s.ch <- event:
		default:
			if b.log != nil {
				b.log.WithFields(map[string]interface{}{
					"subscriber":   s.label,
					"execution_id": executionID,
					"event_type":   event.Type,
				}).Warn("eventbus streaming subscriber fell behind, dropping event")
			}
		}
	}
}

// Close closes every subscriber channel. Call once the execution's
// pipeline has drained (events.Pipeline.WaitForPendingEvents returned).
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers {
		close(sub.ch)
	}
	b.subscribers = nil
}
