package observer

import (
	"context"

	"github.com/dipeo/execengine/pkg/events"
	"github.com/dipeo/execengine/pkg/statestore"
)

// StateStoreObserver persists every event (and its derived snapshot) to a
// statestore.Store. Re-delivery of an already-applied seq is a no-op in
// the store's ApplyEvent (the event is ignored), so this is safe
// to run against an at-least-once bus.
type StateStoreObserver struct {
	store *statestore.Store
}

// NewStateStoreObserver wraps a statestore.Store as an Observer.
func NewStateStoreObserver(store *statestore.Store) *StateStoreObserver {
	return &StateStoreObserver{store: store}
}

func (o *StateStoreObserver) Run(ctx context.Context, ch <-chan events.DomainEvent) {
	runLoop(ctx, ch, func(event events.DomainEvent) {
		o.store.ApplyEvent(event.Scope.ExecutionID, event)
	})
}
