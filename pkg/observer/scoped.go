package observer

import (
	"context"

	"github.com/dipeo/execengine/pkg/events"
)

// ScopedObserver wraps a base Observer for use on a sub-diagram launch,
// filtering which events the base observer actually sees, by execution
// scope and by event type. pkg/engine does not create ScopedObservers
// itself.
type ScopedObserver struct {
	base             Observer
	scope            events.Scope
	scopeToExecution bool
	filterEvents     map[events.Type]bool
}

// NewScopedObserver wraps base so it only sees events matching scope (if
// scopeToExecution) and whose type is in filterEvents (if non-empty).
func NewScopedObserver(base Observer, scope events.Scope, scopeToExecution bool, filterEvents []events.Type) *ScopedObserver {
	var filter map[events.Type]bool
	if len(filterEvents) > 0 {
		filter = make(map[events.Type]bool, len(filterEvents))
		for _, t := range filterEvents {
			filter[t] = true
		}
	}
	return &ScopedObserver{base: base, scope: scope, scopeToExecution: scopeToExecution, filterEvents: filter}
}

func (o *ScopedObserver) Run(ctx context.Context, ch <-chan events.DomainEvent) {
	filtered := make(chan events.DomainEvent)
	go func() {
		defer close(filtered)
		runLoop(ctx, ch, func(event events.DomainEvent) {
			if o.scopeToExecution && event.Scope.ExecutionID != o.scope.ExecutionID {
				return
			}
			if o.filterEvents != nil && !o.filterEvents[event.Type] {
				return
			}
			select {
			case filtered <- event:
			case <-ctx.Done():
			}
		})
	}()
	o.base.Run(ctx, filtered)
}
