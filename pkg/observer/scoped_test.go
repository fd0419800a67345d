package observer

import (
	"context"
	"testing"
	"time"

	"github.com/dipeo/execengine/pkg/events"
)

type recordingObserver struct {
	received []events.DomainEvent
}

func (r *recordingObserver) Run(ctx context.Context, ch <-chan events.DomainEvent) {
	runLoop(ctx, ch, func(event events.DomainEvent) {
		r.received = append(r.received, event)
	})
}

func TestScopedObserver_FiltersByExecutionScope(t *testing.T) {
	base := &recordingObserver{}
	scoped := NewScopedObserver(base, events.Scope{ExecutionID: "exec-1"}, true, nil)

	ch := make(chan events.DomainEvent, 2)
	ch <- events.DomainEvent{Type: events.NodeStarted, Scope: events.Scope{ExecutionID: "exec-1"}}
	ch <- events.DomainEvent{Type: events.NodeStarted, Scope: events.Scope{ExecutionID: "exec-2"}}
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	scoped.Run(ctx, ch)

	if len(base.received) != 1 {
		t.Fatalf("expected 1 event to pass scope filter, got %d", len(base.received))
	}
	if base.received[0].Scope.ExecutionID != "exec-1" {
		t.Errorf("expected exec-1, got %s", base.received[0].Scope.ExecutionID)
	}
}

func TestScopedObserver_FiltersByEventType(t *testing.T) {
	base := &recordingObserver{}
	scoped := NewScopedObserver(base, events.Scope{}, false, []events.Type{events.ExecutionCompleted})

	ch := make(chan events.DomainEvent, 2)
	ch <- events.DomainEvent{Type: events.NodeStarted}
	ch <- events.DomainEvent{Type: events.ExecutionCompleted}
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	scoped.Run(ctx, ch)

	if len(base.received) != 1 {
		t.Fatalf("expected 1 event to pass type filter, got %d", len(base.received))
	}
	if base.received[0].Type != events.ExecutionCompleted {
		t.Errorf("expected ExecutionCompleted, got %s", base.received[0].Type)
	}
}

func TestScopedObserver_NoFilterPassesEverything(t *testing.T) {
	base := &recordingObserver{}
	scoped := NewScopedObserver(base, events.Scope{}, false, nil)

	ch := make(chan events.DomainEvent, 3)
	ch <- events.DomainEvent{Type: events.NodeStarted}
	ch <- events.DomainEvent{Type: events.NodeCompleted}
	ch <- events.DomainEvent{Type: events.ExecutionCompleted}
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	scoped.Run(ctx, ch)

	if len(base.received) != 3 {
		t.Errorf("expected all 3 events to pass, got %d", len(base.received))
	}
}
