package observer

import (
	"context"
	"sync"

	"github.com/dipeo/execengine/pkg/events"
)

// ResultObserver collects an execution's terminal outcome for a CLI or
// synchronous caller waiting on the run.
type ResultObserver struct {
	mu      sync.Mutex
	done    chan struct{}
	closed  bool
	Outputs map[string]interface{}
	Status  events.Type
	Err     string
}

// NewResultObserver creates a ResultObserver whose Wait channel closes on
// the first terminal event (EXECUTION_COMPLETED/ERROR/ABORTED).
func NewResultObserver() *ResultObserver {
	return &ResultObserver{done: make(chan struct{})}
}

// Wait returns a channel that closes once a terminal event is observed.
func (o *ResultObserver) Wait() <-chan struct{} {
	return o.done
}

func (o *ResultObserver) Run(ctx context.Context, ch <-chan events.DomainEvent) {
	runLoop(ctx, ch, func(event events.DomainEvent) {
		switch event.Type {
		case events.ExecutionCompleted:
			o.mu.Lock()
			if outputs, ok := event.Payload["outputs"].(map[string]interface{}); ok {
				o.Outputs = outputs
			}
			o.Status = event.Type
			o.finish()
			o.mu.Unlock()
		case events.ExecutionError, events.ExecutionAborted:
			o.mu.Lock()
			o.Status = event.Type
			if msg, ok := event.Payload["error"].(string); ok {
				o.Err = msg
			}
			o.finish()
			o.mu.Unlock()
		}
	})
}

func (o *ResultObserver) finish() {
	if !o.closed {
		o.closed = true
		close(o.done)
	}
}
