package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/logging"
	"github.com/dipeo/execengine/pkg/types"
)

// Bus is the minimal publication contract a Pipeline needs; pkg/eventbus
// satisfies it.
type Bus interface {
	Publish(ctx context.Context, executionID string, event DomainEvent)
}

// Pipeline is the single event-construction point for one execution. It
// builds DomainEvents from raw lifecycle calls, stamps them with a
// monotonic per-execution sequence number, and publishes them to a Bus
// fire-and-forget so the engine's hot path never blocks on a slow
// subscriber.
type Pipeline struct {
	executionID string
	scope       Scope
	bus         Bus
	log         *logging.Logger

	seq     uint64
	started time.Time

	wg sync.WaitGroup
}

// New creates a Pipeline for a single execution.
func New(executionID string, scope Scope, bus Bus, log *logging.Logger) *Pipeline {
	return &Pipeline{
		executionID: executionID,
		scope:       scope,
		bus:         bus,
		log:         log,
		started:     time.Now(),
	}
}

func (p *Pipeline) uptimeMs() int64 {
	return time.Since(p.started).Milliseconds()
}

func (p *Pipeline) emit(ctx context.Context, typ Type, payload map[string]interface{}) {
	seq := atomic.AddUint64(&p.seq, 1)
	event := DomainEvent{
		Type:  typ,
		Scope: p.scope,
		Meta: Meta{
			Seq:              seq,
			Timestamp:        time.Now(),
			PipelineUptimeMs: p.uptimeMs(),
		},
		Payload: payload,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if p.log != nil {
					p.log.WithFields(map[string]interface{}{
						"execution_id": p.executionID,
						"type":         typ,
						"panic":        r,
					}).Error("event publication panicked")
				}
			}
		}()
		p.bus.Publish(ctx, p.executionID, event)
	}()
}

// EmitExecutionStarted emits EXECUTION_STARTED.
func (p *Pipeline) EmitExecutionStarted(ctx context.Context, diagramName string) {
	p.emit(ctx, ExecutionStarted, map[string]interface{}{"diagram_name": diagramName})
}

// EmitExecutionCompleted emits EXECUTION_COMPLETED.
func (p *Pipeline) EmitExecutionCompleted(ctx context.Context, outputs map[string]interface{}) {
	p.emit(ctx, ExecutionCompleted, map[string]interface{}{"outputs": outputs})
}

// EmitExecutionError emits EXECUTION_ERROR.
func (p *Pipeline) EmitExecutionError(ctx context.Context, err error) {
	p.emit(ctx, ExecutionError, map[string]interface{}{"error": err.Error()})
}

// EmitExecutionAborted emits EXECUTION_ABORTED.
func (p *Pipeline) EmitExecutionAborted(ctx context.Context, reason string) {
	p.emit(ctx, ExecutionAborted, map[string]interface{}{"reason": reason})
}

// EmitNodeStarted emits NODE_STARTED.
func (p *Pipeline) EmitNodeStarted(ctx context.Context, node types.Node, iteration int) {
	p.emit(ctx, NodeStarted, nodeEventPayload(node, map[string]interface{}{"iteration": iteration}))
}

// EmitNodeCompleted emits NODE_COMPLETED with a summarized output and, when
// present, extracted LLM usage.
func (p *Pipeline) EmitNodeCompleted(ctx context.Context, node types.Node, env envelope.Envelope, elapsed time.Duration) {
	extra := map[string]interface{}{
		"elapsed_ms": elapsed.Milliseconds(),
		"output":     OutputSummary(env),
	}
	if usage, ok := llmUsageFrom(env); ok {
		extra["llm_usage"] = usage
	}
	p.emit(ctx, NodeCompleted, nodeEventPayload(node, extra))
}

// EmitNodeError emits NODE_ERROR.
func (p *Pipeline) EmitNodeError(ctx context.Context, node types.Node, err error) {
	p.emit(ctx, NodeError, nodeEventPayload(node, map[string]interface{}{"error": err.Error()}))
}

// WaitForPendingEvents blocks until every emitted event has been handed to
// the bus, or ctx is done. Called at engine shutdown so terminal events
// (EXECUTION_COMPLETED in particular) are never dropped mid-flight.
func (p *Pipeline) WaitForPendingEvents(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
