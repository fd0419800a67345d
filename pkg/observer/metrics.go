package observer

import (
	"context"
	"time"

	"github.com/dipeo/execengine/pkg/events"
	"github.com/dipeo/execengine/pkg/telemetry"
	"github.com/dipeo/execengine/pkg/types"
)

// MetricsObserver delegates event-derived durations and outcomes to a
// telemetry.Provider (OpenTelemetry + Prometheus), recording execution
// and node timing and success.
type MetricsObserver struct {
	provider        *telemetry.Provider
	executionStart  time.Time
	nodeStartTimes  map[string]time.Time
	nodesExecuted   int
}

// NewMetricsObserver wraps a telemetry.Provider as an Observer.
func NewMetricsObserver(provider *telemetry.Provider) *MetricsObserver {
	return &MetricsObserver{
		provider:       provider,
		nodeStartTimes: make(map[string]time.Time),
	}
}

func (o *MetricsObserver) Run(ctx context.Context, ch <-chan events.DomainEvent) {
	runLoop(ctx, ch, func(event events.DomainEvent) {
		switch event.Type {
		case events.ExecutionStarted:
			o.executionStart = event.Meta.Timestamp
		case events.ExecutionCompleted:
			o.provider.RecordExecution(ctx, event.Scope.ExecutionID, time.Since(o.executionStart), true, o.nodesExecuted)
		case events.ExecutionError, events.ExecutionAborted:
			o.provider.RecordExecution(ctx, event.Scope.ExecutionID, time.Since(o.executionStart), false, o.nodesExecuted)
		case events.NodeStarted:
			nodeID, _ := event.Payload["node_id"].(string)
			o.nodeStartTimes[nodeID] = event.Meta.Timestamp
		case events.NodeCompleted:
			o.recordNode(ctx, event, true)
		case events.NodeError:
			o.recordNode(ctx, event, false)
		}
	})
}

func (o *MetricsObserver) recordNode(ctx context.Context, event events.DomainEvent, success bool) {
	nodeID, _ := event.Payload["node_id"].(string)
	kind, _ := event.Payload["node_kind"].(string)
	var duration time.Duration
	if start, ok := o.nodeStartTimes[nodeID]; ok {
		duration = time.Since(start)
		delete(o.nodeStartTimes, nodeID)
	}
	o.nodesExecuted++
	o.provider.RecordNodeExecution(ctx, nodeID, types.NodeKind(kind), duration, success)
}
