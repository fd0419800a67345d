package observer

import (
	"context"
	"testing"
	"time"

	"github.com/dipeo/execengine/pkg/events"
	"github.com/dipeo/execengine/pkg/telemetry"
)

func newTestProvider(t *testing.T) *telemetry.Provider {
	t.Helper()
	cfg := telemetry.DefaultConfig()
	cfg.EnableTracing = false
	cfg.EnableMetrics = false
	provider, err := telemetry.NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return provider
}

func TestMetricsObserver_RecordsExecutionAndNodeLifecycle(t *testing.T) {
	provider := newTestProvider(t)
	obs := NewMetricsObserver(provider)

	now := time.Now()
	ch := make(chan events.DomainEvent, 4)
	ch <- events.DomainEvent{Type: events.ExecutionStarted, Scope: events.Scope{ExecutionID: "exec-1"}, Meta: events.Meta{Timestamp: now}}
	ch <- events.DomainEvent{Type: events.NodeStarted, Scope: events.Scope{ExecutionID: "exec-1"}, Meta: events.Meta{Timestamp: now}, Payload: map[string]interface{}{"node_id": "n1"}}
	ch <- events.DomainEvent{Type: events.NodeCompleted, Scope: events.Scope{ExecutionID: "exec-1"}, Payload: map[string]interface{}{"node_id": "n1", "node_kind": "code_job"}}
	ch <- events.DomainEvent{Type: events.ExecutionCompleted, Scope: events.Scope{ExecutionID: "exec-1"}}
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	obs.Run(ctx, ch)

	if obs.nodesExecuted != 1 {
		t.Errorf("expected 1 node executed, got %d", obs.nodesExecuted)
	}
}

func TestMetricsObserver_RecordsFailureOnError(t *testing.T) {
	provider := newTestProvider(t)
	obs := NewMetricsObserver(provider)

	ch := make(chan events.DomainEvent, 2)
	ch <- events.DomainEvent{Type: events.ExecutionStarted, Scope: events.Scope{ExecutionID: "exec-1"}, Meta: events.Meta{Timestamp: time.Now()}}
	ch <- events.DomainEvent{Type: events.ExecutionError, Scope: events.Scope{ExecutionID: "exec-1"}}
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	obs.Run(ctx, ch)
}
