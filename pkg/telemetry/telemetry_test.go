package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/dipeo/execengine/pkg/types"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	if provider.Meter() == nil {
		t.Error("expected non-nil meter")
	}
	if provider.Tracer() == nil {
		t.Error("expected non-nil tracer")
	}
}

func TestNewProvider_MetricsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableMetrics = false
	provider, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	if provider.Meter() != nil {
		t.Error("expected nil meter when metrics disabled")
	}
}

func TestRecordExecution(t *testing.T) {
	provider, err := NewProvider(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name          string
		executionID   string
		duration      time.Duration
		success       bool
		nodesExecuted int
	}{
		{"success", "exec-123", 50 * time.Millisecond, true, 5},
		{"failure", "exec-456", 10 * time.Millisecond, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider.RecordExecution(ctx, tt.executionID, tt.duration, tt.success, tt.nodesExecuted)
		})
	}
}

func TestRecordNodeExecution(t *testing.T) {
	provider, err := NewProvider(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		nodeID   string
		kind     types.NodeKind
		duration time.Duration
		success  bool
	}{
		{"codejob success", "n1", types.KindCodeJob, 10 * time.Millisecond, true},
		{"apijob failure", "n2", types.KindApiJob, 200 * time.Millisecond, false},
		{"personjob success", "n3", types.KindPersonJob, 2 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider.RecordNodeExecution(ctx, tt.nodeID, tt.kind, tt.duration, tt.success)
		})
	}
}

func TestRecordHTTPCall(t *testing.T) {
	provider, err := NewProvider(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	provider.RecordHTTPCall(context.Background(), "GET", "https://example.com", 200, 25*time.Millisecond)
}

func TestShutdown(t *testing.T) {
	provider, err := NewProvider(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	provider.RecordExecution(context.Background(), "test", time.Second, true, 1)
	provider.RecordNodeExecution(context.Background(), "node1", types.KindCodeJob, time.Millisecond, true)

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}
