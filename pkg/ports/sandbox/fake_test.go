package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/dipeo/execengine/pkg/ports"
)

func TestFake_RunReturnsRegisteredResult(t *testing.T) {
	f := &Fake{
		Results: map[string]ports.SandboxResult{
			"python": {Output: map[string]interface{}{"sum": 3}},
		},
	}

	result, err := f.Run(context.Background(), "python", "print(1+2)", nil, time.Second)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out, ok := result.Output.(map[string]interface{})
	if !ok || out["sum"] != 3 {
		t.Fatalf("unexpected output: %+v", result.Output)
	}
}

func TestFake_RunUnregisteredLanguage(t *testing.T) {
	f := &Fake{Results: map[string]ports.SandboxResult{}}
	if _, err := f.Run(context.Background(), "ruby", "1+1", nil, time.Second); err == nil {
		t.Fatalf("expected error for unregistered language")
	}
}

func TestFake_RunRecordsCalls(t *testing.T) {
	f := &Fake{Results: map[string]ports.SandboxResult{"python": {}}}
	f.Run(context.Background(), "python", "code-a", "in-a", time.Second)
	f.Run(context.Background(), "python", "code-b", "in-b", time.Second)

	if len(f.Calls) != 2 {
		t.Fatalf("expected 2 recorded calls, got %d", len(f.Calls))
	}
	if f.Calls[0].Code != "code-a" || f.Calls[1].Input != "in-b" {
		t.Fatalf("unexpected recorded calls: %+v", f.Calls)
	}
}
