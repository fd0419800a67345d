package llm

import (
	"context"
	"testing"

	"github.com/dipeo/execengine/pkg/ports"
)

func TestRouter_RoutesByModelPrefix(t *testing.T) {
	openaiSvc := &Fake{Response: ports.LLMResponse{Content: "from openai"}}
	anthropicSvc := &Fake{Response: ports.LLMResponse{Content: "from anthropic"}}

	r := NewRouter().
		WithRoute("gpt-", openaiSvc).
		WithRoute("claude-", anthropicSvc)

	resp, err := r.Complete(context.Background(), ports.LLMRequest{Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Content != "from openai" {
		t.Fatalf("expected openai route, got %q", resp.Content)
	}

	resp, err = r.Complete(context.Background(), ports.LLMRequest{Model: "claude-3-5-sonnet"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Content != "from anthropic" {
		t.Fatalf("expected anthropic route, got %q", resp.Content)
	}
}

func TestRouter_FallsBackWhenNoRouteMatches(t *testing.T) {
	fallback := &Fake{Response: ports.LLMResponse{Content: "fallback"}}
	r := NewRouter().WithRoute("gpt-", &Fake{}).WithFallback(fallback)

	resp, err := r.Complete(context.Background(), ports.LLMRequest{Model: "mistral-large"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Content != "fallback" {
		t.Fatalf("expected fallback route, got %q", resp.Content)
	}
}

func TestRouter_ErrorsWithoutFallback(t *testing.T) {
	r := NewRouter().WithRoute("gpt-", &Fake{})
	if _, err := r.Complete(context.Background(), ports.LLMRequest{Model: "mistral-large"}); err == nil {
		t.Fatalf("expected error when no route or fallback matches")
	}
}

func TestFake_RecordsCalls(t *testing.T) {
	fake := &Fake{Response: ports.LLMResponse{Content: "ok"}}
	req := ports.LLMRequest{Model: "gpt-4o-mini"}
	if _, err := fake.Complete(context.Background(), req); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(fake.Calls) != 1 || fake.Calls[0].Model != "gpt-4o-mini" {
		t.Fatalf("expected call to be recorded, got %+v", fake.Calls)
	}
}

func TestFake_ReturnsConfiguredError(t *testing.T) {
	fake := &Fake{Err: errBoom}
	if _, err := fake.Complete(context.Background(), ports.LLMRequest{}); err != errBoom {
		t.Fatalf("expected configured error, got %v", err)
	}
}
