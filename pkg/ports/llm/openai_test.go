package llm

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dipeo/execengine/pkg/ports"
)

type fakeOpenAIChat struct {
	resp openai.ChatCompletionResponse
	err  error
	req  openai.ChatCompletionRequest
}

func (f *fakeOpenAIChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAIClient_Complete(t *testing.T) {
	fake := &fakeOpenAIChat{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "hello there"}, FinishReason: openai.FinishReasonStop},
			},
			Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5},
		},
	}
	client := NewOpenAIClient(fake, "gpt-4o-mini")

	resp, err := client.Complete(context.Background(), ports.LLMRequest{
		Messages: []ports.LLMMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Content != "hello there" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.PromptTokens != 10 || resp.OutputTokens != 5 {
		t.Fatalf("unexpected token counts: %+v", resp)
	}
	if fake.req.Model != "gpt-4o-mini" {
		t.Fatalf("expected default model to be used, got %q", fake.req.Model)
	}
}

func TestOpenAIClient_ModelOverride(t *testing.T) {
	fake := &fakeOpenAIChat{resp: openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{}}}}
	client := NewOpenAIClient(fake, "gpt-4o-mini")

	_, err := client.Complete(context.Background(), ports.LLMRequest{
		Model:    "gpt-4-turbo",
		Messages: []ports.LLMMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if fake.req.Model != "gpt-4-turbo" {
		t.Fatalf("expected override model, got %q", fake.req.Model)
	}
}

func TestOpenAIClient_NoMessages(t *testing.T) {
	client := NewOpenAIClient(&fakeOpenAIChat{}, "gpt-4o-mini")
	if _, err := client.Complete(context.Background(), ports.LLMRequest{}); err == nil {
		t.Fatalf("expected error for empty messages")
	}
}

func TestOpenAIClient_NoModel(t *testing.T) {
	client := NewOpenAIClient(&fakeOpenAIChat{}, "")
	_, err := client.Complete(context.Background(), ports.LLMRequest{
		Messages: []ports.LLMMessage{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected error when no model is configured")
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	client := NewOpenAIClient(&fakeOpenAIChat{resp: openai.ChatCompletionResponse{}}, "gpt-4o-mini")
	_, err := client.Complete(context.Background(), ports.LLMRequest{
		Messages: []ports.LLMMessage{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestOpenAIClient_UnderlyingError(t *testing.T) {
	fake := &fakeOpenAIChat{err: errBoom}
	client := NewOpenAIClient(fake, "gpt-4o-mini")
	_, err := client.Complete(context.Background(), ports.LLMRequest{
		Messages: []ports.LLMMessage{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected wrapped error")
	}
}

func TestNewOpenAIClientFromAPIKey_Empty(t *testing.T) {
	if _, err := NewOpenAIClientFromAPIKey("", "gpt-4o-mini"); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
