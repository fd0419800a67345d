package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dipeo/execengine/pkg/ports"
)

// anthropicMessagesClient captures the subset of the Anthropic SDK used by
// this adapter, satisfied by *sdk.MessageService or a fake in tests.
type anthropicMessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicClient implements ports.LLMServicePort via the Anthropic
// Messages API.
type AnthropicClient struct {
	msg          anthropicMessagesClient
	defaultModel string
	maxTokens    int
}

// NewAnthropicClient wraps an already-constructed Anthropic messages
// client. maxTokens is used when a request doesn't set one explicitly.
func NewAnthropicClient(msg anthropicMessagesClient, defaultModel string, maxTokens int) *AnthropicClient {
	return &AnthropicClient{msg: msg, defaultModel: defaultModel, maxTokens: maxTokens}
}

// NewAnthropicClientFromAPIKey builds an Anthropic-backed LLMServicePort
// using the SDK's default HTTP transport.
func NewAnthropicClientFromAPIKey(apiKey, defaultModel string, maxTokens int) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm/anthropic: api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicClient(&client.Messages, defaultModel, maxTokens), nil
}

// Complete issues a non-streaming Messages.New request and translates the
// response into a provider-agnostic LLMResponse.
func (c *AnthropicClient) Complete(ctx context.Context, req ports.LLMRequest) (ports.LLMResponse, error) {
	if len(req.Messages) == 0 {
		return ports.LLMResponse{}, errors.New("llm/anthropic: messages are required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.defaultModel
	}
	if model == "" {
		return ports.LLMResponse{}, errors.New("llm/anthropic: model is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens <= 0 {
		return ports.LLMResponse{}, errors.New("llm/anthropic: max_tokens must be positive")
	}

	var system []sdk.TextBlockParam
	conversation := make([]sdk.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Content == "" {
			continue
		}
		if m.Role == "system" {
			system = append(system, sdk.TextBlockParam{Text: m.Content})
			continue
		}
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			conversation = append(conversation, sdk.NewAssistantMessage(block))
		default:
			conversation = append(conversation, sdk.NewUserMessage(block))
		}
	}
	if len(conversation) == 0 {
		return ports.LLMResponse{}, errors.New("llm/anthropic: at least one user/assistant message is required")
	}

	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  conversation,
		Model:     sdk.Model(model),
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return ports.LLMResponse{}, fmt.Errorf("llm/anthropic: messages.new: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return ports.LLMResponse{
		Content:      text.String(),
		FinishReason: string(msg.StopReason),
		PromptTokens: int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}
