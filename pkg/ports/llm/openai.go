// Package llm implements ports.LLMServicePort against real chat-completion
// providers so PersonJob handlers never import a provider SDK directly.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dipeo/execengine/pkg/ports"
)

// openAIChatClient captures the subset of the go-openai client this
// adapter uses, so tests can substitute a fake without a real API key.
type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements ports.LLMServicePort via the OpenAI Chat
// Completions API.
type OpenAIClient struct {
	chat         openAIChatClient
	defaultModel string
}

// NewOpenAIClient wraps an already-constructed go-openai client.
func NewOpenAIClient(chat openAIChatClient, defaultModel string) *OpenAIClient {
	return &OpenAIClient{chat: chat, defaultModel: defaultModel}
}

// NewOpenAIClientFromAPIKey builds an OpenAI-backed LLMServicePort using
// go-openai's default HTTP transport.
func NewOpenAIClientFromAPIKey(apiKey, defaultModel string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm/openai: api key is required")
	}
	return NewOpenAIClient(openai.NewClient(apiKey), defaultModel), nil
}

// Complete issues a Chat Completions request and translates the response
// into a provider-agnostic LLMResponse.
func (c *OpenAIClient) Complete(ctx context.Context, req ports.LLMRequest) (ports.LLMResponse, error) {
	if len(req.Messages) == 0 {
		return ports.LLMResponse{}, errors.New("llm/openai: messages are required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.defaultModel
	}
	if model == "" {
		return ports.LLMResponse{}, errors.New("llm/openai: model is required")
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}
	if req.JSONSchema != nil {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return ports.LLMResponse{}, fmt.Errorf("llm/openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ports.LLMResponse{}, errors.New("llm/openai: response had no choices")
	}

	choice := resp.Choices[0]
	return ports.LLMResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		PromptTokens: resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
