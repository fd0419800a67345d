// Package ports defines the external collaborator contracts the execution
// core depends on but does not itself implement end-to-end: LLM calls,
// sandboxed code evaluation, file access, interactive prompts, diagram
// storage, API key resolution, and cross-process message routing.
//
// Each interface here is the seam between the engine and the outside
// world. Concrete adapters live in sibling ports/<name> packages; tests
// use fakes that satisfy the same interfaces.
package ports

import (
	"context"
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// LLMMessage is one turn passed to an LLM completion call.
type LLMMessage struct {
	Role    string
	Content string
}

// LLMRequest bundles everything an LLMServicePort needs to complete a call.
type LLMRequest struct {
	Model       string
	Messages    []LLMMessage
	MaxTokens   int
	Temperature float64
	// JSONSchema, when non-nil, marks the request as wanting structured
	// output (set from PersonJobParams.TextFormat). The OpenAI adapter then
	// requests a JSON-object response without sending the schema; the
	// Anthropic adapter ignores it.
	JSONSchema interface{}
}

// LLMResponse is the provider's completion result.
type LLMResponse struct {
	Content      string
	FinishReason string
	PromptTokens int
	OutputTokens int
}

// LLMServicePort abstracts a chat-completion provider so PersonJob handlers
// never import a concrete SDK directly.
type LLMServicePort interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// SandboxResult is the outcome of a CodeJob/Hook(python) evaluation.
type SandboxResult struct {
	Output   interface{}
	Stdout   string
	Stderr   string
	ExitCode int
}

// SandboxPort runs untrusted code in an isolated environment. No concrete
// interpreter ships in this module (Non-goal); only a fake for tests and
// the demo exist.
type SandboxPort interface {
	Run(ctx context.Context, language string, code string, input interface{}, timeout time.Duration) (SandboxResult, error)
}

// FileServicePort provides sandboxed filesystem access for Db nodes,
// confined to a configured root directory.
type FileServicePort interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Append(ctx context.Context, path string, data []byte) error
	Glob(ctx context.Context, pattern string) ([]string, error)
}

// InteractiveHandlerPort surfaces a UserResponse node's prompt to a human
// and waits for their reply, bounded by a timeout.
type InteractiveHandlerPort interface {
	Prompt(ctx context.Context, executionID string, promptText string, timeout time.Duration) (string, error)
}

// DiagramRepositoryPort loads named diagrams, for the top-level execution
// and for SubDiagram nodes resolving a nested diagram by name.
type DiagramRepositoryPort interface {
	Load(ctx context.Context, name string) (types.Diagram, error)
	Save(ctx context.Context, name string, d types.Diagram) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// ApiKeyPort resolves named secrets (LLM provider keys, webhook tokens)
// without handlers ever reading the environment directly.
type ApiKeyPort interface {
	Get(ctx context.Context, keyID string) (string, error)
}

// MessageRouterPort forwards domain events to a remote subscriber, used
// by observer.StreamingObserver.
type MessageRouterPort interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// HttpCallerPort issues outbound HTTP requests for ApiJob and webhook
// Hook nodes. The httpclient.PortAdapter implementation follows no
// redirects and does not SSRF-check request URLs.
type HttpCallerPort interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (status int, respBody []byte, err error)
}

// IntegratedApiPort dispatches a named operation against a built-in
// provider template (Notion, Slack, GitHub).
type IntegratedApiPort interface {
	Invoke(ctx context.Context, provider types.IntegratedProvider, operation string, params map[string]string, apiKey string) (envelope.Envelope, error)
}
