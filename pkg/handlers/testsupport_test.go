package handlers

import (
	"context"
	"time"

	"github.com/dipeo/execengine/pkg/config"
	"github.com/dipeo/execengine/pkg/conversation"
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/ports"
	"github.com/dipeo/execengine/pkg/types"
)

// fakeCtx is a minimal ExecutionContext a handler test builds directly,
// without going through pkg/engine.
type fakeCtx struct {
	ctx           context.Context
	executionID   string
	node          types.Node
	variables     map[string]interface{}
	cfg           config.Config
	inputs        map[string]envelope.Envelope
	conversations *conversation.Store
	ports         PortBundle

	resolveDiagram func(context.Context, string) (types.Diagram, error)
	runSubDiagram  func(context.Context, types.Diagram, map[string]interface{}) (envelope.Envelope, error)
}

func newFakeCtx(node types.Node) *fakeCtx {
	return &fakeCtx{
		ctx:    context.Background(),
		node:   node,
		inputs: map[string]envelope.Envelope{},
	}
}

func (f *fakeCtx) Context() context.Context                  { return f.ctx }
func (f *fakeCtx) ExecutionID() string                       { return f.executionID }
func (f *fakeCtx) Node() types.Node                           { return f.node }
func (f *fakeCtx) Variables() map[string]interface{}          { return f.variables }
func (f *fakeCtx) Config() config.Config                      { return f.cfg }
func (f *fakeCtx) Inputs() map[string]envelope.Envelope       { return f.inputs }
func (f *fakeCtx) Conversations() *conversation.Store         { return f.conversations }
func (f *fakeCtx) Ports() PortBundle                          { return f.ports }

func (f *fakeCtx) ResolveDiagram(ctx context.Context, name string) (types.Diagram, error) {
	if f.resolveDiagram == nil {
		return types.Diagram{}, nil
	}
	return f.resolveDiagram(ctx, name)
}

func (f *fakeCtx) RunSubDiagram(ctx context.Context, d types.Diagram, vars map[string]interface{}) (envelope.Envelope, error) {
	if f.runSubDiagram == nil {
		return envelope.Envelope{}, nil
	}
	return f.runSubDiagram(ctx, d, vars)
}

// fakeLLM is a scripted LLMServicePort: it returns Reply once per call,
// recording every request it saw.
type fakeLLM struct {
	Reply    ports.LLMResponse
	Err      error
	Requests []ports.LLMRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req ports.LLMRequest) (ports.LLMResponse, error) {
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return ports.LLMResponse{}, f.Err
	}
	return f.Reply, nil
}

// fakeSandbox is a scripted SandboxPort.
type fakeSandbox struct {
	Result ports.SandboxResult
	Err    error
}

func (f *fakeSandbox) Run(ctx context.Context, language, code string, input interface{}, timeout time.Duration) (ports.SandboxResult, error) {
	if f.Err != nil {
		return ports.SandboxResult{}, f.Err
	}
	return f.Result, nil
}

// fakeFiles is an in-memory FileServicePort.
type fakeFiles struct {
	files map[string][]byte
}

func newFakeFiles() *fakeFiles { return &fakeFiles{files: map[string][]byte{}} }

func (f *fakeFiles) Read(ctx context.Context, path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errNotFound(path)
	}
	return data, nil
}

func (f *fakeFiles) Write(ctx context.Context, path string, data []byte) error {
	f.files[path] = append([]byte(nil), data...)
	return nil
}

func (f *fakeFiles) Append(ctx context.Context, path string, data []byte) error {
	f.files[path] = append(f.files[path], data...)
	return nil
}

func (f *fakeFiles) Glob(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	for k := range f.files {
		out = append(out, k)
	}
	return out, nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }
func errNotFound(path string) error { return notFoundErr(path) }

// fakeHTTP is a scripted HttpCallerPort.
type fakeHTTP struct {
	Status int
	Body   []byte
	Err    error

	LastMethod string
	LastURL    string
	LastBody   []byte
}

func (f *fakeHTTP) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, []byte, error) {
	f.LastMethod, f.LastURL, f.LastBody = method, url, body
	if f.Err != nil {
		return 0, nil, f.Err
	}
	return f.Status, f.Body, nil
}

// fakeInteractive is a scripted InteractiveHandlerPort.
type fakeInteractive struct {
	Reply string
	Err   error

	LastExecutionID string
	LastPromptText  string
	LastTimeout     time.Duration
}

func (f *fakeInteractive) Prompt(ctx context.Context, executionID, promptText string, timeout time.Duration) (string, error) {
	f.LastExecutionID, f.LastPromptText, f.LastTimeout = executionID, promptText, timeout
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

// fakeApiKeys is a static ApiKeyPort.
type fakeApiKeys struct {
	keys map[string]string
}

func (f *fakeApiKeys) Get(ctx context.Context, keyID string) (string, error) {
	v, ok := f.keys[keyID]
	if !ok {
		return "", errNotFound(keyID)
	}
	return v, nil
}

// fakeIntegrated is a scripted IntegratedApiPort.
type fakeIntegrated struct {
	Result envelope.Envelope
	Err    error

	LastProvider  types.IntegratedProvider
	LastOperation string
	LastParams    map[string]string
	LastAPIKey    string
}

func (f *fakeIntegrated) Invoke(ctx context.Context, provider types.IntegratedProvider, operation string, params map[string]string, apiKey string) (envelope.Envelope, error) {
	f.LastProvider, f.LastOperation, f.LastParams, f.LastAPIKey = provider, operation, params, apiKey
	if f.Err != nil {
		return envelope.Envelope{}, f.Err
	}
	return f.Result, nil
}
