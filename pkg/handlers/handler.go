// Package handlers provides the Strategy Pattern implementation for node
// execution: one Handler per NodeKind, registered in a Registry the engine
// dispatches through. This replaces a large switch statement with a
// registry of handler strategies keyed by node kind.
package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/dipeo/execengine/pkg/config"
	"github.com/dipeo/execengine/pkg/conversation"
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/ports"
	"github.com/dipeo/execengine/pkg/types"
)

// ExecutionContext gives a Handler everything it needs to run one node,
// without the handler importing the engine package directly. This breaks
// the circular dependency between handlers and engine.
type ExecutionContext interface {
	Context() context.Context
	ExecutionID() string
	Node() types.Node
	Variables() map[string]interface{}
	Config() config.Config

	// Inputs returns the resolved input envelopes keyed by target input
	// key, as produced by the Input Resolver for this node's in-edges.
	Inputs() map[string]envelope.Envelope

	// Conversations is the shared conversation/memory store for PersonJob
	// handlers; nil for executions that don't wire LLM ports.
	Conversations() *conversation.Store

	// Ports exposes the external collaborators a handler may call.
	Ports() PortBundle

	// ResolveDiagram loads a nested diagram by name, for SubDiagram nodes.
	ResolveDiagram(ctx context.Context, name string) (types.Diagram, error)

	// RunSubDiagram executes a nested diagram synchronously and returns
	// its terminal envelope. Implemented by the engine to avoid a direct
	// handlers -> engine import.
	RunSubDiagram(ctx context.Context, d types.Diagram, vars map[string]interface{}) (envelope.Envelope, error)
}

// PortBundle groups the optional external collaborators available to
// handlers. Fields are nil when the execution wasn't configured with that
// collaborator; handlers must check before calling.
type PortBundle struct {
	LLM         ports.LLMServicePort
	Sandbox     ports.SandboxPort
	Files       ports.FileServicePort
	Interactive ports.InteractiveHandlerPort
	ApiKeys     ports.ApiKeyPort
	Http        ports.HttpCallerPort
	Integrated  ports.IntegratedApiPort
}

// Handler executes one node kind and produces its output envelope.
type Handler interface {
	// Execute runs the node against its resolved inputs.
	Execute(ctx ExecutionContext) (envelope.Envelope, error)

	// Kind returns the node kind this handler handles.
	Kind() types.NodeKind

	// Validate checks the node's parameter record beyond what
	// types.Node.Validate already enforces (e.g. cross-field checks that
	// need registry-wide knowledge, such as a referenced node existing).
	Validate(node types.Node) error
}

// Registry manages handler registration and dispatch, one handler per
// NodeKind, with thread-safe lookup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[types.NodeKind]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[types.NodeKind]Handler)}
}

// Register adds a handler to the registry. Returns an error if a handler
// for this kind is already registered.
func (r *Registry) Register(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := h.Kind()
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("handler already registered for kind: %s", kind)
	}
	r.handlers[kind] = h
	return nil
}

// MustRegister registers a handler and panics on error.
func (r *Registry) MustRegister(h Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Execute dispatches to the handler registered for ctx.Node().Kind.
func (r *Registry) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	kind := ctx.Node().Kind
	r.mu.RLock()
	h, exists := r.handlers[kind]
	r.mu.RUnlock()
	if !exists {
		return envelope.Envelope{}, types.ErrUnknownNodeKind(kind)
	}
	return h.Execute(ctx)
}

// Validate validates a node using its registered handler.
func (r *Registry) Validate(node types.Node) error {
	r.mu.RLock()
	h, exists := r.handlers[node.Kind]
	r.mu.RUnlock()
	if !exists {
		return types.ErrUnknownNodeKind(node.Kind)
	}
	if err := node.Validate(); err != nil {
		return err
	}
	return h.Validate(node)
}

// Get returns the handler registered for kind, or nil if none.
func (r *Registry) Get(kind types.NodeKind) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[kind]
}

// RegisteredKinds lists every kind with a registered handler.
func (r *Registry) RegisteredKinds() []types.NodeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]types.NodeKind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}

// NewDefaultRegistry builds a Registry with every built-in handler
// registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(&StartHandler{})
	r.MustRegister(&EndHandler{})
	r.MustRegister(&PersonJobHandler{})
	r.MustRegister(&CodeJobHandler{})
	r.MustRegister(&ApiJobHandler{})
	r.MustRegister(&ConditionHandler{})
	r.MustRegister(&DbHandler{})
	r.MustRegister(&TemplateJobHandler{})
	r.MustRegister(&SubDiagramHandler{})
	r.MustRegister(&UserResponseHandler{})
	r.MustRegister(&HookHandler{})
	r.MustRegister(&JsonSchemaValidatorHandler{})
	r.MustRegister(&TypescriptAstHandler{})
	r.MustRegister(&IntegratedApiHandler{})
	return r
}
