package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/dipeo/execengine/pkg/ports"
)

// Router dispatches an LLM request to one of several backing providers
// keyed by a model-name prefix (e.g. "gpt-" -> OpenAI, "claude-" ->
// Anthropic), so a diagram can mix person definitions backed by different
// providers without the handler layer knowing which one.
type Router struct {
	routes   map[string]ports.LLMServicePort
	fallback ports.LLMServicePort
}

// NewRouter builds a Router with no routes; use WithRoute to register
// provider prefixes and WithFallback to set the default.
func NewRouter() *Router {
	return &Router{routes: make(map[string]ports.LLMServicePort)}
}

// WithRoute registers a provider for model names starting with prefix.
func (r *Router) WithRoute(prefix string, svc ports.LLMServicePort) *Router {
	r.routes[strings.ToLower(prefix)] = svc
	return r
}

// WithFallback sets the provider used when no prefix matches.
func (r *Router) WithFallback(svc ports.LLMServicePort) *Router {
	r.fallback = svc
	return r
}

// Complete selects a backing provider by req.Model's prefix and delegates
// to it.
func (r *Router) Complete(ctx context.Context, req ports.LLMRequest) (ports.LLMResponse, error) {
	model := strings.ToLower(req.Model)
	for prefix, svc := range r.routes {
		if prefix != "" && strings.HasPrefix(model, prefix) {
			return svc.Complete(ctx, req)
		}
	}
	if r.fallback != nil {
		return r.fallback.Complete(ctx, req)
	}
	return ports.LLMResponse{}, fmt.Errorf("llm/router: no provider for model %q", req.Model)
}
