package handlers

import (
	"fmt"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// IntegratedApiHandler dispatches a named operation against a built-in
// provider template through the IntegratedApiPort, resolving the
// operation's API key via ApiKeyPort first.
type IntegratedApiHandler struct{}

func (h *IntegratedApiHandler) Kind() types.NodeKind { return types.KindIntegratedApi }

func (h *IntegratedApiHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.IntegratedApi
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("integrated_api")
	}

	integrated := ctx.Ports().Integrated
	if integrated == nil {
		return envelope.Envelope{}, fmt.Errorf("integrated_api %s: no IntegratedApiPort configured", node.ID)
	}

	var apiKey string
	if p.ApiKeyID != "" {
		keys := ctx.Ports().ApiKeys
		if keys == nil {
			return envelope.Envelope{}, fmt.Errorf("integrated_api %s: no ApiKeyPort configured for api_key_id %q", node.ID, p.ApiKeyID)
		}
		resolved, err := keys.Get(ctx.Context(), p.ApiKeyID)
		if err != nil {
			return envelope.Envelope{}, fmt.Errorf("integrated_api %s: resolve api key: %w", node.ID, err)
		}
		apiKey = resolved
	}

	params := make(map[string]string, len(p.Params))
	for k, v := range p.Params {
		params[k] = v
	}
	for key, env := range ctx.Inputs() {
		if text, err := env.Text(); err == nil {
			params[key] = text
		}
	}

	result, err := integrated.Invoke(ctx.Context(), p.Provider, p.Operation, params, apiKey)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("integrated_api %s: %w", node.ID, err)
	}
	return result, nil
}

func (h *IntegratedApiHandler) Validate(node types.Node) error {
	return nil
}
