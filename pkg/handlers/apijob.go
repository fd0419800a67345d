package handlers

import (
	"fmt"
	"strings"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// ApiJobHandler issues an outbound HTTP request, interpolating inputs
// into the configured URL/body, and wraps the response as an envelope
// with both a text and object representation when the response is JSON.
type ApiJobHandler struct{}

func (h *ApiJobHandler) Kind() types.NodeKind { return types.KindApiJob }

func (h *ApiJobHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.ApiJob
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("api_job")
	}

	caller := ctx.Ports().Http
	if caller == nil {
		return envelope.Envelope{}, fmt.Errorf("api_job %s: no HttpCallerPort configured", node.ID)
	}

	url := p.URL
	body := p.Body
	for key, env := range ctx.Inputs() {
		text, err := env.Text()
		if err != nil {
			continue
		}
		url = strings.ReplaceAll(url, "{{"+key+"}}", text)
		body = strings.ReplaceAll(body, "{{"+key+"}}", text)
	}

	status, respBody, err := caller.Do(ctx.Context(), strings.ToUpper(p.Method), url, p.Headers, []byte(body))
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("api_job %s: %w", node.ID, err)
	}
	if status >= 400 {
		return envelope.Envelope{}, fmt.Errorf("api_job %s: http %d: %s", node.ID, status, string(respBody))
	}

	return envelope.NewText(string(respBody)), nil
}

func (h *ApiJobHandler) Validate(node types.Node) error {
	return nil
}
