package handlers

import (
	"fmt"
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// CodeJobHandler delegates arbitrary code evaluation to a SandboxPort
// collaborator. No interpreter ships in this module: Run must be
// supplied by the caller (a real sandbox in production, a fake in tests).
type CodeJobHandler struct {
	// DefaultTimeout bounds sandbox execution; zero or negative means 30
	// seconds.
	DefaultTimeout time.Duration
}

func (h *CodeJobHandler) Kind() types.NodeKind { return types.KindCodeJob }

func (h *CodeJobHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.CodeJob
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("code_job")
	}

	sandbox := ctx.Ports().Sandbox
	if sandbox == nil {
		return envelope.Envelope{}, fmt.Errorf("code_job %s: no SandboxPort configured", node.ID)
	}

	input := inputsAsObject(ctx.Inputs())
	timeout := h.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	result, err := sandbox.Run(ctx.Context(), p.Language, p.Code, input, timeout)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("code_job %s: %w", node.ID, err)
	}

	return envelope.NewObject(result.Output), nil
}

func (h *CodeJobHandler) Validate(node types.Node) error {
	return nil
}

func inputsAsObject(inputs map[string]envelope.Envelope) map[string]interface{} {
	out := make(map[string]interface{}, len(inputs))
	for key, env := range inputs {
		v, err := env.Object()
		if err != nil {
			v, _ = env.Text()
		}
		out[key] = v
	}
	return out
}
