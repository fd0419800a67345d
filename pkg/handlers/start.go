package handlers

import (
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// StartHandler seeds a diagram run: the caller-supplied variables are
// emitted verbatim as an object envelope on the node's default output.
type StartHandler struct{}

func (h *StartHandler) Kind() types.NodeKind { return types.KindStart }

func (h *StartHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	vars := ctx.Variables()
	out := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return envelope.NewObject(out), nil
}

func (h *StartHandler) Validate(node types.Node) error {
	return nil
}
