package handlers

import (
	"fmt"
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// UserResponseHandler surfaces a prompt to a human through the
// InteractiveHandlerPort and blocks for their reply, bounded by
// timeout_seconds.
type UserResponseHandler struct{}

func (h *UserResponseHandler) Kind() types.NodeKind { return types.KindUserResponse }

func (h *UserResponseHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.UserResponse
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("user_response")
	}

	interactive := ctx.Ports().Interactive
	if interactive == nil {
		return envelope.Envelope{}, fmt.Errorf("user_response %s: no InteractiveHandlerPort configured", node.ID)
	}

	timeout := time.Duration(p.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	reply, err := interactive.Prompt(ctx.Context(), ctx.ExecutionID(), p.PromptText, timeout)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("user_response %s: %w", node.ID, err)
	}
	return envelope.NewText(reply), nil
}

func (h *UserResponseHandler) Validate(node types.Node) error {
	return nil
}
