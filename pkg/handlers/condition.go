package handlers

import (
	"fmt"
	"strings"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/expression"
	"github.com/dipeo/execengine/pkg/ports"
	"github.com/dipeo/execengine/pkg/types"
)

// ConditionHandler evaluates one of three branch strategies and emits its
// passthrough input on exactly one of the "true"/"false" output handles;
// the scheduler consults Branch (attached via envelope Meta labels) to
// decide which out-edges actually produce tokens.
type ConditionHandler struct{}

func (h *ConditionHandler) Kind() types.NodeKind { return types.KindCondition }

func (h *ConditionHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.Condition
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("condition")
	}

	input := combineInputs(ctx.Inputs())

	var branch bool
	var err error
	switch p.ConditionKind {
	case types.ConditionExpression:
		exprCtx := &expression.Context{
			Inputs:    ctx.Inputs(),
			Variables: ctx.Variables(),
		}
		branch, err = expression.Evaluate(p.Expression, input, exprCtx)
	case types.ConditionLLMDecision:
		branch, err = h.evaluateLLMDecision(ctx, p, input)
	case types.ConditionDetectMaxIterations:
		branch, err = h.evaluateMaxIterations(ctx, p)
	default:
		return envelope.Envelope{}, fmt.Errorf("condition %s: unsupported condition_type %q", node.ID, p.ConditionKind)
	}
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("condition %s: %w", node.ID, err)
	}

	branchLabel := "false"
	if branch {
		branchLabel = "true"
	}

	var result envelope.Envelope
	if len(ctx.Inputs()) == 1 {
		for _, env := range ctx.Inputs() {
			result = env
		}
	} else {
		result = envelope.NewText(input)
	}
	return result.WithMeta(envelope.Meta{
		ProducedByNode: string(node.ID),
		Labels:         map[string]string{"branch": branchLabel},
	}), nil
}

func (h *ConditionHandler) evaluateLLMDecision(ctx ExecutionContext, p *types.ConditionParams, input string) (bool, error) {
	llm := ctx.Ports().LLM
	if llm == nil {
		return false, fmt.Errorf("no LLMServicePort configured for llm_decision")
	}
	question := p.LLMQuestion
	if question == "" {
		question = "Answer strictly yes or no."
	}
	resp, err := llm.Complete(ctx.Context(), ports.LLMRequest{
		Messages: []ports.LLMMessage{
			{Role: "user", Content: fmt.Sprintf("%s\n\nInput:\n%s\n\nRespond with exactly one word: yes or no.", question, input)},
		},
		MaxTokens: 8,
	})
	if err != nil {
		return false, fmt.Errorf("llm_decision call failed: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	return strings.HasPrefix(answer, "y"), nil
}

func (h *ConditionHandler) evaluateMaxIterations(ctx ExecutionContext, p *types.ConditionParams) (bool, error) {
	if p.TargetNodeID == "" {
		return false, types.ErrMissingRequiredField("target_node_id")
	}
	// The scheduler tracks per-node iteration counts; handlers don't see
	// that bookkeeping directly, so this condition kind is resolved by
	// the engine before dispatch and passed through Variables under a
	// reserved key.
	v, ok := ctx.Variables()["__max_iterations_reached:"+p.TargetNodeID]
	if !ok {
		return false, nil
	}
	reached, _ := v.(bool)
	return reached, nil
}

func (h *ConditionHandler) Validate(node types.Node) error {
	return nil
}
