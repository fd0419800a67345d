package handlers

import (
	"fmt"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// SubDiagramHandler loads a named diagram and runs it as a child
// execution, forwarding the current inputs as the child's Start
// variables. The engine implements RunSubDiagram so parent/child
// execution ID linkage and scoped observer propagation stay engine
// concerns; this handler only orchestrates the call.
type SubDiagramHandler struct{}

func (h *SubDiagramHandler) Kind() types.NodeKind { return types.KindSubDiagram }

func (h *SubDiagramHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.SubDiagram
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("sub_diagram")
	}

	diagram, err := ctx.ResolveDiagram(ctx.Context(), p.DiagramName)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("sub_diagram %s: resolve %q: %w", node.ID, p.DiagramName, err)
	}

	if !p.Batch {
		vars := inputsAsObject(ctx.Inputs())
		return ctx.RunSubDiagram(ctx.Context(), diagram, vars)
	}

	batchInput, ok := ctx.Inputs()[p.BatchInput]
	if !ok {
		return envelope.Envelope{}, fmt.Errorf("sub_diagram %s: batch_input_key %q not found among inputs", node.ID, p.BatchInput)
	}
	items, err := batchInput.Object()
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("sub_diagram %s: batch input is not a list: %w", node.ID, err)
	}
	list, ok := items.([]interface{})
	if !ok {
		return envelope.Envelope{}, fmt.Errorf("sub_diagram %s: batch input %q did not resolve to an array", node.ID, p.BatchInput)
	}

	results := make([]interface{}, len(list))
	for i, item := range list {
		vars := inputsAsObject(ctx.Inputs())
		vars[p.BatchInput] = item
		childResult, err := ctx.RunSubDiagram(ctx.Context(), diagram, vars)
		if err != nil {
			return envelope.Envelope{}, fmt.Errorf("sub_diagram %s: batch item %d: %w", node.ID, i, err)
		}
		v, err := childResult.Object()
		if err != nil {
			v, _ = childResult.Text()
		}
		results[i] = v
	}
	return envelope.NewObject(results), nil
}

func (h *SubDiagramHandler) Validate(node types.Node) error {
	return nil
}
