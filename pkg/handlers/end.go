package handlers

import (
	"fmt"
	"os"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// EndHandler collects whatever arrived on its inputs as the diagram's
// terminal output, optionally persisting it to output_path.
type EndHandler struct{}

func (h *EndHandler) Kind() types.NodeKind { return types.KindEnd }

func (h *EndHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	inputs := ctx.Inputs()

	var result envelope.Envelope
	switch len(inputs) {
	case 0:
		result = envelope.New(nil)
	case 1:
		for _, env := range inputs {
			result = env
		}
	default:
		merged := make(map[string]interface{}, len(inputs))
		for key, env := range inputs {
			v, err := env.Object()
			if err != nil {
				v, _ = env.Text()
			}
			merged[key] = v
		}
		result = envelope.NewObject(merged)
	}

	node := ctx.Node()
	if node.End != nil && node.End.OutputPath != "" {
		text, err := result.Text()
		if err != nil {
			return envelope.Envelope{}, fmt.Errorf("end: serialize output for %s: %w", node.End.OutputPath, err)
		}
		if err := os.WriteFile(node.End.OutputPath, []byte(text), 0o644); err != nil {
			return envelope.Envelope{}, fmt.Errorf("end: write %s: %w", node.End.OutputPath, err)
		}
	}

	return result, nil
}

func (h *EndHandler) Validate(node types.Node) error {
	return nil
}
