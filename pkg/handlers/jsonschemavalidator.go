package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// JsonSchemaValidatorHandler validates its input against a JSON schema.
// In strict mode a failing validation is an error; otherwise the handler
// returns a result object carrying valid/errors alongside the data.
type JsonSchemaValidatorHandler struct{}

func (h *JsonSchemaValidatorHandler) Kind() types.NodeKind { return types.KindJsonSchemaValidator }

func (h *JsonSchemaValidatorHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.JsonSchemaValidator
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("json_schema_validator")
	}

	input := inputsAsObject(ctx.Inputs())
	if len(input) == 0 {
		return envelope.Envelope{}, fmt.Errorf("json_schema_validator %s: no input provided for validation", node.ID)
	}

	schemaBytes, err := json.Marshal(p.Schema)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("json_schema_validator %s: invalid schema: %w", node.ID, err)
	}
	inputBytes, err := json.Marshal(input)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("json_schema_validator %s: serialize input: %w", node.ID, err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(inputBytes))
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("json_schema_validator %s: validation failed: %w", node.ID, err)
	}

	if result.Valid() {
		return envelope.NewObject(map[string]interface{}{
			"valid": true,
			"data":  input,
		}), nil
	}

	errs := make([]map[string]interface{}, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, map[string]interface{}{
			"field":       e.Field(),
			"type":        e.Type(),
			"description": e.Description(),
			"value":       e.Value(),
		})
	}

	if p.Strict {
		return envelope.Envelope{}, fmt.Errorf("json_schema_validator %s: validation failed: %d errors", node.ID, len(errs))
	}

	return envelope.NewObject(map[string]interface{}{
		"valid":  false,
		"data":   input,
		"errors": errs,
	}), nil
}

func (h *JsonSchemaValidatorHandler) Validate(node types.Node) error {
	if _, ok := node.JsonSchemaValidator.Schema.(map[string]interface{}); !ok {
		return fmt.Errorf("schema must be an object")
	}
	return nil
}
