package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// DbHandler reads, writes, or appends to a file through the execution's
// FileServicePort, optionally (de)serializing JSON.
type DbHandler struct{}

func (h *DbHandler) Kind() types.NodeKind { return types.KindDb }

func (h *DbHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.Db
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("db")
	}

	files := ctx.Ports().Files
	if files == nil {
		return envelope.Envelope{}, fmt.Errorf("db %s: no FileServicePort configured", node.ID)
	}

	switch p.Operation {
	case types.DbRead:
		data, err := files.Read(ctx.Context(), p.File)
		if err != nil {
			return envelope.Envelope{}, fmt.Errorf("db %s: read %s: %w", node.ID, p.File, err)
		}
		if p.SerializeJSON {
			var v interface{}
			if err := json.Unmarshal(data, &v); err != nil {
				return envelope.Envelope{}, fmt.Errorf("db %s: parse %s as JSON: %w", node.ID, p.File, err)
			}
			return envelope.NewObject(v), nil
		}
		return envelope.NewText(string(data)), nil

	case types.DbWrite, types.DbAppend:
		content := p.Content
		if content == "" {
			content = combineInputs(ctx.Inputs())
		}
		data := []byte(content)
		if p.SerializeJSON {
			obj := inputsAsObject(ctx.Inputs())
			encoded, err := json.Marshal(obj)
			if err != nil {
				return envelope.Envelope{}, fmt.Errorf("db %s: encode JSON: %w", node.ID, err)
			}
			data = encoded
		}
		var err error
		if p.Operation == types.DbWrite {
			err = files.Write(ctx.Context(), p.File, data)
		} else {
			err = files.Append(ctx.Context(), p.File, data)
		}
		if err != nil {
			return envelope.Envelope{}, fmt.Errorf("db %s: %s %s: %w", node.ID, p.Operation, p.File, err)
		}
		return envelope.NewText(p.File), nil

	default:
		return envelope.Envelope{}, fmt.Errorf("db %s: unsupported operation %q", node.ID, p.Operation)
	}
}

func (h *DbHandler) Validate(node types.Node) error {
	return nil
}
