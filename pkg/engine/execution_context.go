package engine

import (
	"context"

	"github.com/dipeo/execengine/pkg/compiler"
	"github.com/dipeo/execengine/pkg/config"
	"github.com/dipeo/execengine/pkg/conversation"
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/types"
)

// executionContext is the handlers.ExecutionContext implementation one
// node's handler invocation runs against. A fresh value is built per
// node dispatch; it never outlives that call.
type executionContext struct {
	ctx           context.Context
	executionID   string
	node          types.Node
	variables     map[string]interface{}
	cfg           config.Config
	inputs        map[string]envelope.Envelope
	conversations *conversation.Store
	ports         handlers.PortBundle
	engine        *Engine
}

func (c *executionContext) Context() context.Context             { return c.ctx }
func (c *executionContext) ExecutionID() string                  { return c.executionID }
func (c *executionContext) Node() types.Node                     { return c.node }
func (c *executionContext) Variables() map[string]interface{}    { return c.variables }
func (c *executionContext) Config() config.Config                { return c.cfg }
func (c *executionContext) Inputs() map[string]envelope.Envelope { return c.inputs }
func (c *executionContext) Conversations() *conversation.Store   { return c.conversations }
func (c *executionContext) Ports() handlers.PortBundle           { return c.ports }

// ResolveDiagram loads a nested diagram by name via the configured
// repository, for SubDiagram nodes.
func (c *executionContext) ResolveDiagram(ctx context.Context, name string) (types.Diagram, error) {
	if c.engine.diagramRepo == nil {
		return types.Diagram{}, ErrNoDiagramRepository
	}
	return c.engine.diagramRepo.Load(ctx, name)
}

// RunSubDiagram compiles and runs a nested diagram to its terminal state
// on a child Engine sharing this engine's registry, ports, conversation
// store, and state store, and returns an End node's envelope (or, when
// no End node recorded an output, an arbitrary recorded output).
func (c *executionContext) RunSubDiagram(ctx context.Context, d types.Diagram, vars map[string]interface{}) (envelope.Envelope, error) {
	executable, err := compiler.Compile(d)
	if err != nil {
		return envelope.Envelope{}, err
	}

	child := New(executable, c.engine.registry,
		WithConfig(c.engine.cfg),
		WithPorts(c.engine.portBundle),
		WithConversations(c.engine.conversations),
		WithLogger(c.engine.log),
		WithEventBus(c.engine.bus),
		WithStateStore(c.engine.store),
		WithDiagramRepository(c.engine.diagramRepo),
	)

	result, err := child.Run(ctx, types.Options{Variables: vars})
	if err != nil {
		return envelope.Envelope{}, err
	}
	return terminalEnvelope(executable, result.Outputs), nil
}

// terminalEnvelope picks the envelope a sub-diagram's caller should see:
// the End node's output when the diagram has one, otherwise an
// arbitrary recorded output as a last resort.
func terminalEnvelope(d *compiler.ExecutableDiagram, outputs map[types.NodeID]envelope.Envelope) envelope.Envelope {
	for id, n := range d.Nodes {
		if n.Kind == types.KindEnd {
			if out, ok := outputs[id]; ok {
				return out
			}
		}
	}
	for _, out := range outputs {
		return out
	}
	return envelope.Envelope{}
}
