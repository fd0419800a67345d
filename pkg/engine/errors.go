package engine

import "errors"

var (
	// ErrDeadlock is returned when the scheduler reports nothing ready,
	// nothing in flight, and at least one node is still waiting on
	// incoming edges that will never receive a token.
	ErrDeadlock = errors.New("engine: execution deadlocked: unreachable nodes remain with unsatisfied inputs")

	// ErrSubDiagramNotFound is returned when a SubDiagram node names a
	// diagram the configured repository cannot resolve.
	ErrSubDiagramNotFound = errors.New("engine: sub-diagram not found")

	// ErrNoDiagramRepository is returned when a SubDiagram node needs to
	// resolve a nested diagram but the engine was built without one.
	ErrNoDiagramRepository = errors.New("engine: no diagram repository configured")
)

// NodeError wraps a handler failure with the node that produced it.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return "engine: node " + e.NodeID + ": " + e.Err.Error()
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
