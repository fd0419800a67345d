package compiler

import (
	"errors"
	"fmt"

	"github.com/dipeo/execengine/pkg/types"
)

var (
	ErrEmptyDiagram  = errors.New("compiler: diagram has no nodes")
	ErrDuplicateNode = errors.New("compiler: duplicate node id")
)

// CompileError is a structural failure that aborts the whole compile. It
// carries the offending node/edge id so a caller can point an author at
// the exact problem.
type CompileError struct {
	NodeID types.NodeID
	EdgeID types.EdgeID
	Reason string
}

func (e *CompileError) Error() string {
	switch {
	case e.EdgeID != "":
		return fmt.Sprintf("compiler: edge %s: %s", e.EdgeID, e.Reason)
	case e.NodeID != "":
		return fmt.Sprintf("compiler: node %s: %s", e.NodeID, e.Reason)
	default:
		return fmt.Sprintf("compiler: %s", e.Reason)
	}
}

func nodeErr(id types.NodeID, reason string) error {
	return &CompileError{NodeID: id, Reason: reason}
}

func edgeErr(id types.EdgeID, reason string) error {
	return &CompileError{EdgeID: id, Reason: reason}
}
