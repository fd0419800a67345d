package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dipeo/execengine/pkg/graph"
	"github.com/dipeo/execengine/pkg/types"
)

// ExecutableDiagram is the validated, immutable form a compiled diagram
// takes. Runtime packages (token, scheduler, engine, inputs) only ever
// see this shape, never the raw types.Diagram.
type ExecutableDiagram struct {
	Name       string
	Nodes      map[types.NodeID]types.Node
	Edges      []types.Edge
	Graph      *graph.Graph
	OrderHint  []types.NodeID
	OrderIndex map[types.NodeID]int
	Warnings   []string
}

// Node looks up a node by id.
func (d *ExecutableDiagram) Node(id types.NodeID) (types.Node, bool) {
	n, ok := d.Nodes[id]
	return n, ok
}

// InputEdges returns the edges targeting id, in declaration order.
func (d *ExecutableDiagram) InputEdges(id types.NodeID) []types.Edge {
	return d.Graph.InputEdges(id)
}

// OutputEdges returns the edges sourced from id, in declaration order.
func (d *ExecutableDiagram) OutputEdges(id types.NodeID) []types.Edge {
	return d.Graph.OutputEdges(id)
}

// Compile validates an author-facing diagram and produces its executable
// form. Structural errors (unknown node references in an edge, duplicate
// node ids, a node failing its own kind's Validate, a handle-encoded edge
// id whose source or target handle has the wrong direction) abort the
// compile with a *CompileError. Everything else — cycles, unreachable
// nodes, edges whose handle id doesn't decode cleanly or names other
// nodes than the edge's fields — is recorded as a warning on the result
// instead of failing the compile.
func Compile(d types.Diagram) (*ExecutableDiagram, error) {
	if len(d.Nodes) == 0 {
		return nil, ErrEmptyDiagram
	}

	nodes := make(map[types.NodeID]types.Node, len(d.Nodes))
	for _, n := range d.Nodes {
		if _, exists := nodes[n.ID]; exists {
			return nil, nodeErr(n.ID, fmt.Sprintf("%v: duplicate node id", ErrDuplicateNode))
		}
		if n.ID == "" {
			return nil, nodeErr(n.ID, "node id must not be empty")
		}
		if err := n.Validate(); err != nil {
			return nil, nodeErr(n.ID, err.Error())
		}
		nodes[n.ID] = n
	}

	var warnings []string
	edges := make([]types.Edge, len(d.Edges))
	for i, e := range d.Edges {
		if _, ok := nodes[e.SourceNodeID]; !ok {
			return nil, edgeErr(e.ID, fmt.Sprintf("source node %q does not exist", e.SourceNodeID))
		}
		if _, ok := nodes[e.TargetNodeID]; !ok {
			return nil, edgeErr(e.ID, fmt.Sprintf("target node %q does not exist", e.TargetNodeID))
		}
		if e.ContentType == "" {
			e.ContentType = types.ContentRawText
		}
		w, err := validateHandleConsistency(e)
		if err != nil {
			return nil, edgeErr(e.ID, err.Error())
		}
		if w != "" {
			warnings = append(warnings, w)
		}
		edges[i] = e
	}

	nodeList := make([]types.Node, 0, len(nodes))
	for _, id := range sortedNodeIDs(d.Nodes) {
		nodeList = append(nodeList, nodes[id])
	}

	g := graph.New(nodeList, edges)
	if g.HasCycle() {
		warnings = append(warnings, "diagram contains at least one cycle; scheduling relies on token/iteration bookkeeping, not acyclicity")
	}

	orderHint := g.TopologicalHint()
	orderIndex := make(map[types.NodeID]int, len(orderHint))
	for i, id := range orderHint {
		orderIndex[id] = i
	}

	warnings = append(warnings, unreachableWarnings(nodeList, edges)...)

	return &ExecutableDiagram{
		Name:       d.Name,
		Nodes:      nodes,
		Edges:      edges,
		Graph:      g,
		OrderHint:  orderHint,
		OrderIndex: orderIndex,
		Warnings:   warnings,
	}, nil
}

// sortedNodeIDs preserves the authored node order (Diagram.Nodes is a
// list, not a map) so the topological hint's discovery-order tie-break
// is deterministic across recompiles of the same diagram.
func sortedNodeIDs(nodes []types.Node) []types.NodeID {
	ids := make([]types.NodeID, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// validateHandleConsistency opportunistically decodes an edge id shaped
// as "<source-handle>-><target-handle>" (each handle itself
// "node_id:handle_label:direction") and cross-checks it against the
// edge's already-structured fields. Diagrams that assign opaque ids
// (most do) skip this check entirely; it only fires for diagrams that
// actually encode handles in the id. A decoded handle in the wrong
// direction is returned as an error; an id that doesn't decode, or whose
// handle node ids disagree with the edge, is returned as a warning.
func validateHandleConsistency(e types.Edge) (string, error) {
	if !strings.Contains(string(e.ID), "->") {
		return "", nil
	}
	parts := strings.SplitN(string(e.ID), "->", 2)
	if len(parts) != 2 {
		return "", nil
	}
	src, err := ParseHandle(parts[0])
	if err != nil {
		return fmt.Sprintf("edge %s: source handle: %v", e.ID, err), nil
	}
	tgt, err := ParseHandle(parts[1])
	if err != nil {
		return fmt.Sprintf("edge %s: target handle: %v", e.ID, err), nil
	}
	if src.Direction != DirectionSource {
		return "", fmt.Errorf("first handle has direction %q, want source", src.Direction)
	}
	if tgt.Direction != DirectionTarget {
		return "", fmt.Errorf("second handle has direction %q, want target", tgt.Direction)
	}
	if src.NodeID != e.SourceNodeID || tgt.NodeID != e.TargetNodeID {
		return fmt.Sprintf("edge %s: handle node ids disagree with edge's source/target fields", e.ID), nil
	}
	return "", nil
}

// unreachableWarnings flags nodes with no incoming edges that aren't
// Start nodes — likely an authoring mistake, but not fatal since an
// entry node with zero in-edges is also how Start itself is reached.
func unreachableWarnings(nodes []types.Node, edges []types.Edge) []string {
	hasIncoming := make(map[types.NodeID]bool, len(nodes))
	for _, e := range edges {
		hasIncoming[e.TargetNodeID] = true
	}
	var warnings []string
	for _, n := range nodes {
		if n.Kind == types.KindStart || hasIncoming[n.ID] {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("node %s (%s) has no incoming edges and is not a Start node", n.ID, n.Kind))
	}
	sort.Strings(warnings)
	return warnings
}
