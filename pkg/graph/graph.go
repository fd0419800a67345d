// Package graph provides DAG-oriented operations over a compiled diagram:
// adjacency lookups and a topological hint used to seed scheduler
// tie-breaking. It does not gate runtime scheduling — the token manager
// and scheduler alone decide node readiness — so it tolerates cycles
// instead of rejecting them.
package graph

import (
	"sort"

	"github.com/dipeo/execengine/pkg/types"
)

// Graph represents a diagram's nodes and edges for ordering/adjacency queries.
type Graph struct {
	nodes []types.Node
	edges []types.Edge
}

// New creates a new Graph from nodes and edges.
func New(nodes []types.Node, edges []types.Edge) *Graph {
	return &Graph{nodes: nodes, edges: edges}
}

// kindPriority orders cycle-stranded nodes: Start first, then PersonJob,
// then everything else in discovery order.
func kindPriority(k types.NodeKind) int {
	switch k {
	case types.KindStart:
		return 0
	case types.KindPersonJob:
		return 1
	default:
		return 2
	}
}

// TopologicalHint computes an execution-order hint using Kahn's algorithm.
// Nodes that never reach in-degree zero — because they sit on a cycle —
// are appended afterward, ordered by kindPriority and then by discovery
// order, per the stranded-node tie-break. Unlike a strict topological
// sort, this never errors: cyclic diagrams are valid and must still
// produce a hint the scheduler can use for tie-breaking.
func (g *Graph) TopologicalHint() []types.NodeID {
	numNodes := len(g.nodes)
	if numNodes == 0 {
		return []types.NodeID{}
	}

	inDegree := make(map[types.NodeID]int, numNodes)
	adjacency := make(map[types.NodeID][]types.NodeID, numNodes)
	discovery := make(map[types.NodeID]int, numNodes)

	for i := range g.nodes {
		inDegree[g.nodes[i].ID] = 0
		discovery[g.nodes[i].ID] = i
	}
	for i := range g.edges {
		e := &g.edges[i]
		adjacency[e.SourceNodeID] = append(adjacency[e.SourceNodeID], e.TargetNodeID)
		inDegree[e.TargetNodeID]++
	}

	queue := make([]types.NodeID, 0, numNodes)
	for i := range g.nodes {
		if inDegree[g.nodes[i].ID] == 0 {
			queue = append(queue, g.nodes[i].ID)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return discovery[queue[i]] < discovery[queue[j]] })

	order := make([]types.NodeID, 0, numNodes)
	resolved := make(map[types.NodeID]bool, numNodes)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		resolved[current] = true

		var ready []types.NodeID
		for _, neighbor := range adjacency[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				ready = append(ready, neighbor)
			}
		}
		sort.Slice(ready, func(i, j int) bool { return discovery[ready[i]] < discovery[ready[j]] })
		queue = append(queue, ready...)
	}

	if len(order) == numNodes {
		return order
	}

	var stranded []types.NodeID
	for i := range g.nodes {
		id := g.nodes[i].ID
		if !resolved[id] {
			stranded = append(stranded, id)
		}
	}
	nodeByID := make(map[types.NodeID]types.Node, numNodes)
	for i := range g.nodes {
		nodeByID[g.nodes[i].ID] = g.nodes[i]
	}
	sort.Slice(stranded, func(i, j int) bool {
		pi, pj := kindPriority(nodeByID[stranded[i]].Kind), kindPriority(nodeByID[stranded[j]].Kind)
		if pi != pj {
			return pi < pj
		}
		return discovery[stranded[i]] < discovery[stranded[j]]
	})

	return append(order, stranded...)
}

// HasCycle reports whether the diagram contains at least one cycle. This
// is informational only (used for compiler warnings) and never blocks
// compilation or execution.
func (g *Graph) HasCycle() bool {
	return len(g.stronglyResolved()) != len(g.nodes)
}

func (g *Graph) stronglyResolved() []types.NodeID {
	numNodes := len(g.nodes)
	inDegree := make(map[types.NodeID]int, numNodes)
	adjacency := make(map[types.NodeID][]types.NodeID, numNodes)
	for i := range g.nodes {
		inDegree[g.nodes[i].ID] = 0
	}
	for i := range g.edges {
		e := &g.edges[i]
		adjacency[e.SourceNodeID] = append(adjacency[e.SourceNodeID], e.TargetNodeID)
		inDegree[e.TargetNodeID]++
	}
	queue := make([]types.NodeID, 0, numNodes)
	for id, d := range inDegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	var resolved []types.NodeID
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		resolved = append(resolved, current)
		for _, neighbor := range adjacency[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}
	return resolved
}

// GetNode retrieves a node by its ID.
func (g *Graph) GetNode(nodeID types.NodeID) *types.Node {
	for i := range g.nodes {
		if g.nodes[i].ID == nodeID {
			return &g.nodes[i]
		}
	}
	return nil
}

// InputEdges returns all edges where the given node is the target.
func (g *Graph) InputEdges(nodeID types.NodeID) []types.Edge {
	var edges []types.Edge
	for _, e := range g.edges {
		if e.TargetNodeID == nodeID {
			edges = append(edges, e)
		}
	}
	return edges
}

// OutputEdges returns all edges where the given node is the source.
func (g *Graph) OutputEdges(nodeID types.NodeID) []types.Edge {
	var edges []types.Edge
	for _, e := range g.edges {
		if e.SourceNodeID == nodeID {
			edges = append(edges, e)
		}
	}
	return edges
}

// TerminalNodes returns all nodes that have no outgoing edges.
func (g *Graph) TerminalNodes() []types.NodeID {
	terminal := make(map[types.NodeID]bool, len(g.nodes))
	for _, n := range g.nodes {
		terminal[n.ID] = true
	}
	for _, e := range g.edges {
		terminal[e.SourceNodeID] = false
	}
	var result []types.NodeID
	for _, n := range g.nodes {
		if terminal[n.ID] {
			result = append(result, n.ID)
		}
	}
	return result
}
