package token

import (
	"sync"

	"github.com/dipeo/execengine/pkg/compiler"
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

const (
	outputKeyDefault   = "default"
	outputKeyCondTrue  = "condtrue"
	outputKeyCondFalse = "condfalse"
	inputKeyFirst      = "first"
)

// Manager owns the per-edge token counts for one execution. All methods
// are safe for concurrent use; the engine calls Produce from a node's
// completion path and IsReady from the scheduler's tick, potentially
// from different goroutines.
type Manager struct {
	mu      sync.Mutex
	diagram *compiler.ExecutableDiagram
	counts  map[types.EdgeID]int
}

// NewManager creates a token Manager with every edge starting at zero
// tokens.
func NewManager(d *compiler.ExecutableDiagram) *Manager {
	return &Manager{
		diagram: d,
		counts:  make(map[types.EdgeID]int, len(d.Edges)),
	}
}

// Produce adds one token to every outgoing edge of node whose source
// output key matches the envelope's effective output key, and returns
// those edges for callers that want to log or emit events about which
// downstream edges fired.
func (m *Manager) Produce(node types.Node, env envelope.Envelope) []types.Edge {
	key := effectiveOutputKey(node, env)

	m.mu.Lock()
	defer m.mu.Unlock()

	var fired []types.Edge
	for _, e := range m.diagram.OutputEdges(node.ID) {
		if edgeMatchesOutputKey(e, key) {
			m.counts[e.ID]++
			fired = append(fired, e)
		}
	}
	return fired
}

// Consume removes one token from edge. No-op if the edge has none.
func (m *Manager) Consume(edgeID types.EdgeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[edgeID] > 0 {
		m.counts[edgeID]--
	}
}

// ConsumeAll consumes one token from each of edges, for a node that just
// fired on all of its satisfied inputs.
func (m *Manager) ConsumeAll(edges []types.Edge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		if m.counts[e.ID] > 0 {
			m.counts[e.ID]--
		}
	}
}

// TokenCount returns the current unconsumed count on edgeID.
func (m *Manager) TokenCount(edgeID types.EdgeID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[edgeID]
}

// IsReady evaluates the readiness predicate for node given its current
// execution_count (0 before its first run). It returns the set of input
// edges that should be consumed if the node is dispatched, alongside the
// readiness boolean, so the engine/scheduler doesn't need to recompute
// which edges satisfied readiness.
func (m *Manager) IsReady(node types.Node, executionCount int) (bool, []types.Edge) {
	inEdges := m.diagram.InputEdges(node.ID)
	if len(inEdges) == 0 {
		return true, nil
	}

	if node.Kind == types.KindPersonJob && executionCount == 0 {
		firstEdges := edgesByInputKey(inEdges, inputKeyFirst)
		if len(firstEdges) > 0 {
			ready, satisfying := m.anyHasToken(firstEdges)
			if !ready {
				return false, nil
			}
			return true, satisfying
		}
	}

	groups := groupByInputKey(inEdges)
	var consume []types.Edge
	for _, group := range groups {
		ready, satisfying := m.anyHasToken(group)
		if !ready {
			return false, nil
		}
		consume = append(consume, satisfying...)
	}
	return true, consume
}

// anyHasToken reports whether at least one edge in edges currently holds
// a token, and returns the edges that do (the ones the caller should
// consume from when the node fires).
func (m *Manager) anyHasToken(edges []types.Edge) (bool, []types.Edge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var satisfying []types.Edge
	for _, e := range edges {
		if m.counts[e.ID] > 0 {
			satisfying = append(satisfying, e)
		}
	}
	return len(satisfying) > 0, satisfying
}

// effectiveOutputKey determines which named output slot an envelope was
// produced on. Condition nodes never set an explicit output key on the
// envelope; instead the handler stamps Meta.Labels["branch"], which this
// function maps to the "condtrue"/"condfalse" handle names downstream
// edges are authored against.
func effectiveOutputKey(node types.Node, env envelope.Envelope) string {
	if node.Kind == types.KindCondition {
		if env.Meta.Labels["branch"] == "true" {
			return outputKeyCondTrue
		}
		return outputKeyCondFalse
	}
	if env.Meta.OutputKey != "" {
		return env.Meta.OutputKey
	}
	return outputKeyDefault
}

func edgeMatchesOutputKey(e types.Edge, key string) bool {
	if e.SourceOutputKey == key {
		return true
	}
	return e.SourceOutputKey == "" && key == outputKeyDefault
}

// EffectiveInputKey is the key a node binds an incoming edge's value
// under: the author-specified rename (VariableLabel) if present,
// otherwise the edge's declared TargetInputKey. Exported so the input
// resolver binds inputs under the same keys the readiness predicate
// grouped edges by.
func EffectiveInputKey(e types.Edge) string {
	if e.VariableLabel != "" {
		return e.VariableLabel
	}
	return e.TargetInputKey
}

func edgesByInputKey(edges []types.Edge, key string) []types.Edge {
	var matched []types.Edge
	for _, e := range edges {
		if EffectiveInputKey(e) == key {
			matched = append(matched, e)
		}
	}
	return matched
}

func groupByInputKey(edges []types.Edge) map[string][]types.Edge {
	groups := make(map[string][]types.Edge)
	for _, e := range edges {
		key := EffectiveInputKey(e)
		groups[key] = append(groups[key], e)
	}
	return groups
}
