package scheduler

import (
	"sort"

	"github.com/dipeo/execengine/pkg/compiler"
	"github.com/dipeo/execengine/pkg/statestore"
	"github.com/dipeo/execengine/pkg/token"
	"github.com/dipeo/execengine/pkg/types"
)

// Scheduler picks the next ready batch of nodes for one execution. It
// keeps no state of its own; the token Manager and the state store it was
// built with are the sources of truth. Since it holds a single
// token.Manager, each execution needs its own Scheduler.
type Scheduler struct {
	diagram *compiler.ExecutableDiagram
	tokens  *token.Manager
	store   *statestore.Store
}

// New creates a Scheduler for one compiled diagram, its token manager,
// and the shared state store.
func New(d *compiler.ExecutableDiagram, tokens *token.Manager, store *statestore.Store) *Scheduler {
	return &Scheduler{diagram: d, tokens: tokens, store: store}
}

// Batch is the result of one scheduling tick.
type Batch struct {
	// Ready holds the node ids to dispatch this tick, in dispatch order.
	Ready []types.NodeID
	// Consume maps each ready node to the input edges it should consume
	// once the engine actually dispatches it.
	Consume map[types.NodeID][]types.Edge
	// Done is true when there is nothing ready, nothing in flight, and no
	// node is stuck waiting on tokens that will never arrive — the
	// execution has run to completion.
	Done bool
	// Deadlocked is true when there is nothing ready and nothing in
	// flight, but some node that has never fired still has unsatisfied
	// incoming edges. The engine should fail the execution rather than
	// wait forever.
	Deadlocked bool
}

// NextReadyBatch implements the selection policy: query token readiness
// for every node, drop nodes at or above their max_iteration (marking
// them MAXITER_REACHED in the state store), drop nodes already in
// flight, then return the remainder ordered by compile-time execution
// order index and, as a tie-break, by node id.
func (s *Scheduler) NextReadyBatch(executionID string, inFlight map[types.NodeID]bool) Batch {
	var candidates []types.NodeID
	consume := make(map[types.NodeID][]types.Edge)

	for id, node := range s.diagram.Nodes {
		ns, _ := s.store.GetNodeState(executionID, id)

		ready, satisfying := s.tokens.IsReady(node, ns.ExecutionCount)
		if !ready {
			continue
		}

		if ns.ExecutionCount >= node.MaxIteration() {
			s.store.MarkMaxIterReached(executionID, id)
			continue
		}

		if inFlight[id] {
			continue
		}

		candidates = append(candidates, id)
		consume[id] = satisfying
	}

	sort.Slice(candidates, func(i, j int) bool {
		oi, oj := s.orderIndex(candidates[i]), s.orderIndex(candidates[j])
		if oi != oj {
			return oi < oj
		}
		return candidates[i] < candidates[j]
	})

	if len(candidates) > 0 {
		return Batch{Ready: candidates, Consume: consume}
	}

	if len(inFlight) > 0 {
		return Batch{}
	}

	if s.isDeadlocked(executionID) {
		return Batch{Deadlocked: true}
	}
	return Batch{Done: true}
}

func (s *Scheduler) orderIndex(id types.NodeID) int {
	if idx, ok := s.diagram.OrderIndex[id]; ok {
		return idx
	}
	return len(s.diagram.OrderIndex)
}

// isDeadlocked reports whether some node that has never fired is still
// waiting on incoming edges that will never be satisfied now that
// nothing is ready and nothing is in flight. Entry nodes (no incoming
// edges) are never the cause since they're always ready on their first
// tick. Nodes left permanently unreachable because a Condition node
// upstream settled on the other branch are pruned rather than reported,
// since that is the intended effect of branching, not a stuck diagram.
func (s *Scheduler) isDeadlocked(executionID string) bool {
	pruned := s.prunedNodes(executionID)
	for id := range s.diagram.Nodes {
		ns, ok := s.store.GetNodeState(executionID, id)
		if ok && ns.ExecutionCount > 0 {
			continue
		}
		if len(s.diagram.InputEdges(id)) == 0 {
			continue
		}
		if pruned[id] {
			continue
		}
		return true
	}
	return false
}

// prunedNodes computes, by fixpoint, the set of never-fired nodes that
// can never become ready because every edge in at least one of their
// input groups comes from a settled source that will never put a token
// on it: either a Condition node that already chose the other branch, or
// a node that is itself pruned. A never-fired node whose starved group
// traces back to a non-Condition source that simply never produced a
// matching token is left out of this set and still counts as deadlocked,
// since for non-Condition nodes every matching output edge fires
// whenever the node runs.
func (s *Scheduler) prunedNodes(executionID string) map[types.NodeID]bool {
	pruned := make(map[types.NodeID]bool)
	for {
		changed := false
		for id := range s.diagram.Nodes {
			if pruned[id] {
				continue
			}
			ns, _ := s.store.GetNodeState(executionID, id)
			if ns.ExecutionCount > 0 {
				continue
			}
			inEdges := s.diagram.InputEdges(id)
			if len(inEdges) == 0 {
				continue
			}
			if s.hasStarvedGroup(executionID, inEdges, pruned) {
				pruned[id] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return pruned
}

// hasStarvedGroup reports whether any input-key group among inEdges can
// never be satisfied: every edge in the group holds no token and its
// source will never produce one, either because the source is a
// Condition node that already fired and picked the other branch, or
// because the source is itself pruned.
func (s *Scheduler) hasStarvedGroup(executionID string, inEdges []types.Edge, pruned map[types.NodeID]bool) bool {
	for _, group := range groupEdgesByInputKey(inEdges) {
		starved := true
		for _, e := range group {
			if s.tokens.TokenCount(e.ID) > 0 {
				starved = false
				break
			}
			src := s.diagram.Nodes[e.SourceNodeID]
			srcState, _ := s.store.GetNodeState(executionID, e.SourceNodeID)
			switch {
			case pruned[e.SourceNodeID]:
			case src.Kind == types.KindCondition && srcState.ExecutionCount > 0:
			default:
				starved = false
			}
			if !starved {
				break
			}
		}
		if starved {
			return true
		}
	}
	return false
}

func groupEdgesByInputKey(edges []types.Edge) map[string][]types.Edge {
	groups := make(map[string][]types.Edge)
	for _, e := range edges {
		key := token.EffectiveInputKey(e)
		groups[key] = append(groups[key], e)
	}
	return groups
}
