package graph

import (
	"reflect"
	"testing"

	"github.com/dipeo/execengine/pkg/types"
)

func mkNode(id types.NodeID, kind types.NodeKind) types.Node {
	n := types.Node{ID: id, Kind: kind}
	switch kind {
	case types.KindStart:
		n.Start = &types.StartParams{}
	case types.KindEnd:
		n.End = &types.EndParams{}
	case types.KindPersonJob:
		n.PersonJob = &types.PersonJobParams{PersonID: "p", DefaultPrompt: "hi", MaxIteration: 1}
	case types.KindCondition:
		n.Condition = &types.ConditionParams{ConditionKind: types.ConditionExpression, Expression: "true"}
	}
	return n
}

func mkEdge(src, tgt types.NodeID) types.Edge {
	return types.Edge{SourceNodeID: src, TargetNodeID: tgt, ContentType: types.ContentRawText}
}

func TestTopologicalHint_LinearChain(t *testing.T) {
	g := New(
		[]types.Node{mkNode("1", types.KindStart), mkNode("2", types.KindCondition), mkNode("3", types.KindEnd)},
		[]types.Edge{mkEdge("1", "2"), mkEdge("2", "3")},
	)
	got := g.TopologicalHint()
	want := []types.NodeID{"1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestTopologicalHint_Diamond(t *testing.T) {
	g := New(
		[]types.Node{mkNode("1", types.KindStart), mkNode("2", types.KindCondition), mkNode("3", types.KindCondition), mkNode("4", types.KindEnd)},
		[]types.Edge{mkEdge("1", "2"), mkEdge("1", "3"), mkEdge("2", "4"), mkEdge("3", "4")},
	)
	got := g.TopologicalHint()
	pos := make(map[types.NodeID]int, len(got))
	for i, id := range got {
		pos[id] = i
	}
	if pos["1"] > pos["2"] || pos["1"] > pos["3"] {
		t.Fatalf("node 1 must precede 2 and 3: %v", got)
	}
	if pos["2"] > pos["4"] || pos["3"] > pos["4"] {
		t.Fatalf("nodes 2,3 must precede 4: %v", got)
	}
}

func TestTopologicalHint_EmptyGraph(t *testing.T) {
	g := New(nil, nil)
	got := g.TopologicalHint()
	if len(got) != 0 {
		t.Fatalf("expected empty hint, got %v", got)
	}
}

func TestTopologicalHint_CycleDoesNotError(t *testing.T) {
	// 1 -> 2 -> 3 -> 2 (cycle between 2 and 3), with 1 as Start.
	g := New(
		[]types.Node{mkNode("1", types.KindStart), mkNode("2", types.KindCondition), mkNode("3", types.KindPersonJob)},
		[]types.Edge{mkEdge("1", "2"), mkEdge("2", "3"), mkEdge("3", "2")},
	)
	got := g.TopologicalHint()
	if len(got) != 3 {
		t.Fatalf("cyclic diagram must still produce a full hint, got %v", got)
	}
	if got[0] != "1" {
		t.Fatalf("Start node must lead the hint even when stranded nodes follow, got %v", got)
	}
	if !g.HasCycle() {
		t.Fatalf("expected HasCycle to report true")
	}
}

func TestTopologicalHint_StrandedNodesOrderedByKindPriority(t *testing.T) {
	// A pure cycle with no acyclic prefix: PersonJob should be hinted
	// before a plain Condition node among the stranded set.
	g := New(
		[]types.Node{mkNode("a", types.KindCondition), mkNode("b", types.KindPersonJob)},
		[]types.Edge{mkEdge("a", "b"), mkEdge("b", "a")},
	)
	got := g.TopologicalHint()
	if len(got) != 2 || got[0] != "b" {
		t.Fatalf("expected PersonJob first among stranded nodes, got %v", got)
	}
}

func TestHasCycle_Acyclic(t *testing.T) {
	g := New(
		[]types.Node{mkNode("1", types.KindStart), mkNode("2", types.KindEnd)},
		[]types.Edge{mkEdge("1", "2")},
	)
	if g.HasCycle() {
		t.Fatalf("expected no cycle")
	}
}

func TestInputOutputEdges(t *testing.T) {
	g := New(
		[]types.Node{mkNode("1", types.KindStart), mkNode("2", types.KindEnd), mkNode("3", types.KindEnd)},
		[]types.Edge{mkEdge("1", "2"), mkEdge("1", "3")},
	)
	if got := g.OutputEdges("1"); len(got) != 2 {
		t.Fatalf("expected 2 output edges, got %d", len(got))
	}
	if got := g.InputEdges("2"); len(got) != 1 {
		t.Fatalf("expected 1 input edge, got %d", len(got))
	}
	if got := g.InputEdges("1"); len(got) != 0 {
		t.Fatalf("expected 0 input edges for root, got %d", len(got))
	}
}

func TestTerminalNodes(t *testing.T) {
	g := New(
		[]types.Node{mkNode("1", types.KindStart), mkNode("2", types.KindCondition), mkNode("3", types.KindEnd)},
		[]types.Edge{mkEdge("1", "2"), mkEdge("2", "3")},
	)
	got := g.TerminalNodes()
	if len(got) != 1 || got[0] != "3" {
		t.Fatalf("expected [3], got %v", got)
	}
}

func TestGetNode(t *testing.T) {
	g := New([]types.Node{mkNode("1", types.KindStart)}, nil)
	if g.GetNode("1") == nil {
		t.Fatalf("expected to find node 1")
	}
	if g.GetNode("missing") != nil {
		t.Fatalf("expected nil for missing node")
	}
}
