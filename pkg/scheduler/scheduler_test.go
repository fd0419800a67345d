package scheduler

import (
	"testing"
	"time"

	"github.com/dipeo/execengine/pkg/compiler"
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/events"
	"github.com/dipeo/execengine/pkg/statestore"
	"github.com/dipeo/execengine/pkg/token"
	"github.com/dipeo/execengine/pkg/types"
)

func startNode(id string) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindStart, Start: &types.StartParams{}}
}

func endNode(id string) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindEnd, End: &types.EndParams{}}
}

func personJobNode(id string, maxIter int) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindPersonJob, PersonJob: &types.PersonJobParams{PersonID: "p", DefaultPrompt: "hi", MaxIteration: maxIter}}
}

func edge(id, src, tgt string) types.Edge {
	return types.Edge{ID: types.EdgeID(id), SourceNodeID: types.NodeID(src), TargetNodeID: types.NodeID(tgt), TargetInputKey: "default"}
}

func nodeStarted(nodeID string, seq uint64) events.DomainEvent {
	return events.DomainEvent{
		Type:    events.NodeStarted,
		Meta:    events.Meta{Seq: seq, Timestamp: time.Unix(int64(seq), 0)},
		Payload: map[string]interface{}{"node_id": nodeID},
	}
}

func nodeCompleted(nodeID string, seq uint64) events.DomainEvent {
	return events.DomainEvent{
		Type:    events.NodeCompleted,
		Meta:    events.Meta{Seq: seq, Timestamp: time.Unix(int64(seq), 0)},
		Payload: map[string]interface{}{"node_id": nodeID},
	}
}

func TestScheduler_EntryNodeReadyImmediately(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{
		Nodes: []types.Node{startNode("start"), endNode("end")},
		Edges: []types.Edge{edge("e1", "start", "end")},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	sched := New(d, token.NewManager(d), store)

	batch := sched.NextReadyBatch("exec-1", map[types.NodeID]bool{})
	if len(batch.Ready) != 1 || batch.Ready[0] != "start" {
		t.Fatalf("expected only start ready, got %v", batch.Ready)
	}
}

func TestScheduler_ProducedTokenUnblocksDownstream(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{
		Nodes: []types.Node{startNode("start"), endNode("end")},
		Edges: []types.Edge{edge("e1", "start", "end")},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	tokens := token.NewManager(d)
	sched := New(d, tokens, store)

	batch := sched.NextReadyBatch("exec-1", nil)
	if len(batch.Ready) != 1 || batch.Ready[0] != "start" {
		t.Fatalf("expected start ready, got %v", batch.Ready)
	}

	store.ApplyEvent("exec-1", nodeStarted("start", 1))
	store.ApplyEvent("exec-1", nodeCompleted("start", 2))
	tokens.Produce(d.Nodes["start"], envelope.NewObject(nil))

	batch = sched.NextReadyBatch("exec-1", nil)
	if len(batch.Ready) != 1 || batch.Ready[0] != "end" {
		t.Fatalf("expected end ready after start produces, got %v", batch.Ready)
	}
	if len(batch.Consume["end"]) != 1 {
		t.Errorf("expected end to consume e1, got %v", batch.Consume["end"])
	}
}

func TestScheduler_InFlightNodeExcluded(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{Nodes: []types.Node{startNode("start")}})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	sched := New(d, token.NewManager(d), store)

	batch := sched.NextReadyBatch("exec-1", map[types.NodeID]bool{"start": true})
	if len(batch.Ready) != 0 {
		t.Errorf("expected no ready nodes while start is in flight, got %v", batch.Ready)
	}
	if batch.Done || batch.Deadlocked {
		t.Errorf("expected neither done nor deadlocked while something is in flight, got %+v", batch)
	}
}

func TestScheduler_MaxIterationRemovesNodeAndMarksState(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{Nodes: []types.Node{personJobNode("p1", 1)}})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	sched := New(d, token.NewManager(d), store)

	store.ApplyEvent("exec-1", nodeStarted("p1", 1))
	store.ApplyEvent("exec-1", nodeCompleted("p1", 2))

	batch := sched.NextReadyBatch("exec-1", nil)
	if len(batch.Ready) != 0 {
		t.Fatalf("expected p1 excluded once it reached max_iteration, got %v", batch.Ready)
	}
	ns, ok := store.GetNodeState("exec-1", "p1")
	if !ok || ns.Status != statestore.StatusMaxIterReached {
		t.Errorf("expected p1 marked MAXITER_REACHED, got %+v ok=%v", ns, ok)
	}
}

func TestScheduler_CompleteWhenNothingReadyOrInFlight(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{Nodes: []types.Node{personJobNode("p1", 1)}})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	sched := New(d, token.NewManager(d), store)
	store.ApplyEvent("exec-1", nodeStarted("p1", 1))
	store.ApplyEvent("exec-1", nodeCompleted("p1", 2))

	batch := sched.NextReadyBatch("exec-1", nil)
	if !batch.Done {
		t.Errorf("expected execution reported done, got %+v", batch)
	}
}

func TestScheduler_DeadlockWhenWaitingNodeNeverFed(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{
		Nodes: []types.Node{startNode("start"), endNode("end")},
		Edges: []types.Edge{{ID: "e1", SourceNodeID: "start", TargetNodeID: "end", SourceOutputKey: "nonexistent", TargetInputKey: "default"}},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	tokens := token.NewManager(d)
	sched := New(d, tokens, store)

	store.ApplyEvent("exec-1", nodeStarted("start", 1))
	store.ApplyEvent("exec-1", nodeCompleted("start", 2))
	tokens.Produce(d.Nodes["start"], envelope.NewObject(nil))

	batch := sched.NextReadyBatch("exec-1", nil)
	if !batch.Deadlocked {
		t.Errorf("expected deadlock when end's only edge never receives a token, got %+v", batch)
	}
}

func conditionNode(id string) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindCondition, Condition: &types.ConditionParams{ConditionKind: types.ConditionExpression, Expression: "true"}}
}

func branchEdge(id, src, tgt, branch string) types.Edge {
	return types.Edge{ID: types.EdgeID(id), SourceNodeID: types.NodeID(src), TargetNodeID: types.NodeID(tgt), SourceOutputKey: branch, TargetInputKey: "default"}
}

// condEnv stamps a condition's branch label the way the condition handler
// does, so token.Manager.Produce routes to the right output key.
func condEnv(branch bool) envelope.Envelope {
	env := envelope.NewText("")
	if branch {
		env.Meta.Labels = map[string]string{"branch": "true"}
	} else {
		env.Meta.Labels = map[string]string{"branch": "false"}
	}
	return env
}

func TestScheduler_NotDeadlockedWhenConditionPrunesBranch(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{
		Nodes: []types.Node{
			startNode("start"),
			conditionNode("cond"),
			endNode("true_end"),
			endNode("false_end"),
		},
		Edges: []types.Edge{
			edge("e1", "start", "cond"),
			branchEdge("e2", "cond", "true_end", "condtrue"),
			branchEdge("e3", "cond", "false_end", "condfalse"),
		},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	tokens := token.NewManager(d)
	sched := New(d, tokens, store)

	store.ApplyEvent("exec-1", nodeStarted("start", 1))
	store.ApplyEvent("exec-1", nodeCompleted("start", 2))
	tokens.Produce(d.Nodes["start"], envelope.NewObject(nil))

	batch := sched.NextReadyBatch("exec-1", nil)
	if len(batch.Ready) != 1 || batch.Ready[0] != "cond" {
		t.Fatalf("expected cond ready, got %+v", batch)
	}
	tokens.ConsumeAll(batch.Consume["cond"])
	store.ApplyEvent("exec-1", nodeStarted("cond", 3))
	store.ApplyEvent("exec-1", nodeCompleted("cond", 4))
	tokens.Produce(d.Nodes["cond"], condEnv(true))

	batch = sched.NextReadyBatch("exec-1", nil)
	if len(batch.Ready) != 1 || batch.Ready[0] != "true_end" {
		t.Fatalf("expected true_end ready, got %+v", batch)
	}
	tokens.ConsumeAll(batch.Consume["true_end"])
	store.ApplyEvent("exec-1", nodeStarted("true_end", 5))
	store.ApplyEvent("exec-1", nodeCompleted("true_end", 6))

	batch = sched.NextReadyBatch("exec-1", nil)
	if batch.Deadlocked {
		t.Fatalf("expected false_end's unfed edge to be pruned as a chosen branch, not a deadlock, got %+v", batch)
	}
	if !batch.Done {
		t.Errorf("expected execution done once the untaken branch is pruned, got %+v", batch)
	}
}

func TestScheduler_StillDeadlockedWhenDownstreamOfPrunedBranchMiswired(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{
		Nodes: []types.Node{
			startNode("start"),
			conditionNode("cond"),
			endNode("true_end"),
			endNode("false_end"),
			endNode("orphan"),
		},
		Edges: []types.Edge{
			edge("e1", "start", "cond"),
			branchEdge("e2", "cond", "true_end", "condtrue"),
			branchEdge("e3", "cond", "false_end", "condfalse"),
			{ID: "e4", SourceNodeID: "start", TargetNodeID: "orphan", SourceOutputKey: "nonexistent", TargetInputKey: "default"},
		},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	tokens := token.NewManager(d)
	sched := New(d, tokens, store)

	store.ApplyEvent("exec-1", nodeStarted("start", 1))
	store.ApplyEvent("exec-1", nodeCompleted("start", 2))
	tokens.Produce(d.Nodes["start"], envelope.NewObject(nil))

	batch := sched.NextReadyBatch("exec-1", nil)
	tokens.ConsumeAll(batch.Consume["cond"])
	store.ApplyEvent("exec-1", nodeStarted("cond", 3))
	store.ApplyEvent("exec-1", nodeCompleted("cond", 4))
	tokens.Produce(d.Nodes["cond"], condEnv(true))

	batch = sched.NextReadyBatch("exec-1", nil)
	tokens.ConsumeAll(batch.Consume["true_end"])
	store.ApplyEvent("exec-1", nodeStarted("true_end", 5))
	store.ApplyEvent("exec-1", nodeCompleted("true_end", 6))

	batch = sched.NextReadyBatch("exec-1", nil)
	if !batch.Deadlocked {
		t.Errorf("expected orphan's genuinely mis-wired edge to still report deadlock, got %+v", batch)
	}
}

func TestScheduler_OrderIndexTieBreak(t *testing.T) {
	d, err := compiler.Compile(types.Diagram{
		Nodes: []types.Node{startNode("b"), startNode("a")},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	store := statestore.New()
	sched := New(d, token.NewManager(d), store)

	batch := sched.NextReadyBatch("exec-1", nil)
	if len(batch.Ready) != 2 {
		t.Fatalf("expected both entry nodes ready, got %v", batch.Ready)
	}
	if batch.Ready[0] != "a" && batch.Ready[0] != "b" {
		t.Fatalf("unexpected ready set: %v", batch.Ready)
	}
}
