// Package statestore is the event-sourced authoritative state manager for
// diagram executions. Mutation flows through ApplyEvent, with one
// exception: MarkMaxIterReached sets a node's status on the cached
// snapshot without logging an event, so RebuildFromLog does not reproduce
// that status. Snapshots are otherwise pure functions of the event log. Access
// is guarded with one mutex per execution's resources rather than a single
// global lock, so concurrent executions don't contend with each other.
package statestore

import (
	"sync"
	"time"

	"github.com/dipeo/execengine/pkg/events"
	"github.com/dipeo/execengine/pkg/types"
)

// Status is the lifecycle state of an execution or a single node within it.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusRunning        Status = "RUNNING"
	StatusCompleted      Status = "COMPLETED"
	StatusFailed         Status = "FAILED"
	StatusAborted        Status = "ABORTED"
	StatusSkipped        Status = "SKIPPED"
	StatusMaxIterReached Status = "MAXITER_REACHED"
)

// NodeState is the per-node projection of the event log.
type NodeState struct {
	Status         Status
	ExecutionCount int
	StartTime      *time.Time
	EndTime        *time.Time
	Error          string
}

// Snapshot is an immutable view of an execution's state at a point in time.
// Transitions produce a new Snapshot with Version+1; the previous value is
// never mutated in place.
type Snapshot struct {
	ExecutionID string
	Status      Status
	StartTime   time.Time
	EndTime     *time.Time
	Error       string
	NodeStates  map[types.NodeID]NodeState
	Version     int
}

func (s Snapshot) clone() Snapshot {
	next := s
	next.NodeStates = make(map[types.NodeID]NodeState, len(s.NodeStates))
	for k, v := range s.NodeStates {
		next.NodeStates[k] = v
	}
	return next
}

type executionLog struct {
	mu       sync.Mutex
	events   []events.DomainEvent
	snapshot *Snapshot // cached; invalidated (nil) is never used, we rebuild in place
}

// Store is the event-sourced state manager. One Store instance is shared
// across all executions in a process; per-execution state is serialized
// independently via a sync.Map of per-execution locks, so concurrent
// executions never contend on each other's mutex.
type Store struct {
	logs sync.Map // execution_id -> *executionLog
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) logFor(executionID string) *executionLog {
	v, _ := s.logs.LoadOrStore(executionID, &executionLog{})
	return v.(*executionLog)
}

// ApplyEvent appends an event to the execution's log and recomputes the
// cached snapshot. Concurrent ApplyEvent calls for the same execution_id
// serialize under that execution's lock; calls for different executions
// never block each other. An event whose non-zero Seq is already in the
// log is ignored and the current snapshot is returned.
func (s *Store) ApplyEvent(executionID string, event events.DomainEvent) Snapshot {
	log := s.logFor(executionID)
	log.mu.Lock()
	defer log.mu.Unlock()

	if event.Meta.Seq != 0 && log.snapshot != nil {
		for _, e := range log.events {
			if e.Meta.Seq == event.Meta.Seq {
				return log.snapshot.clone()
			}
		}
	}

	log.events = append(log.events, event)
	next := applyToSnapshot(log.snapshot, executionID, event)
	log.snapshot = &next
	return next
}

// GetState returns the current cached snapshot for an execution, or false
// if the execution has no recorded events.
func (s *Store) GetState(executionID string) (Snapshot, bool) {
	v, ok := s.logs.Load(executionID)
	if !ok {
		return Snapshot{}, false
	}
	log := v.(*executionLog)
	log.mu.Lock()
	defer log.mu.Unlock()
	if log.snapshot == nil {
		return Snapshot{}, false
	}
	return log.snapshot.clone(), true
}

// GetNodeState returns a single node's projected state.
func (s *Store) GetNodeState(executionID string, nodeID types.NodeID) (NodeState, bool) {
	snap, ok := s.GetState(executionID)
	if !ok {
		return NodeState{}, false
	}
	ns, ok := snap.NodeStates[nodeID]
	return ns, ok
}

// GetEvents returns every event recorded for an execution with Seq >
// afterVersion.
func (s *Store) GetEvents(executionID string, afterVersion uint64) []events.DomainEvent {
	v, ok := s.logs.Load(executionID)
	if !ok {
		return nil
	}
	log := v.(*executionLog)
	log.mu.Lock()
	defer log.mu.Unlock()

	var out []events.DomainEvent
	for _, e := range log.events {
		if e.Meta.Seq > afterVersion {
			out = append(out, e)
		}
	}
	return out
}

// ClearExecution discards all state for an execution.
func (s *Store) ClearExecution(executionID string) {
	s.logs.Delete(executionID)
}

// RebuildFromLog replays an execution's full event log from scratch,
// discarding the cached snapshot first. Used to verify the cache and the
// log never diverge (see round-trip tests).
func (s *Store) RebuildFromLog(executionID string) (Snapshot, bool) {
	v, ok := s.logs.Load(executionID)
	if !ok {
		return Snapshot{}, false
	}
	log := v.(*executionLog)
	log.mu.Lock()
	defer log.mu.Unlock()

	var snap *Snapshot
	for _, e := range log.events {
		next := applyToSnapshot(snap, executionID, e)
		snap = &next
	}
	if snap == nil {
		return Snapshot{}, false
	}
	log.snapshot = snap
	return snap.clone(), true
}

func applyToSnapshot(prev *Snapshot, executionID string, event events.DomainEvent) Snapshot {
	var snap Snapshot
	if prev == nil {
		snap = Snapshot{
			ExecutionID: executionID,
			Status:      StatusPending,
			StartTime:   event.Meta.Timestamp,
			NodeStates:  map[types.NodeID]NodeState{},
			Version:     0,
		}
	} else {
		snap = prev.clone()
	}
	snap.Version++

	switch event.Type {
	case events.ExecutionStarted:
		snap.Status = StatusRunning
		snap.StartTime = event.Meta.Timestamp
	case events.ExecutionCompleted:
		snap.Status = StatusCompleted
		t := event.Meta.Timestamp
		snap.EndTime = &t
	case events.ExecutionError:
		snap.Status = StatusFailed
		t := event.Meta.Timestamp
		snap.EndTime = &t
		if msg, ok := event.Payload["error"].(string); ok {
			snap.Error = msg
		}
	case events.ExecutionAborted:
		snap.Status = StatusAborted
		t := event.Meta.Timestamp
		snap.EndTime = &t
	case events.NodeStarted:
		id := nodeIDFromPayload(event.Payload)
		ns := snap.NodeStates[id]
		ns.Status = StatusRunning
		t := event.Meta.Timestamp
		ns.StartTime = &t
		ns.ExecutionCount++
		snap.NodeStates[id] = ns
	case events.NodeCompleted:
		id := nodeIDFromPayload(event.Payload)
		ns := snap.NodeStates[id]
		ns.Status = StatusCompleted
		t := event.Meta.Timestamp
		ns.EndTime = &t
		snap.NodeStates[id] = ns
	case events.NodeError:
		id := nodeIDFromPayload(event.Payload)
		ns := snap.NodeStates[id]
		ns.Status = StatusFailed
		t := event.Meta.Timestamp
		ns.EndTime = &t
		if msg, ok := event.Payload["error"].(string); ok {
			ns.Error = msg
		}
		snap.NodeStates[id] = ns
	}

	return snap
}

func nodeIDFromPayload(payload map[string]interface{}) types.NodeID {
	if v, ok := payload["node_id"].(string); ok {
		return types.NodeID(v)
	}
	return ""
}

// MarkMaxIterReached sets a node's status directly, bypassing the normal
// event types — used by the scheduler when it removes a node from
// readiness for exceeding max_iteration, which is a scheduling decision
// rather than a node execution outcome.
func (s *Store) MarkMaxIterReached(executionID string, nodeID types.NodeID) Snapshot {
	log := s.logFor(executionID)
	log.mu.Lock()
	defer log.mu.Unlock()

	var snap Snapshot
	if log.snapshot == nil {
		snap = Snapshot{ExecutionID: executionID, Status: StatusRunning, NodeStates: map[types.NodeID]NodeState{}}
	} else {
		snap = log.snapshot.clone()
	}
	snap.Version++
	ns := snap.NodeStates[nodeID]
	ns.Status = StatusMaxIterReached
	snap.NodeStates[nodeID] = ns
	log.snapshot = &snap
	return snap.clone()
}
