// Package graph provides adjacency and ordering utilities over a compiled
// diagram.
//
// # Topological hint, not topological sort
//
// Unlike a classic DAG topological sort, TopologicalHint never rejects a
// cyclic diagram. Cycles are a normal, supported shape (loops driven by a
// Condition node routing back to an earlier PersonJob). Kahn's algorithm
// runs as far as it can; any node stranded on a cycle is appended
// afterward, Start-kind nodes first, then PersonJob, then the rest in
// discovery order.
//
// The hint is advisory only: it seeds the scheduler's tie-break order
// when multiple nodes become ready in the same tick. Runtime readiness is
// decided exclusively by the token manager and scheduler, never by this
// package.
package graph
