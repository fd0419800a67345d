// Package scheduler selects the next batch of nodes ready to run. A node
// is a candidate once the token manager's readiness predicate holds for
// it; candidates are then pruned by max-iteration and in-flight status
// before being handed back in a deterministic order so the engine's tick
// loop produces the same dispatch order for the same state.
package scheduler
