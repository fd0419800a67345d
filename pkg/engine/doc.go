// Package engine provides the core diagram execution engine.
//
// # Overview
//
// The engine package drives one execution of a compiled diagram by
// repeatedly asking the scheduler for the next batch of token-ready
// nodes, dispatching each through the Input Resolver and the handler
// registry, and recording the resulting envelope back into the token
// manager and the state store. Unlike a topological-order executor, the
// same node may become ready more than once (PersonJob loops, condition
// cycles); readiness is recomputed from edge token counts every tick
// rather than decided once up front.
//
// # Architecture
//
// One tick does:
//
//  1. Scheduling: ask the scheduler for the ready batch given the
//     current in-flight set.
//  2. Dispatch: for each ready node, resolve inputs and run its handler
//     under a per-node timeout in its own goroutine. The loop does not
//     wait for the batch to drain: it re-polls the scheduler as soon as
//     any in-flight node finishes.
//  3. Recording: on success, produce tokens on matching outgoing edges
//     and cache the envelope as the node's last output; emit
//     NODE_COMPLETED. On failure, emit NODE_ERROR and, unless
//     continue_on_error is set, cancel the execution.
//  4. Repeat until the scheduler reports completion or deadlock, or the
//     execution's context is cancelled or times out.
//
// # Concurrency
//
// Nodes within one batch run concurrently, bounded by
// options.ConcurrencyLimit via a buffered-channel semaphore. Each node
// execution is cancellable through the shared execution context;
// cancelling it (timeout, abort, or a sibling's fatal error) propagates
// to every node still running in the batch.
package engine
