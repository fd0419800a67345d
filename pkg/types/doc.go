// Package types provides shared type definitions for the diagram execution
// core.
//
// # Overview
//
// This package contains the data structures shared across the compiler,
// token manager, scheduler, engine, and handler packages. It exists to
// avoid circular dependencies: every other package may import types, but
// types imports nothing from them.
//
// # Key Components
//
// Node kinds: a tagged variant (NodeKind) over the fourteen node families
// the execution core understands (Start, End, PersonJob, CodeJob, ApiJob,
// Condition, Db, TemplateJob, SubDiagram, UserResponse, Hook,
// JsonSchemaValidator, TypescriptAst, IntegratedApi), each with a validated
// parameter record.
//
// Diagram structure: Node, Edge, and the raw Diagram payload a
// DiagramRepositoryPort returns before compilation.
//
// Execution options: the knobs a caller passes to start_execution
// (variables, timeouts, concurrency limit, continue-on-error).
//
// # Thread Safety
//
// Types in this package are treated as immutable after construction.
// Concurrent access requires no synchronization as long as callers do not
// mutate a shared Node/Edge/Diagram value in place.
package types
