// Package logging provides structured logging, built on slog, for the diagram
// execution engine.
//
// # Overview
//
// Logger wraps *slog.Logger with With* methods shaped around the engine's own
// identifiers — diagram_id, execution_id, node_id, node_kind, edge_id — rather
// than generic string fields, so every log line from the engine, middleware
// chain, and event pipeline carries the same vocabulary the rest of the
// codebase uses.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Pretty: false, // JSON in production, text in development
//	})
//
//	logger.
//	    WithDiagramID(diagramID).
//	    WithExecutionID(executionID).
//	    Info("execution started")
//
// # Per-Node and Per-Edge Context
//
// Node handlers and middleware chain context with the engine's own typed
// identifiers instead of raw strings:
//
//	nodeLogger := logger.
//	    WithNodeID(node.ID).     // types.NodeID
//	    WithNodeKind(node.Kind)  // types.NodeKind
//
//	nodeLogger.Debug("node execution started")
//
//	nodeLogger.
//	    WithError(err).
//	    WithField("duration_ms", elapsed.Milliseconds()).
//	    Error("node execution failed")
//
// WithEdgeID (types.EdgeID) adds an edge_id field the same way; the Input
// Resolver itself does not log.
//
// # Output Formats
//
// JSON (Config.Pretty == false, the production default):
//
//	{"time":"2024-01-15T10:30:00Z","level":"INFO","msg":"execution started","diagram_id":"dg-123","execution_id":"exec-456"}
//
// Text (Config.Pretty == true, for local development):
//
//	2024-01-15T10:30:00Z INFO execution started diagram_id=dg-123 execution_id=exec-456
//
// # Context Propagation
//
// WithContext/FromContext carry a *Logger through a context.Context so
// downstream code that only has a ctx can still log with the caller's
// accumulated fields; FromContext falls back to a default logger if none was
// attached.
//
// # Thread Safety
//
// Every With* method returns a new *Logger wrapping an independent
// *slog.Logger; the underlying handler is safe for concurrent use, so a
// Logger can be shared across node executions running in separate
// goroutines without additional synchronization.
package logging
