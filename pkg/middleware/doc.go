// Package middleware provides request/response middleware for the workflow engine.
//
// # Overview
//
// The middleware package implements an interceptor pattern for workflow execution,
// allowing pre-processing, post-processing, and wrapping of workflow and node
// execution. This enables cross-cutting concerns like logging, metrics, caching,
// and security checks.
//
// # Features
//
//   - Node middleware: Intercept individual node execution (there is no
//     workflow-level middleware)
//   - Chain composition: Stack multiple middleware
//   - Order control: Explicit middleware ordering
//   - Context propagation: Pass data through middleware chain
//   - Error handling: Intercept and transform errors
//
// # Middleware Types
//
// Node Middleware is the only kind; a diagram-wide check such as
// ValidateWorkflowSize is a plain function called before execution.
//
// Node Middleware:
//
//	Wraps individual node execution, can:
//	- Add node-level logging
//	- Implement retry logic
//	- Add timeout enforcement
//	- Collect node-level metrics
//	- Transform node inputs/outputs
//
// # Middleware Interface
//
//	type Middleware interface {
//	    Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error)
//	    Name() string
//	}
//
//	type Handler func(ctx handlers.ExecutionContext) (envelope.Envelope, error)
//
// # Basic Usage
//
//	chain := middleware.NewChain().
//	    Use(middleware.NewRateLimitMiddleware()).
//	    Use(middleware.NewSizeLimitMiddleware())
//
//	eng := engine.New(diagram, registry, engine.WithMiddleware(chain))
//
// A Chain passed to engine.WithMiddleware wraps every node dispatch
// (instead of the engine calling the handler registry directly), so
// rate limiting and size limits apply uniformly across node kinds without
// any handler being aware of them.
//
// # Custom Middleware Example
//
//	type TimingMiddleware struct{}
//
//	func (m *TimingMiddleware) Process(ctx handlers.ExecutionContext, next middleware.Handler) (envelope.Envelope, error) {
//	    start := time.Now()
//	    result, err := next(ctx)
//	    log.Printf("node %s took %v", ctx.Node().ID, time.Since(start))
//	    return result, err
//	}
//
//	func (m *TimingMiddleware) Name() string { return "Timing" }
//
// # Built-in Middleware
//
// Logging Middleware:
//   - Logs node execution start and completion
//   - Includes timing information
//   - Logs errors
//
// Metrics Middleware:
//   - Collects execution metrics
//   - Tracks success/failure rates
//   - Measures execution duration
//
// Retry Middleware (and ConditionalRetryMiddleware):
//   - Automatic retry on failure
//   - Exponential backoff
//   - Configurable retry limits
//
// Timeout Middleware:
//   - Enforces execution time limits
//   - Returns timeout errors; the handler is not cancelled and keeps running
//
// Validation Middleware (and InputValidationMiddleware):
//   - Node configuration checks through a registry's Validate
//   - Input count and text size limits
//
// RateLimit and SizeLimit Middleware:
//   - Token-bucket rate limits (global, per node kind, per execution)
//   - Input and result size limits
//
// There is no caching or security middleware in this package.
//
// # Middleware Chain
//
// Middleware executes in the order registered (first registered executes
// first on the way in and last on the way out):
//
//	Chain:  [Auth] → [Logging] → [Metrics] → [Handler]
//	        ↓         ↓           ↓            ↓
//	Request →→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→ Execute
//	        ←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←← Response
//	        ↑         ↑           ↑            ↑
//	        [Auth]   [Logging]   [Metrics]   [Handler]
//
// # Error Handling
//
// Middleware can intercept and transform errors:
//
//	func (m *ErrorMiddleware) Process(ctx handlers.ExecutionContext, next middleware.Handler) (envelope.Envelope, error) {
//	    result, err := next(ctx)
//	    if err != nil {
//	        return envelope.Envelope{}, fmt.Errorf("node %s failed: %w", ctx.Node().ID, err)
//	    }
//	    return result, nil
//	}
//
// # Performance Considerations
//
//   - Minimize allocations in hot paths
//   - Use context for request-scoped data
//   - Avoid blocking operations in middleware
//   - Consider middleware overhead for high-throughput scenarios
//
// # Use Cases
//
//   - Authentication and authorization
//   - Request/response logging
//   - Metrics collection and monitoring
//   - Caching and memoization
//   - Rate limiting and throttling
//   - Input validation and sanitization
//   - Error handling and recovery
//   - Request tracing and correlation
//
// # Best Practices
//
//   - Keep middleware focused on a single concern
//   - Avoid modifying workflow/node state in middleware
//   - Use context for passing request-scoped data
//   - Always call next() unless explicitly stopping the chain
//   - Handle errors appropriately (wrap, transform, or log)
//   - Document middleware ordering requirements
//
// # Thread Safety
//
// Middleware implementations should be stateless and thread-safe.
// The same middleware instance may be used concurrently by multiple
// goroutines.
package middleware
