// Package middleware provides the Chain of Responsibility pattern implementation
// for node execution middleware. This enables cross-cutting concerns like logging,
// metrics, validation, and timeouts to be added around a Handler without modifying
// the handler itself.
package middleware

import (
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/handlers"
)

// Handler executes the node named by ctx.Node() and returns its output
// envelope. This is the same shape as handlers.Handler.Execute, so a
// Chain can wrap either a single handler or the registry's dispatch.
type Handler func(ctx handlers.ExecutionContext) (envelope.Envelope, error)

// Middleware defines the interface for execution middleware.
// Middleware can inspect, modify, or short-circuit node execution.
//
// Example middleware implementations:
//   - LoggingMiddleware: logs execution start/end
//   - MetricsMiddleware: records performance metrics
//   - ValidationMiddleware: validates node configuration before execution
//   - TimeoutMiddleware: enforces execution timeouts
//   - RetryMiddleware: retries failed executions
type Middleware interface {
	// Process handles the node execution, optionally calling next() to continue the chain.
	// The middleware can:
	//   - Pre-process: inspect ctx before calling next
	//   - Execute: call next to continue the chain
	//   - Post-process: inspect or modify the result after next returns
	//   - Short-circuit: return without calling next (e.g., cache hit)
	Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error)

	// Name returns the middleware name for logging and debugging
	Name() string
}

// Chain represents an ordered chain of middleware.
// Middleware are executed in the order they were added.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain() *Chain {
	return &Chain{
		middlewares: make([]Middleware, 0),
	}
}

// Use adds middleware to the chain.
// Middleware are executed in the order they are added.
func (c *Chain) Use(middleware Middleware) *Chain {
	c.middlewares = append(c.middlewares, middleware)
	return c
}

// Execute runs the middleware chain followed by the final handler.
//
// Example execution flow with 3 middleware:
//
//	M1.Process(pre) -> M2.Process(pre) -> M3.Process(pre) -> handler() ->
//	M3.Process(post) -> M2.Process(post) -> M1.Process(post) -> return
func (c *Chain) Execute(ctx handlers.ExecutionContext, handler Handler) (envelope.Envelope, error) {
	if len(c.middlewares) == 0 {
		return handler(ctx)
	}

	index := 0
	var next Handler
	next = func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		if index >= len(c.middlewares) {
			return handler(ctx)
		}
		mw := c.middlewares[index]
		index++
		return mw.Process(ctx, next)
	}

	return next(ctx)
}

// Len returns the number of middleware in the chain
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Middlewares returns all middleware in the chain
func (c *Chain) Middlewares() []Middleware {
	result := make([]Middleware, len(c.middlewares))
	copy(result, c.middlewares)
	return result
}

// AsHandler turns a handlers.Handler into the Handler function shape this
// chain wraps, letting a registry-resolved handler sit at the end of a
// middleware chain without an adapter at each call site.
func AsHandler(h handlers.Handler) Handler {
	return func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		return h.Execute(ctx)
	}
}
