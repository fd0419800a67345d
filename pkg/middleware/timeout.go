package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/handlers"
)

// TimeoutMiddleware enforces execution timeouts for nodes.
// If a node takes longer than the configured timeout, Process returns a
// timeout error; the handler is not cancelled and keeps running.
type TimeoutMiddleware struct {
	defaultTimeout time.Duration
}

// NewTimeoutMiddleware creates a new timeout middleware with default timeout
func NewTimeoutMiddleware(defaultTimeout time.Duration) *TimeoutMiddleware {
	return &TimeoutMiddleware{
		defaultTimeout: defaultTimeout,
	}
}

// Process enforces execution timeout
func (m *TimeoutMiddleware) Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error) {
	timeout := m.defaultTimeout
	if timeout <= 0 {
		return next(ctx)
	}

	type result struct {
		value envelope.Envelope
		err   error
	}
	resultChan := make(chan result, 1)

	go func() {
		value, err := next(ctx)
		resultChan <- result{value: value, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.value, res.err
	case <-time.After(timeout):
		return envelope.Envelope{}, fmt.Errorf("node execution timeout after %v", timeout)
	}
}

// Name returns the middleware name
func (m *TimeoutMiddleware) Name() string {
	return "Timeout"
}

// TimeoutMiddlewareWithContext is a context-aware timeout middleware
// that respects ctx.Context() cancellation alongside the hard deadline.
type TimeoutMiddlewareWithContext struct {
	defaultTimeout time.Duration
}

// NewTimeoutMiddlewareWithContext creates a context-aware timeout middleware
func NewTimeoutMiddlewareWithContext(defaultTimeout time.Duration) *TimeoutMiddlewareWithContext {
	return &TimeoutMiddlewareWithContext{
		defaultTimeout: defaultTimeout,
	}
}

// Process enforces execution timeout using context
func (m *TimeoutMiddlewareWithContext) Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error) {
	timeout := m.defaultTimeout
	if timeout <= 0 {
		return next(ctx)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Context(), timeout)
	defer cancel()

	type result struct {
		value envelope.Envelope
		err   error
	}
	resultChan := make(chan result, 1)

	go func() {
		value, err := next(ctx)
		resultChan <- result{value: value, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.value, res.err
	case <-timeoutCtx.Done():
		return envelope.Envelope{}, fmt.Errorf("node execution timeout after %v", timeout)
	}
}

// Name returns the middleware name
func (m *TimeoutMiddlewareWithContext) Name() string {
	return "TimeoutWithContext"
}
