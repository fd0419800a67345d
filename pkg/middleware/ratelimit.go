package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/types"
)

// RateLimiter defines the interface for rate limiting implementations
type RateLimiter interface {
	// Allow checks if a request is allowed based on rate limits
	// Returns true if allowed, false if rate limit exceeded
	Allow(key string) bool

	// Reset clears all rate limit state
	Reset()
}

// RateLimitMiddleware enforces rate limits to prevent DoS attacks.
// It uses the token bucket algorithm for smooth rate limiting.
type RateLimitMiddleware struct {
	globalLimiter    RateLimiter
	nodeKindLimiters map[types.NodeKind]RateLimiter
	workflowLimiters map[string]RateLimiter
	mu               sync.RWMutex

	enableGlobal      bool
	enablePerNodeKind bool
	enablePerWorkflow bool
	workflowRPS       float64

	rejectedCount   int64
	rejectedCountMu sync.Mutex
}

// RateLimitConfig configures rate limiting behavior
type RateLimitConfig struct {
	// Global rate limit (requests per second across all nodes)
	GlobalRPS float64

	// Per-node-kind rate limits
	NodeKindRPS map[types.NodeKind]float64

	// Per-workflow rate limits (requests per second per workflow)
	WorkflowRPS float64

	EnableGlobal      bool
	EnablePerNodeKind bool
	EnablePerWorkflow bool
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalRPS:         100,
		WorkflowRPS:       10,
		EnableGlobal:      true,
		EnablePerNodeKind: false,
		EnablePerWorkflow: false,
		NodeKindRPS:       make(map[types.NodeKind]float64),
	}
}

// NewRateLimitMiddleware creates a new rate limiting middleware with default config
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return NewRateLimitMiddlewareWithConfig(DefaultRateLimitConfig())
}

// NewRateLimitMiddlewareWithConfig creates a new rate limiting middleware with custom config
func NewRateLimitMiddlewareWithConfig(config RateLimitConfig) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		nodeKindLimiters:  make(map[types.NodeKind]RateLimiter),
		workflowLimiters:  make(map[string]RateLimiter),
		enableGlobal:      config.EnableGlobal,
		enablePerNodeKind: config.EnablePerNodeKind,
		enablePerWorkflow: config.EnablePerWorkflow,
		workflowRPS:       config.WorkflowRPS,
	}

	if config.EnableGlobal && config.GlobalRPS > 0 {
		m.globalLimiter = NewTokenBucket(config.GlobalRPS, int64(config.GlobalRPS))
	}

	if config.EnablePerNodeKind {
		for kind, rps := range config.NodeKindRPS {
			if rps > 0 {
				m.nodeKindLimiters[kind] = NewTokenBucket(rps, int64(rps))
			}
		}
	}

	return m
}

// Process enforces rate limits before node execution
func (m *RateLimitMiddleware) Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error) {
	if m.enableGlobal && m.globalLimiter != nil {
		if !m.globalLimiter.Allow("global") {
			m.incrementRejected()
			return envelope.Envelope{}, fmt.Errorf("global rate limit exceeded")
		}
	}

	kind := ctx.Node().Kind
	if m.enablePerNodeKind {
		m.mu.RLock()
		limiter, exists := m.nodeKindLimiters[kind]
		m.mu.RUnlock()

		if exists && !limiter.Allow(string(kind)) {
			m.incrementRejected()
			return envelope.Envelope{}, fmt.Errorf("rate limit exceeded for node kind: %s", kind)
		}
	}

	if m.enablePerWorkflow {
		executionID := ctx.ExecutionID()
		if executionID != "" {
			limiter := m.getOrCreateWorkflowLimiter(executionID)
			if !limiter.Allow(executionID) {
				m.incrementRejected()
				return envelope.Envelope{}, fmt.Errorf("rate limit exceeded for execution: %s", executionID)
			}
		}
	}

	return next(ctx)
}

// Name returns the middleware name
func (m *RateLimitMiddleware) Name() string {
	return "RateLimit"
}

// GetRejectedCount returns the number of rejected requests
func (m *RateLimitMiddleware) GetRejectedCount() int64 {
	m.rejectedCountMu.Lock()
	defer m.rejectedCountMu.Unlock()
	return m.rejectedCount
}

func (m *RateLimitMiddleware) incrementRejected() {
	m.rejectedCountMu.Lock()
	m.rejectedCount++
	m.rejectedCountMu.Unlock()
}

// getOrCreateWorkflowLimiter gets or creates a rate limiter for an execution
func (m *RateLimitMiddleware) getOrCreateWorkflowLimiter(executionID string) RateLimiter {
	m.mu.RLock()
	limiter, exists := m.workflowLimiters[executionID]
	m.mu.RUnlock()

	if exists {
		return limiter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists = m.workflowLimiters[executionID]
	if exists {
		return limiter
	}

	limiter = NewTokenBucket(m.workflowRPS, int64(m.workflowRPS))
	m.workflowLimiters[executionID] = limiter
	return limiter
}

// TokenBucket implements the token bucket algorithm for rate limiting
type TokenBucket struct {
	rate       float64
	capacity   int64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(rate float64, capacity int64) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow checks if a request is allowed based on available tokens
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.tokens+elapsed*tb.rate, float64(tb.capacity))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	return false
}

// Reset clears the token bucket state
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = float64(tb.capacity)
	tb.lastRefill = time.Now()
}
