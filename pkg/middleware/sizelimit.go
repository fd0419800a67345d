package middleware

import (
	"encoding/json"
	"fmt"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/types"
)

// SizeLimitMiddleware enforces size limits to prevent memory exhaustion
type SizeLimitMiddleware struct {
	maxInputSize      int64 // Maximum size of input data per node (bytes)
	maxResultSize     int64 // Maximum size of result data per node (bytes)
	maxStringLength   int   // Maximum length of string values
	maxArrayLength    int   // Maximum length of arrays
	maxWorkflowSize   int64 // Maximum total diagram size (all nodes + edges)
	maxNodeCount      int   // Maximum number of nodes
	maxEdgeCount      int   // Maximum number of edges
	enforceInputSize  bool  // Whether to enforce input size limits
	enforceResultSize bool  // Whether to enforce result size limits
}

// SizeLimitConfig configures size limit enforcement
type SizeLimitConfig struct {
	// Per-node limits
	MaxInputSize    int64 // Maximum input size per node (default: 10MB)
	MaxResultSize   int64 // Maximum result size per node (default: 50MB)
	MaxStringLength int   // Maximum string length (default: 1MB)
	MaxArrayLength  int   // Maximum array length (default: 10000)

	// Diagram limits
	MaxWorkflowSize int64 // Maximum total diagram size (default: 100MB)
	MaxNodeCount    int   // Maximum nodes in diagram (default: 1000)
	MaxEdgeCount    int   // Maximum edges in diagram (default: 5000)

	EnforceInputSize  bool // Enforce input size limits (default: true)
	EnforceResultSize bool // Enforce result size limits (default: true)
}

// DefaultSizeLimitConfig returns default size limit configuration
func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxInputSize:      10 * 1024 * 1024,  // 10 MB
		MaxResultSize:     50 * 1024 * 1024,  // 50 MB
		MaxStringLength:   1 * 1024 * 1024,   // 1 MB
		MaxArrayLength:    10000,             // 10k elements
		MaxWorkflowSize:   100 * 1024 * 1024, // 100 MB
		MaxNodeCount:      1000,
		MaxEdgeCount:      5000,
		EnforceInputSize:  true,
		EnforceResultSize: true,
	}
}

// NewSizeLimitMiddleware creates a new size limit middleware with default config
func NewSizeLimitMiddleware() *SizeLimitMiddleware {
	return NewSizeLimitMiddlewareWithConfig(DefaultSizeLimitConfig())
}

// NewSizeLimitMiddlewareWithConfig creates a new size limit middleware with custom config
func NewSizeLimitMiddlewareWithConfig(config SizeLimitConfig) *SizeLimitMiddleware {
	return &SizeLimitMiddleware{
		maxInputSize:      config.MaxInputSize,
		maxResultSize:     config.MaxResultSize,
		maxStringLength:   config.MaxStringLength,
		maxArrayLength:    config.MaxArrayLength,
		maxWorkflowSize:   config.MaxWorkflowSize,
		maxNodeCount:      config.MaxNodeCount,
		maxEdgeCount:      config.MaxEdgeCount,
		enforceInputSize:  config.EnforceInputSize,
		enforceResultSize: config.EnforceResultSize,
	}
}

// Process enforces size limits on inputs and the result envelope
func (m *SizeLimitMiddleware) Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error) {
	if m.enforceInputSize {
		if err := m.validateInputSize(ctx.Inputs()); err != nil {
			return envelope.Envelope{}, fmt.Errorf("input size limit exceeded: %w", err)
		}
	}

	result, err := next(ctx)
	if err != nil {
		return result, err
	}

	if m.enforceResultSize {
		if err := m.validateResultSize(result); err != nil {
			return envelope.Envelope{}, fmt.Errorf("result size limit exceeded: %w", err)
		}
	}

	return result, nil
}

// Name returns the middleware name
func (m *SizeLimitMiddleware) Name() string {
	return "SizeLimit"
}

// validateInputSize validates the size of every resolved input envelope
func (m *SizeLimitMiddleware) validateInputSize(inputs map[string]envelope.Envelope) error {
	for key, in := range inputs {
		size, err := estimateSize(in.Body)
		if err != nil {
			return fmt.Errorf("failed to estimate size of input %q: %w", key, err)
		}

		if size > m.maxInputSize {
			return fmt.Errorf("input %q size %d bytes exceeds limit %d bytes", key, size, m.maxInputSize)
		}

		if err := m.validateValue(in.Body); err != nil {
			return fmt.Errorf("input %q validation failed: %w", key, err)
		}
	}

	return nil
}

// validateResultSize validates the size of a handler's result envelope
func (m *SizeLimitMiddleware) validateResultSize(result envelope.Envelope) error {
	size, err := estimateSize(result.Body)
	if err != nil {
		return fmt.Errorf("failed to estimate result size: %w", err)
	}

	if size > m.maxResultSize {
		return fmt.Errorf("result size %d bytes exceeds limit %d bytes", size, m.maxResultSize)
	}

	return m.validateValue(result.Body)
}

// validateValue validates type-specific limits
func (m *SizeLimitMiddleware) validateValue(value interface{}) error {
	switch v := value.(type) {
	case string:
		if m.maxStringLength > 0 && len(v) > m.maxStringLength {
			return fmt.Errorf("string length %d exceeds limit %d", len(v), m.maxStringLength)
		}
	case []interface{}:
		if m.maxArrayLength > 0 && len(v) > m.maxArrayLength {
			return fmt.Errorf("array length %d exceeds limit %d", len(v), m.maxArrayLength)
		}
		for i, elem := range v {
			if err := m.validateValue(elem); err != nil {
				return fmt.Errorf("array element %d: %w", i, err)
			}
		}
	case map[string]interface{}:
		for key, val := range v {
			if err := m.validateValue(val); err != nil {
				return fmt.Errorf("map key %s: %w", key, err)
			}
		}
	}

	return nil
}

// estimateSize estimates the size of a value in bytes using JSON
// marshaling as a rough, dependency-free approximation.
func estimateSize(value interface{}) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// ValidateWorkflowSize validates diagram size limits.
// This should be called before diagram execution, separately from the
// per-node middleware chain.
func ValidateWorkflowSize(nodes []types.Node, edges []types.Edge, config SizeLimitConfig) error {
	if config.MaxNodeCount > 0 && len(nodes) > config.MaxNodeCount {
		return fmt.Errorf("diagram has %d nodes, exceeds limit of %d", len(nodes), config.MaxNodeCount)
	}

	if config.MaxEdgeCount > 0 && len(edges) > config.MaxEdgeCount {
		return fmt.Errorf("diagram has %d edges, exceeds limit of %d", len(edges), config.MaxEdgeCount)
	}

	if config.MaxWorkflowSize > 0 {
		type diagram struct {
			Nodes []types.Node `json:"nodes"`
			Edges []types.Edge `json:"edges"`
		}

		d := diagram{Nodes: nodes, Edges: edges}
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal diagram for size check: %w", err)
		}

		size := int64(len(data))
		if size > config.MaxWorkflowSize {
			return fmt.Errorf("diagram size %d bytes exceeds limit %d bytes", size, config.MaxWorkflowSize)
		}
	}

	return nil
}
