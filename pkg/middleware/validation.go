package middleware

import (
	"fmt"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/types"
)

// ValidationMiddleware validates node configuration before execution.
// It delegates to a registry's Validate method, so the node's own checks
// and its handler's checks run at dispatch time. The compiler runs only
// the node's own checks.
type ValidationMiddleware struct {
	registry interface {
		Validate(node types.Node) error
	}
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(registry interface{ Validate(node types.Node) error }) *ValidationMiddleware {
	return &ValidationMiddleware{
		registry: registry,
	}
}

// Process validates node before execution
func (m *ValidationMiddleware) Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error) {
	if m.registry != nil {
		if err := m.registry.Validate(ctx.Node()); err != nil {
			return envelope.Envelope{}, fmt.Errorf("node validation failed: %w", err)
		}
	}

	return next(ctx)
}

// Name returns the middleware name
func (m *ValidationMiddleware) Name() string {
	return "Validation"
}

// InputValidationMiddleware validates node inputs before execution
type InputValidationMiddleware struct {
	maxInputSize int64 // Maximum size for text input values, in bytes
}

// NewInputValidationMiddleware creates a new input validation middleware
func NewInputValidationMiddleware(maxInputSize int64) *InputValidationMiddleware {
	return &InputValidationMiddleware{
		maxInputSize: maxInputSize,
	}
}

// Process validates inputs before execution
func (m *InputValidationMiddleware) Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error) {
	inputs := ctx.Inputs()

	if len(inputs) > 100 {
		return envelope.Envelope{}, fmt.Errorf("too many inputs: %d (max 100)", len(inputs))
	}

	for key, in := range inputs {
		text, err := in.Text()
		if err != nil {
			continue
		}
		if m.maxInputSize > 0 && int64(len(text)) > m.maxInputSize {
			return envelope.Envelope{}, fmt.Errorf("input %q too large: %d bytes (max %d)", key, len(text), m.maxInputSize)
		}
	}

	return next(ctx)
}

// Name returns the middleware name
func (m *InputValidationMiddleware) Name() string {
	return "InputValidation"
}
