package middleware

import (
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/logging"
)

// LoggingMiddleware logs node execution start and completion.
// It records execution time and logs errors if execution fails.
type LoggingMiddleware struct {
	logger *logging.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *logging.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// Process logs node execution
func (m *LoggingMiddleware) Process(ctx handlers.ExecutionContext, next Handler) (envelope.Envelope, error) {
	node := ctx.Node()
	nodeLogger := m.logger.
		WithNodeID(node.ID).
		WithNodeKind(node.Kind)

	nodeLogger.Debug("node execution started")
	startTime := time.Now()

	result, err := next(ctx)

	duration := time.Since(startTime)

	if err != nil {
		nodeLogger.
			WithError(err).
			WithField("duration_ms", duration.Milliseconds()).
			Error("node execution failed")
	} else {
		nodeLogger.
			WithField("duration_ms", duration.Milliseconds()).
			Debug("node execution completed")
	}

	return result, err
}

// Name returns the middleware name
func (m *LoggingMiddleware) Name() string {
	return "Logging"
}
