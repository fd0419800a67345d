// Package expression evaluates the boolean and value expressions a
// Condition node's params carry, against the node's resolved input
// envelopes and the execution's scalar variables. It compiles through
// expr-lang/expr rather than hand-rolling a parser.
package expression

import (
	"math"
	"regexp"
	"sync"

	"github.com/dipeo/execengine/pkg/envelope"
)

// Context carries the values an expression may reference: the resolved
// envelope for each input edge feeding the node, keyed by input slot,
// and the execution's scalar variables (loop counters and the engine's
// reserved max-iteration flags).
type Context struct {
	Inputs    map[string]envelope.Envelope
	Variables map[string]interface{}
}

var (
	globalEngine *ExprEngine
	engineOnce   sync.Once
)

func getEngine() *ExprEngine {
	engineOnce.Do(func() {
		globalEngine = NewExprEngine()
	})
	return globalEngine
}

// Evaluate compiles expression and runs it against input (the node's
// combined inputs, already joined to text by the caller) and ctx,
// requiring the result to be a boolean. Supports:
//   - Simple comparisons against the bare input: ">100", "==5", "!=0"
//   - Input slot references: "inputs.approval.status == 'approved'"
//   - Variable references: "variables.retries < 3"
//   - Boolean operators: "&&", "||", "!"
//   - String and collection functions: contains, startsWith, map, etc.
func Evaluate(expression string, input interface{}, ctx *Context) (bool, error) {
	return getEngine().EvaluateBoolean(expression, input, ctx)
}

// EvaluateExpression evaluates expression and returns its raw result
// rather than coercing it to a boolean.
func EvaluateExpression(expression string, input interface{}, ctx *Context) (interface{}, error) {
	return getEngine().EvaluateValue(expression, input, ctx)
}

var inputRefPattern = regexp.MustCompile(`inputs\.([a-zA-Z0-9_-]+)`)

// ExtractDependencies returns the input slot names an expression
// references via "inputs.<slot>", so a diagram can be validated without
// compiling every condition's expression.
func ExtractDependencies(expression string) []string {
	var deps []string
	seen := make(map[string]bool)
	for _, match := range inputRefPattern.FindAllStringSubmatch(expression, -1) {
		slot := match[1]
		if !seen[slot] {
			deps = append(deps, slot)
			seen[slot] = true
		}
	}
	return deps
}

// EvaluateArithmetic evaluates expression against ctx's variables and
// coerces the result to float64. Used by tests and by callers that only
// care about a numeric result, not the full range of value types
// EvaluateExpression can return. A non-finite result, such as the +Inf
// of a division by zero, is returned as an error.
func EvaluateArithmetic(expression string, ctx *Context) (float64, error) {
	result, err := getEngine().EvaluateValue(expression, nil, ctx)
	if err != nil {
		return 0, err
	}
	if num, ok := toFloat64(result); ok {
		if math.IsInf(num, 0) || math.IsNaN(num) {
			return 0, newExpressionErrorWithCause(expression, "arithmetic result is not a finite number", ErrEvaluationFailed)
		}
		return num, nil
	}
	return 0, nil
}
