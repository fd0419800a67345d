package middleware

import (
	"strings"
	"testing"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/types"
)

func sizeLimitNode(id string) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindCodeJob}
}

func inputsWithValue(key string, value interface{}) map[string]envelope.Envelope {
	return map[string]envelope.Envelope{key: envelope.NewObject(value)}
}

// TestSizeLimitMiddleware_InputSizeLimit tests input size limiting
func TestSizeLimitMiddleware_InputSizeLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     100, // 100 bytes
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	node := sizeLimitNode("test")

	// Create mock context with large input
	largeInput := strings.Repeat("x", 200) // 200 bytes
	ctx := &fakeExecCtx{node: node}
	ctx.inputs = inputsWithValue("default", largeInput)

	handler := func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		return envelope.NewText("ok"), nil
	}

	_, err := m.Process(ctx, handler)
	if err == nil {
		t.Error("expected error for large input, got nil")
	}

	if !strings.Contains(err.Error(), "input size limit exceeded") {
		t.Errorf("expected size limit error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_ResultSizeLimit tests result size limiting
func TestSizeLimitMiddleware_ResultSizeLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxResultSize:     100, // 100 bytes
		EnforceResultSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &fakeExecCtx{node: sizeLimitNode("test")}

	// Handler returns large result
	largeResult := strings.Repeat("x", 200)
	handler := func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		return envelope.NewObject(largeResult), nil
	}

	_, err := m.Process(ctx, handler)
	if err == nil {
		t.Error("expected error for large result, got nil")
	}

	if !strings.Contains(err.Error(), "result size limit exceeded") {
		t.Errorf("expected result size limit error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_StringLengthLimit tests string length limiting
func TestSizeLimitMiddleware_StringLengthLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     1000, // Set high enough to not trigger first
		MaxStringLength:  50,
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &fakeExecCtx{node: sizeLimitNode("test")}

	longString := strings.Repeat("x", 100)
	ctx.inputs = inputsWithValue("default", longString)

	handler := func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		return envelope.NewText("ok"), nil
	}

	_, err := m.Process(ctx, handler)
	if err == nil {
		t.Error("expected error for long string, got nil")
	}

	if !strings.Contains(err.Error(), "string length") {
		t.Errorf("expected string length error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_ArrayLengthLimit tests array length limiting
func TestSizeLimitMiddleware_ArrayLengthLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     10000, // Set high enough to not trigger first
		MaxArrayLength:   10,
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &fakeExecCtx{node: sizeLimitNode("test")}

	// Create array with 20 elements
	longArray := make([]interface{}, 20)
	for i := 0; i < 20; i++ {
		longArray[i] = i
	}
	ctx.inputs = inputsWithValue("default", longArray)

	handler := func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		return envelope.NewText("ok"), nil
	}

	_, err := m.Process(ctx, handler)
	if err == nil {
		t.Error("expected error for long array, got nil")
	}

	if !strings.Contains(err.Error(), "array length") {
		t.Errorf("expected array length error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_AllowedInputs tests that allowed inputs pass
func TestSizeLimitMiddleware_AllowedInputs(t *testing.T) {
	m := NewSizeLimitMiddleware()
	ctx := &fakeExecCtx{node: sizeLimitNode("test")}
	ctx.inputs = map[string]envelope.Envelope{
		"a": envelope.NewText("hello"),
		"b": envelope.NewObject(42),
		"c": envelope.NewObject(true),
	}

	executionCount := 0
	handler := func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		executionCount++
		return envelope.NewText("ok"), nil
	}

	result, err := m.Process(ctx, handler)
	if err != nil {
		t.Errorf("expected no error for valid inputs, got: %v", err)
	}

	text, _ := result.Text()
	if text != "ok" {
		t.Errorf("expected 'ok', got %v", text)
	}

	if executionCount != 1 {
		t.Errorf("expected handler to be called once, got %d", executionCount)
	}
}

// TestSizeLimitMiddleware_DisabledLimits tests with limits disabled
func TestSizeLimitMiddleware_DisabledLimits(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:      10,
		MaxResultSize:     10,
		EnforceInputSize:  false,
		EnforceResultSize: false,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &fakeExecCtx{node: sizeLimitNode("test")}

	// Large input and result
	largeInput := strings.Repeat("x", 100)
	ctx.inputs = inputsWithValue("default", largeInput)

	largeResult := strings.Repeat("y", 100)
	handler := func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		return envelope.NewObject(largeResult), nil
	}

	result, err := m.Process(ctx, handler)
	if err != nil {
		t.Errorf("expected no error with disabled limits, got: %v", err)
	}

	if result.Body != largeResult {
		t.Error("result should be returned even if large when limits disabled")
	}
}

// TestSizeLimitMiddleware_Name tests the Name method
func TestSizeLimitMiddleware_Name(t *testing.T) {
	m := NewSizeLimitMiddleware()

	if m.Name() != "SizeLimit" {
		t.Errorf("expected 'SizeLimit', got %s", m.Name())
	}
}

// TestValidateWorkflowSize_NodeCount tests node count validation
func TestValidateWorkflowSize_NodeCount(t *testing.T) {
	config := SizeLimitConfig{
		MaxNodeCount: 5,
	}

	// Create 10 nodes
	nodes := make([]types.Node, 10)
	for i := 0; i < 10; i++ {
		nodes[i] = types.Node{ID: types.NodeID(string(rune('a' + i))), Kind: types.KindCodeJob}
	}

	err := ValidateWorkflowSize(nodes, []types.Edge{}, config)
	if err == nil {
		t.Error("expected error for too many nodes, got nil")
	}

	if !strings.Contains(err.Error(), "nodes") {
		t.Errorf("expected node count error, got: %v", err)
	}
}

// TestValidateWorkflowSize_EdgeCount tests edge count validation
func TestValidateWorkflowSize_EdgeCount(t *testing.T) {
	config := SizeLimitConfig{
		MaxEdgeCount: 5,
	}

	nodes := []types.Node{
		{ID: "1", Kind: types.KindCodeJob},
		{ID: "2", Kind: types.KindCodeJob},
	}

	// Create 10 edges
	edges := make([]types.Edge, 10)
	for i := 0; i < 10; i++ {
		edges[i] = types.Edge{Source: "1", Target: "2"}
	}

	err := ValidateWorkflowSize(nodes, edges, config)
	if err == nil {
		t.Error("expected error for too many edges, got nil")
	}

	if !strings.Contains(err.Error(), "edges") {
		t.Errorf("expected edge count error, got: %v", err)
	}
}

// TestValidateWorkflowSize_ValidWorkflow tests valid diagram passes
func TestValidateWorkflowSize_ValidWorkflow(t *testing.T) {
	config := DefaultSizeLimitConfig()

	nodes := []types.Node{
		{ID: "1", Kind: types.KindCodeJob},
		{ID: "2", Kind: types.KindCodeJob},
		{ID: "3", Kind: types.KindCodeJob},
	}

	edges := []types.Edge{
		{Source: "1", Target: "2"},
		{Source: "2", Target: "3"},
	}

	err := ValidateWorkflowSize(nodes, edges, config)
	if err != nil {
		t.Errorf("expected no error for valid diagram, got: %v", err)
	}
}

// TestSizeLimitMiddleware_NestedStructures tests nested data validation
func TestSizeLimitMiddleware_NestedStructures(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     1000, // Set high enough to not trigger first
		MaxStringLength:  20,
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &fakeExecCtx{node: sizeLimitNode("test")}

	// Nested structure with long string
	nestedData := map[string]interface{}{
		"outer": map[string]interface{}{
			"inner": strings.Repeat("x", 50), // Exceeds limit
		},
	}
	ctx.inputs = inputsWithValue("default", nestedData)

	handler := func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		return envelope.NewText("ok"), nil
	}

	_, err := m.Process(ctx, handler)
	if err == nil {
		t.Error("expected error for nested string exceeding limit, got nil")
	}
}
