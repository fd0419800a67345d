package handlers

import (
	"testing"

	"github.com/dipeo/execengine/pkg/types"
)

func TestStartHandler_EmitsVariablesAsObject(t *testing.T) {
	h := &StartHandler{}
	fc := newFakeCtx(types.Node{ID: "start", Kind: types.KindStart, Start: &types.StartParams{}})
	fc.variables = map[string]interface{}{"topic": "go", "count": 3.0}

	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	obj, err := out.Object()
	if err != nil {
		t.Fatalf("Object failed: %v", err)
	}
	m := obj.(map[string]interface{})
	if m["topic"] != "go" || m["count"] != 3.0 {
		t.Errorf("unexpected output %v", m)
	}
}

func TestStartHandler_NoVariablesYieldsEmptyObject(t *testing.T) {
	h := &StartHandler{}
	fc := newFakeCtx(types.Node{ID: "start", Kind: types.KindStart, Start: &types.StartParams{}})

	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	obj, err := out.Object()
	if err != nil {
		t.Fatalf("Object failed: %v", err)
	}
	if len(obj.(map[string]interface{})) != 0 {
		t.Errorf("expected empty object, got %v", obj)
	}
}
