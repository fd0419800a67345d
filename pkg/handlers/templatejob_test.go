package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

func templateJobNode(id, template, outputPath string) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindTemplateJob, TemplateJob: &types.TemplateJobParams{
		Template: template, OutputPath: outputPath,
	}}
}

func TestTemplateJobHandler_InterpolatesVariable(t *testing.T) {
	fc := newFakeCtx(templateJobNode("t1", "hello {{name}}", ""))
	fc.inputs = map[string]envelope.Envelope{"name": envelope.NewText("ada")}

	h := &TemplateJobHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "hello ada" {
		t.Errorf("expected %q, got %q", "hello ada", text)
	}
}

func TestTemplateJobHandler_IfBlockRendersOnlyWhenTruthy(t *testing.T) {
	fc := newFakeCtx(templateJobNode("t1", "{% if active %}on{% endif %}", ""))
	fc.inputs = map[string]envelope.Envelope{"active": envelope.NewObject(true)}

	h := &TemplateJobHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "on" {
		t.Errorf("expected %q, got %q", "on", text)
	}
}

func TestTemplateJobHandler_IfBlockSkippedWhenFalsy(t *testing.T) {
	fc := newFakeCtx(templateJobNode("t1", "x{% if active %}on{% endif %}y", ""))
	fc.inputs = map[string]envelope.Envelope{"active": envelope.NewObject(false)}

	h := &TemplateJobHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "xy" {
		t.Errorf("expected %q, got %q", "xy", text)
	}
}

func TestTemplateJobHandler_ForLoopExpandsItems(t *testing.T) {
	fc := newFakeCtx(templateJobNode("t1", "{% for n in items %}[{{n}}]{% endfor %}", ""))
	fc.inputs = map[string]envelope.Envelope{"items": envelope.NewObject([]interface{}{"a", "b", "c"})}

	h := &TemplateJobHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "[a][b][c]" {
		t.Errorf("expected %q, got %q", "[a][b][c]", text)
	}
}

func TestTemplateJobHandler_InputsTakePrecedenceOverVariables(t *testing.T) {
	fc := newFakeCtx(templateJobNode("t1", "{{name}}", ""))
	fc.inputs = map[string]envelope.Envelope{"name": envelope.NewText("from-input")}
	fc.variables = map[string]interface{}{"name": "from-variables"}

	h := &TemplateJobHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "from-input" {
		t.Errorf("expected inputs to take precedence, got %q", text)
	}
}

func TestTemplateJobHandler_FallsBackToVariablesWhenNoInput(t *testing.T) {
	fc := newFakeCtx(templateJobNode("t1", "{{name}}", ""))
	fc.variables = map[string]interface{}{"name": "from-variables"}

	h := &TemplateJobHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "from-variables" {
		t.Errorf("expected %q, got %q", "from-variables", text)
	}
}

func TestTemplateJobHandler_WritesOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	fc := newFakeCtx(templateJobNode("t1", "hello {{name}}", path))
	fc.inputs = map[string]envelope.Envelope{"name": envelope.NewText("ada")}

	h := &TemplateJobHandler{}
	if _, err := h.Execute(fc); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello ada" {
		t.Errorf("expected file content %q, got %q", "hello ada", data)
	}
}
