package handlers

import (
	"errors"
	"testing"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/ports"
	"github.com/dipeo/execengine/pkg/types"
)

func hookNode(id string, p types.HookParams) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindHook, Hook: &p}
}

func TestHookHandler_ShellRunsCommandAndCapturesStdout(t *testing.T) {
	fc := newFakeCtx(hookNode("h1", types.HookParams{Kind: types.HookShell, Command: "printf hi"}))

	h := &HookHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "hi" {
		t.Errorf("expected stdout %q, got %q", "hi", text)
	}
}

func TestHookHandler_ShellNonZeroExitErrors(t *testing.T) {
	fc := newFakeCtx(hookNode("h1", types.HookParams{Kind: types.HookShell, Command: "exit 1"}))

	h := &HookHandler{}
	if _, err := h.Execute(fc); err == nil {
		t.Fatal("expected non-zero exit to return an error")
	}
}

func TestHookHandler_WebhookPostsCombinedInput(t *testing.T) {
	http := &fakeHTTP{Status: 200, Body: []byte("received")}
	fc := newFakeCtx(hookNode("h1", types.HookParams{Kind: types.HookWebhook, URL: "https://example.test/hook"}))
	fc.ports = PortBundle{Http: http}
	fc.inputs = map[string]envelope.Envelope{"default": envelope.NewText("payload")}

	h := &HookHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "received" {
		t.Errorf("expected response body passthrough, got %q", text)
	}
	if http.LastMethod != "POST" {
		t.Errorf("expected POST, got %q", http.LastMethod)
	}
}

func TestHookHandler_WebhookMissingHttpPortErrors(t *testing.T) {
	fc := newFakeCtx(hookNode("h1", types.HookParams{Kind: types.HookWebhook, URL: "https://example.test/hook"}))
	h := &HookHandler{}
	if _, err := h.Execute(fc); err == nil {
		t.Fatal("expected error when no HttpCallerPort is configured")
	}
}

func TestHookHandler_PythonDelegatesToSandbox(t *testing.T) {
	sandbox := &fakeSandbox{Result: ports.SandboxResult{Output: map[string]interface{}{"ok": true}}}
	fc := newFakeCtx(hookNode("h1", types.HookParams{Kind: types.HookPython, Code: "return 1"}))
	fc.ports = PortBundle{Sandbox: sandbox}

	h := &HookHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	obj, err := out.Object()
	if err != nil {
		t.Fatalf("Object failed: %v", err)
	}
	if obj.(map[string]interface{})["ok"] != true {
		t.Errorf("expected sandbox output passthrough, got %v", obj)
	}
}

func TestHookHandler_PythonSandboxErrorPropagates(t *testing.T) {
	sandbox := &fakeSandbox{Err: errors.New("boom")}
	fc := newFakeCtx(hookNode("h1", types.HookParams{Kind: types.HookPython, Code: "return 1"}))
	fc.ports = PortBundle{Sandbox: sandbox}

	h := &HookHandler{}
	if _, err := h.Execute(fc); err == nil {
		t.Fatal("expected sandbox error to propagate")
	}
}
