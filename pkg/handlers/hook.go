package handlers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// HookHandler runs an out-of-band side effect: a shell command, a
// webhook POST, or (delegated to the SandboxPort) a python snippet.
type HookHandler struct {
	// ShellTimeout bounds shell sub-kind execution.
	ShellTimeout time.Duration
}

func (h *HookHandler) Kind() types.NodeKind { return types.KindHook }

func (h *HookHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.Hook
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("hook")
	}

	switch p.Kind {
	case types.HookShell:
		return h.runShell(ctx, p)
	case types.HookWebhook:
		return h.runWebhook(ctx, p)
	case types.HookPython:
		return h.runPython(ctx, p)
	default:
		return envelope.Envelope{}, fmt.Errorf("hook %s: unsupported hook_kind %q", node.ID, p.Kind)
	}
}

func (h *HookHandler) runShell(ctx ExecutionContext, p *types.HookParams) (envelope.Envelope, error) {
	timeout := h.ShellTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx.Context(), timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "sh", "-c", p.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return envelope.Envelope{}, fmt.Errorf("hook shell: %w: %s", err, stderr.String())
	}
	return envelope.NewText(stdout.String()), nil
}

func (h *HookHandler) runWebhook(ctx ExecutionContext, p *types.HookParams) (envelope.Envelope, error) {
	caller := ctx.Ports().Http
	if caller == nil {
		return envelope.Envelope{}, fmt.Errorf("hook webhook: no HttpCallerPort configured")
	}
	body := combineInputs(ctx.Inputs())
	status, resp, err := caller.Do(ctx.Context(), "POST", p.URL, nil, []byte(body))
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("hook webhook: %w", err)
	}
	if status >= 400 {
		return envelope.Envelope{}, fmt.Errorf("hook webhook: http %d: %s", status, string(resp))
	}
	return envelope.NewText(string(resp)), nil
}

func (h *HookHandler) runPython(ctx ExecutionContext, p *types.HookParams) (envelope.Envelope, error) {
	sandbox := ctx.Ports().Sandbox
	if sandbox == nil {
		return envelope.Envelope{}, fmt.Errorf("hook python: no SandboxPort configured")
	}
	input := inputsAsObject(ctx.Inputs())
	result, err := sandbox.Run(ctx.Context(), "python", p.Code, input, 30*time.Second)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("hook python: %w", err)
	}
	return envelope.NewObject(result.Output), nil
}

func (h *HookHandler) Validate(node types.Node) error {
	return nil
}
