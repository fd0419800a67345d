package handlers

import (
	"testing"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

func integratedApiNode(id string, p types.IntegratedApiParams) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindIntegratedApi, IntegratedApi: &p}
}

func TestIntegratedApiHandler_ResolvesApiKeyAndInvokes(t *testing.T) {
	integrated := &fakeIntegrated{Result: envelope.NewText("done")}
	keys := &fakeApiKeys{keys: map[string]string{"slack-token": "xoxb-secret"}}
	fc := newFakeCtx(integratedApiNode("i1", types.IntegratedApiParams{
		Provider: types.ProviderSlack, Operation: "post_message", ApiKeyID: "slack-token",
		Params: map[string]string{"channel": "#general"},
	}))
	fc.ports = PortBundle{Integrated: integrated, ApiKeys: keys}
	fc.inputs = map[string]envelope.Envelope{"text": envelope.NewText("hello")}

	h := &IntegratedApiHandler{}
	out, err := h.Execute(fc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text, _ := out.Text()
	if text != "done" {
		t.Errorf("expected passthrough result, got %q", text)
	}
	if integrated.LastAPIKey != "xoxb-secret" {
		t.Errorf("expected resolved api key forwarded, got %q", integrated.LastAPIKey)
	}
	if integrated.LastParams["channel"] != "#general" || integrated.LastParams["text"] != "hello" {
		t.Errorf("expected static params merged with inputs, got %v", integrated.LastParams)
	}
}

func TestIntegratedApiHandler_MissingApiKeyPortErrors(t *testing.T) {
	integrated := &fakeIntegrated{}
	fc := newFakeCtx(integratedApiNode("i1", types.IntegratedApiParams{
		Provider: types.ProviderSlack, Operation: "post_message", ApiKeyID: "slack-token",
	}))
	fc.ports = PortBundle{Integrated: integrated}

	h := &IntegratedApiHandler{}
	if _, err := h.Execute(fc); err == nil {
		t.Fatal("expected error when api_key_id is set but no ApiKeyPort is configured")
	}
}

func TestIntegratedApiHandler_NoApiKeyIDSkipsResolution(t *testing.T) {
	integrated := &fakeIntegrated{Result: envelope.NewText("ok")}
	fc := newFakeCtx(integratedApiNode("i1", types.IntegratedApiParams{
		Provider: types.ProviderGithub, Operation: "list_issues",
	}))
	fc.ports = PortBundle{Integrated: integrated}

	h := &IntegratedApiHandler{}
	if _, err := h.Execute(fc); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if integrated.LastAPIKey != "" {
		t.Errorf("expected no api key resolved, got %q", integrated.LastAPIKey)
	}
}

func TestIntegratedApiHandler_MissingIntegratedPortErrors(t *testing.T) {
	fc := newFakeCtx(integratedApiNode("i1", types.IntegratedApiParams{Provider: types.ProviderNotion, Operation: "create_page"}))
	h := &IntegratedApiHandler{}
	if _, err := h.Execute(fc); err == nil {
		t.Fatal("expected error when no IntegratedApiPort is configured")
	}
}
