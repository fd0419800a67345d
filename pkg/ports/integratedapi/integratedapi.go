// Package integratedapi implements ports.IntegratedApiPort against a small
// set of built-in provider templates (Notion, Slack, GitHub), each mapping
// an operation name to a REST call. It borrows httpclient's Builder for
// transport construction rather than rolling its own; that client does not
// follow redirects, and request URLs are not SSRF-checked.
package integratedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/httpclient"
	"github.com/dipeo/execengine/pkg/types"
)

// Template describes one operation: the endpoint, the HTTP method, and how
// the API key is carried.
type Template struct {
	Method     string
	URL        func(params map[string]string) string
	AuthHeader string
	AuthPrefix string
}

// Client dispatches operations through provider templates over a shared
// *http.Client built by httpclient.Builder.
type Client struct {
	http      *http.Client
	templates map[types.IntegratedProvider]map[string]Template
}

// New builds a Client using builder for transport construction (timeouts,
// connection pooling, redirect policy) and the default provider template set.
func New(builder *httpclient.Builder) (*Client, error) {
	hc, err := builder.Build(&httpclient.ClientConfig{Name: "integrated-api"})
	if err != nil {
		return nil, fmt.Errorf("integratedapi: build http client: %w", err)
	}
	return &Client{http: hc.Client, templates: defaultTemplates()}, nil
}

func defaultTemplates() map[types.IntegratedProvider]map[string]Template {
	return map[types.IntegratedProvider]map[string]Template{
		types.ProviderNotion: {
			"get_page": {
				Method:     http.MethodGet,
				URL:        func(p map[string]string) string { return "https://api.notion.com/v1/pages/" + p["page_id"] },
				AuthHeader: "Authorization",
				AuthPrefix: "Bearer ",
			},
			"query_database": {
				Method:     http.MethodPost,
				URL:        func(p map[string]string) string { return "https://api.notion.com/v1/databases/" + p["database_id"] + "/query" },
				AuthHeader: "Authorization",
				AuthPrefix: "Bearer ",
			},
			"append_block": {
				Method:     http.MethodPatch,
				URL:        func(p map[string]string) string { return "https://api.notion.com/v1/blocks/" + p["block_id"] + "/children" },
				AuthHeader: "Authorization",
				AuthPrefix: "Bearer ",
			},
		},
		types.ProviderSlack: {
			"post_message": {
				Method:     http.MethodPost,
				URL:        func(map[string]string) string { return "https://slack.com/api/chat.postMessage" },
				AuthHeader: "Authorization",
				AuthPrefix: "Bearer ",
			},
			"list_channels": {
				Method:     http.MethodGet,
				URL:        func(map[string]string) string { return "https://slack.com/api/conversations.list" },
				AuthHeader: "Authorization",
				AuthPrefix: "Bearer ",
			},
		},
		types.ProviderGithub: {
			"create_issue": {
				Method:     http.MethodPost,
				URL:        func(p map[string]string) string { return "https://api.github.com/repos/" + p["owner"] + "/" + p["repo"] + "/issues" },
				AuthHeader: "Authorization",
				AuthPrefix: "token ",
			},
			"get_repo": {
				Method:     http.MethodGet,
				URL:        func(p map[string]string) string { return "https://api.github.com/repos/" + p["owner"] + "/" + p["repo"] },
				AuthHeader: "Authorization",
				AuthPrefix: "token ",
			},
		},
	}
}

// Invoke implements ports.IntegratedApiPort.
func (c *Client) Invoke(ctx context.Context, provider types.IntegratedProvider, operation string, params map[string]string, apiKey string) (envelope.Envelope, error) {
	providerTemplates, ok := c.templates[provider]
	if !ok {
		return envelope.Envelope{}, fmt.Errorf("integratedapi: unknown provider %q", provider)
	}
	tmpl, ok := providerTemplates[operation]
	if !ok {
		return envelope.Envelope{}, fmt.Errorf("integratedapi: provider %q has no operation %q", provider, operation)
	}

	var body io.Reader
	if tmpl.Method == http.MethodPost || tmpl.Method == http.MethodPatch || tmpl.Method == http.MethodPut {
		payload, err := json.Marshal(params)
		if err != nil {
			return envelope.Envelope{}, fmt.Errorf("integratedapi: marshal params: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, tmpl.Method, tmpl.URL(params), body)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("integratedapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if provider == types.ProviderNotion {
		req.Header.Set("Notion-Version", "2022-06-28")
	}
	if apiKey != "" {
		req.Header.Set(tmpl.AuthHeader, tmpl.AuthPrefix+apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("integratedapi: %s %s: %w", provider, operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("integratedapi: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return envelope.Envelope{}, fmt.Errorf("integratedapi: %s %s: status %d: %s", provider, operation, resp.StatusCode, string(respBody))
	}

	var parsed interface{}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return envelope.NewText(string(respBody)), nil
	}
	return envelope.NewObject(parsed), nil
}
