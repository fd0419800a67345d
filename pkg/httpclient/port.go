package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dipeo/execengine/pkg/ports"
)

var _ ports.HttpCallerPort = (*PortAdapter)(nil)

// PortAdapter implements ports.HttpCallerPort on top of a Builder-built
// Client, so ApiJob/Hook(webhook) handlers never import net/http or the
// SSRF guard directly.
type PortAdapter struct {
	client *Client
}

// NewPortAdapter builds the default client configuration and wraps it as
// a ports.HttpCallerPort.
func NewPortAdapter(builder *Builder) (*PortAdapter, error) {
	client, err := builder.Build(&ClientConfig{Name: "api-job"})
	if err != nil {
		return nil, fmt.Errorf("httpclient: build default client: %w", err)
	}
	return &PortAdapter{client: client}, nil
}

// Do issues the request and returns its status and body.
func (a *PortAdapter) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, []byte, error) {
	if err := a.client.config.Validate(); err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("httpclient: read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
