package llm

import (
	"context"

	"github.com/dipeo/execengine/pkg/ports"
)

// Fake is a scripted LLMServicePort for tests and the demo binary: it
// returns a canned response (or error) without making a network call.
type Fake struct {
	Response ports.LLMResponse
	Err      error

	// Calls records every request this fake received, for assertions.
	Calls []ports.LLMRequest
}

func (f *Fake) Complete(ctx context.Context, req ports.LLMRequest) (ports.LLMResponse, error) {
	f.Calls = append(f.Calls, req)
	if f.Err != nil {
		return ports.LLMResponse{}, f.Err
	}
	return f.Response, nil
}
