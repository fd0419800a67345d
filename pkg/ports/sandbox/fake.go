// Package sandbox provides SandboxPort implementations for CodeJob and
// Hook(python) nodes. No real interpreter ships in this module — running
// arbitrary user code in-process is out of scope — so Fake is the only
// implementation; it exists for tests and the demo binary.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dipeo/execengine/pkg/ports"
)

// Fake evaluates scripted outcomes keyed by language, standing in for a
// real interpreter.
type Fake struct {
	// Results maps a language name to the result returned for any code
	// run under it. Languages not present here return an error.
	Results map[string]ports.SandboxResult

	// Calls records every invocation, for assertions.
	Calls []Call
}

// Call is one recorded Run invocation.
type Call struct {
	Language string
	Code     string
	Input    interface{}
}

func (f *Fake) Run(ctx context.Context, language string, code string, input interface{}, _ time.Duration) (ports.SandboxResult, error) {
	f.Calls = append(f.Calls, Call{Language: language, Code: code, Input: input})
	result, ok := f.Results[language]
	if !ok {
		return ports.SandboxResult{}, fmt.Errorf("sandbox: no fake result registered for language %q", language)
	}
	return result, nil
}
