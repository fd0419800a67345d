// Package events defines the domain event model emitted by the execution
// engine as a diagram runs: execution-level lifecycle events and
// per-node lifecycle events, each stamped with a per-execution sequence
// number so subscribers can detect gaps and reorder if needed.
package events

import (
	"encoding/json"
	"time"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// Type identifies the kind of domain event.
type Type string

const (
	ExecutionStarted   Type = "EXECUTION_STARTED"
	ExecutionCompleted Type = "EXECUTION_COMPLETED"
	ExecutionError     Type = "EXECUTION_ERROR"
	ExecutionAborted   Type = "EXECUTION_ABORTED"
	NodeStarted        Type = "NODE_STARTED"
	NodeCompleted      Type = "NODE_COMPLETED"
	NodeError          Type = "NODE_ERROR"
)

// Scope identifies which execution (and, for sub-diagrams, which parent)
// an event belongs to.
type Scope struct {
	ExecutionID       string `json:"execution_id"`
	ParentExecutionID string `json:"parent_execution_id,omitempty"`
}

// Meta carries bookkeeping fields stamped onto every event by the pipeline.
type Meta struct {
	Seq             uint64    `json:"seq"`
	Timestamp       time.Time `json:"timestamp"`
	PipelineUptimeMs int64    `json:"pipeline_uptime_ms"`
}

// DomainEvent is the wire/observer representation of a single occurrence
// in an execution's lifecycle.
type DomainEvent struct {
	Type    Type                   `json:"type"`
	Scope   Scope                  `json:"scope"`
	Meta    Meta                   `json:"meta"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// OutputSummary truncates a node's output envelope into a small
// subscriber-friendly shape: text bodies get a 100-char truncation, object
// bodies get their top-level key count, and list/array bodies get their
// length, so streaming subscribers see shape and size without full
// payloads going out on every event.
func OutputSummary(env envelope.Envelope) map[string]interface{} {
	summary := map[string]interface{}{}
	if text, err := env.Text(); err == nil {
		if len(text) > 100 {
			summary["text_preview"] = text[:100]
			summary["text_truncated"] = true
		} else {
			summary["text_preview"] = text
			summary["text_truncated"] = false
		}
	}
	obj, err := env.Object()
	if err != nil {
		return summary
	}
	switch v := obj.(type) {
	case map[string]interface{}:
		summary["object_keys"] = len(v)
	case []interface{}:
		summary["list_length"] = len(v)
	}
	return summary
}

// LLMUsage is extracted from an envelope's metadata labels when present
// (PersonJob handlers stamp prompt/output token counts there).
type LLMUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func llmUsageFrom(env envelope.Envelope) (LLMUsage, bool) {
	prompt, okP := env.Meta.Labels["llm_prompt_tokens"]
	output, okO := env.Meta.Labels["llm_output_tokens"]
	if !okP && !okO {
		return LLMUsage{}, false
	}
	var usage LLMUsage
	json.Unmarshal([]byte(prompt), &usage.PromptTokens) //nolint:errcheck
	json.Unmarshal([]byte(output), &usage.OutputTokens)  //nolint:errcheck
	return usage, true
}

func nodeEventPayload(node types.Node, extra map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"node_id":   string(node.ID),
		"node_kind": string(node.Kind),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}
