// Package envelope defines the value-carrier type that flows across every
// edge in an executable diagram. A handler produces one Envelope per
// output; the input resolver picks whichever representation the
// downstream node asked for, synthesizing it from the body when the
// handler didn't compute it directly.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Representation names the accessor a consumer asked for.
type Representation string

const (
	RepText         Representation = "text"
	RepObject       Representation = "object"
	RepConversation Representation = "conversation"
)

// Message is one turn of a conversation representation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Meta carries provenance the engine and observers attach to an envelope
// without requiring a handler to know about them.
type Meta struct {
	ProducedByNode string            `json:"produced_by_node,omitempty"`
	OutputKey      string            `json:"output_key,omitempty"`
	Labels         map[string]string `json:"labels,omitempty"`
}

// Envelope is the value a handler returns for one output slot. Body holds
// the canonical value the handler computed; Representations caches
// alternate views already computed by the handler so repeated access
// doesn't re-synthesize them.
type Envelope struct {
	Body            interface{}
	representations map[Representation]interface{}
	Meta            Meta
}

// New wraps an arbitrary value as the canonical body of a fresh envelope.
func New(body interface{}) Envelope {
	return Envelope{Body: body}
}

// NewText builds an envelope whose canonical body and text representation
// are both the given string.
func NewText(s string) Envelope {
	e := New(s)
	e.representations = map[Representation]interface{}{RepText: s}
	return e
}

// NewObject builds an envelope whose canonical body is a structured value.
func NewObject(v interface{}) Envelope {
	e := New(v)
	e.representations = map[Representation]interface{}{RepObject: v}
	return e
}

// NewConversation builds an envelope carrying a conversation transcript.
func NewConversation(messages []Message) Envelope {
	e := New(messages)
	e.representations = map[Representation]interface{}{RepConversation: messages}
	return e
}

// WithRepresentation returns a copy of e with an explicit precomputed
// representation attached, bypassing synthesis for that accessor.
func (e Envelope) WithRepresentation(rep Representation, v interface{}) Envelope {
	out := e.clone()
	out.representations[rep] = v
	return out
}

// WithMeta returns a copy of e with Meta replaced.
func (e Envelope) WithMeta(m Meta) Envelope {
	out := e.clone()
	out.Meta = m
	return out
}

func (e Envelope) clone() Envelope {
	reps := make(map[Representation]interface{}, len(e.representations)+1)
	for k, v := range e.representations {
		reps[k] = v
	}
	return Envelope{Body: e.Body, representations: reps, Meta: e.Meta}
}

// Text returns the text representation, synthesizing it from Body when
// the handler didn't precompute one: strings pass through unchanged,
// everything else is JSON-marshaled.
func (e Envelope) Text() (string, error) {
	if v, ok := e.representations[RepText]; ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	switch v := e.Body.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("envelope: synthesize text representation: %w", err)
		}
		return string(b), nil
	}
}

// Object returns the structured representation, synthesizing it from Body
// when the handler didn't precompute one: a string body is parsed as
// JSON; anything already structured passes through.
func (e Envelope) Object() (interface{}, error) {
	if v, ok := e.representations[RepObject]; ok {
		return v, nil
	}
	switch v := e.Body.(type) {
	case string:
		var parsed interface{}
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, fmt.Errorf("envelope: synthesize object representation: body is not valid JSON: %w", err)
		}
		return parsed, nil
	default:
		return v, nil
	}
}

// Conversation returns the conversation representation, synthesizing a
// single user-role message from the text representation when the
// handler didn't precompute a transcript.
func (e Envelope) Conversation() ([]Message, error) {
	if v, ok := e.representations[RepConversation]; ok {
		if msgs, ok := v.([]Message); ok {
			return msgs, nil
		}
	}
	text, err := e.Text()
	if err != nil {
		return nil, fmt.Errorf("envelope: synthesize conversation representation: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []Message{{Role: "user", Content: text}}, nil
}

// Resolve returns the value for the requested representation, dispatching
// to the matching accessor.
func (e Envelope) Resolve(rep Representation) (interface{}, error) {
	switch rep {
	case RepText:
		return e.Text()
	case RepObject:
		return e.Object()
	case RepConversation:
		return e.Conversation()
	default:
		return nil, fmt.Errorf("envelope: unknown representation %q", rep)
	}
}
