package inputs

import (
	"fmt"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/token"
	"github.com/dipeo/execengine/pkg/types"
)

// OutputLookup returns the last envelope a node produced, and whether
// that node has produced anything yet.
type OutputLookup func(types.NodeID) (envelope.Envelope, bool)

// Resolve builds the inputs map a handler reads for one node's dispatch.
// edges is the set the scheduler decided should be consumed this
// tick (token.Manager.IsReady's second return value) — not every
// incoming edge, since a fan-in group only needs one satisfied member
// and a PersonJob's first iteration only needs its "first" edges. The
// resolver trusts that set rather than re-deriving it, so the
// first-only/branch exceptions live in exactly one place (pkg/token).
func Resolve(edges []types.Edge, lookup OutputLookup) (map[string]envelope.Envelope, error) {
	out := make(map[string]envelope.Envelope, len(edges))
	for _, e := range edges {
		source, ok := lookup(e.SourceNodeID)
		if !ok {
			continue
		}
		in, err := bind(source, e.ContentType)
		if err != nil {
			return nil, fmt.Errorf("inputs: edge %s: %w", e.ID, err)
		}
		out[token.EffectiveInputKey(e)] = in
	}
	return out, nil
}

// bind selects the representation transform_rules.content_type calls
// for and wraps it as a fresh envelope the handler can read directly,
// preserving the source's provenance metadata.
func bind(source envelope.Envelope, contentType types.ContentType) (envelope.Envelope, error) {
	rep := representationFor(contentType)
	val, err := source.Resolve(rep)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("select %s representation: %w", rep, err)
	}
	return envelope.New(val).WithRepresentation(rep, val).WithMeta(source.Meta), nil
}

func representationFor(contentType types.ContentType) envelope.Representation {
	switch contentType {
	case types.ContentObject:
		return envelope.RepObject
	case types.ContentConversationState:
		return envelope.RepConversation
	default:
		return envelope.RepText
	}
}
