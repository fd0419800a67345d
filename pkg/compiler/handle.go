package compiler

import (
	"fmt"
	"strings"

	"github.com/dipeo/execengine/pkg/types"
)

// Direction is the role a handle plays on an edge endpoint.
type Direction string

const (
	DirectionSource Direction = "source"
	DirectionTarget Direction = "target"
)

// Handle identifies one endpoint of an edge: which node, which named slot
// on that node, and whether it's the producing or consuming end.
type Handle struct {
	NodeID    types.NodeID
	Label     string
	Direction Direction
}

// ParseHandle decodes the author-facing "node_id:handle_label:direction"
// format. node_id may itself contain colons (UUIDs don't, but authored
// ids sometimes do), so the label and direction are taken from the last
// two segments and everything before them is the node id.
func ParseHandle(handle string) (Handle, error) {
	parts := strings.Split(handle, ":")
	if len(parts) < 3 {
		return Handle{}, fmt.Errorf("compiler: malformed handle %q: want node_id:handle_label:direction", handle)
	}
	direction := Direction(parts[len(parts)-1])
	label := parts[len(parts)-2]
	nodeID := strings.Join(parts[:len(parts)-2], ":")
	if nodeID == "" {
		return Handle{}, fmt.Errorf("compiler: malformed handle %q: empty node id", handle)
	}
	switch direction {
	case DirectionSource, DirectionTarget:
	default:
		return Handle{}, fmt.Errorf("compiler: malformed handle %q: unknown direction %q", handle, direction)
	}
	return Handle{NodeID: types.NodeID(nodeID), Label: label, Direction: direction}, nil
}
