package client

import (
	errspkg "github.com/nilswloka/overtone/internal/errors"
)

type targetKind int

const (
	targetInvalid targetKind = iota
	targetNodeID
	targetBuffer
	targetNamedRef
)

// Named targets resolvable without knowing concrete ids.
const (
	// RefRoot names the engine's root group.
	RefRoot = "root"
	// RefSynthGroup names the session's synth group.
	RefSynthGroup = "synth-group"
)

// Target is a closed variant describing where a node command points: a
// concrete node id, a buffer, or a named reference. Operations match on the
// variant explicitly; anything else is an invalid argument, never open-ended
// dispatch.
type Target struct {
	kind targetKind
	node int32
	buf  *Buffer
	name string
}

// TargetNode points at a concrete node or group id.
func TargetNode(id int32) Target { return Target{kind: targetNodeID, node: id} }

// TargetBuffer points at a buffer. Valid for buffer operations only;
// placement relative to a buffer is an invalid argument.
func TargetBuffer(b *Buffer) Target { return Target{kind: targetBuffer, buf: b} }

// TargetRef points at a named reference (RefRoot, RefSynthGroup).
func TargetRef(name string) Target { return Target{kind: targetNamedRef, name: name} }

// TargetRoot points at the root group.
func TargetRoot() Target { return TargetRef(RefRoot) }

// TargetSynthGroup points at the session's synth group.
func TargetSynthGroup() Target { return TargetRef(RefSynthGroup) }

// resolveNode reduces the target to a node id for placement commands.
func (t Target) resolveNode(c *Client) (int32, error) {
	switch t.kind {
	case targetNodeID:
		if t.node < 0 {
			return 0, errspkg.InvalidArgument("negative target node id %d", t.node)
		}
		return t.node, nil
	case targetNamedRef:
		switch t.name {
		case RefRoot:
			return RootGroupID, nil
		case RefSynthGroup:
			sg := c.SynthGroup()
			if sg == 0 {
				return 0, errspkg.InvalidArgument("synth group does not exist yet")
			}
			return sg, nil
		default:
			return 0, errspkg.InvalidArgument("unknown named target %q", t.name)
		}
	case targetBuffer:
		return 0, errspkg.InvalidArgument("a buffer cannot anchor node placement")
	default:
		return 0, errspkg.InvalidArgument("empty target")
	}
}
