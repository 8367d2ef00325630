package client

import (
	"strconv"

	errspkg "github.com/nilswloka/overtone/internal/errors"
)

// NodeKind distinguishes synths from groups in a queried subtree. Ids alone
// cannot: both come from the shared node namespace.
type NodeKind string

const (
	NodeKindGroup NodeKind = "group"
	NodeKindSynth NodeKind = "synth"
)

// NodeTree is one node of a queried subtree.
type NodeTree struct {
	ID       int32
	Kind     NodeKind
	SynthDef string      // synthdef name, synths only
	Controls []Control   // present when the query asked for controls
	Children []*NodeTree // groups only
}

// Control is a control value reported by a subtree query. Name is the
// control's name, or its index rendered as a string when the engine reports
// unnamed controls. A control mapped to a bus carries the bus reference in
// Bus and a zero Value.
type Control struct {
	Name  string
	Value float32
	Bus   string
}

// treeCursor walks the flattened argument list of a /g_queryTree.reply.
type treeCursor struct {
	args []any
	pos  int
}

func (tc *treeCursor) int32() (int32, error) {
	if tc.pos >= len(tc.args) {
		return 0, errspkg.InvalidArgument("truncated tree reply at argument %d", tc.pos)
	}
	v, ok := tc.args[tc.pos].(int32)
	if !ok {
		return 0, errspkg.InvalidArgument("tree reply argument %d: expected int32, got %T", tc.pos, tc.args[tc.pos])
	}
	tc.pos++
	return v, nil
}

func (tc *treeCursor) string() (string, error) {
	if tc.pos >= len(tc.args) {
		return "", errspkg.InvalidArgument("truncated tree reply at argument %d", tc.pos)
	}
	v, ok := tc.args[tc.pos].(string)
	if !ok {
		return "", errspkg.InvalidArgument("tree reply argument %d: expected string, got %T", tc.pos, tc.args[tc.pos])
	}
	tc.pos++
	return v, nil
}

// parseTreeReply decodes the counted, depth-first layout of the engine's
// subtree reply: a controls flag, then the queried node, then its children
// recursively. A child count of -1 marks a synth, which carries its synthdef
// name and, when the flag is set, its control values.
func parseTreeReply(args []any) (*NodeTree, error) {
	tc := &treeCursor{args: args}

	withControls, err := tc.int32()
	if err != nil {
		return nil, err
	}

	tree, err := parseNode(tc, withControls != 0)
	if err != nil {
		return nil, err
	}
	if tc.pos != len(tc.args) {
		return nil, errspkg.InvalidArgument("tree reply has %d trailing arguments", len(tc.args)-tc.pos)
	}
	return tree, nil
}

func parseNode(tc *treeCursor, withControls bool) (*NodeTree, error) {
	id, err := tc.int32()
	if err != nil {
		return nil, err
	}
	childCount, err := tc.int32()
	if err != nil {
		return nil, err
	}

	if childCount < 0 {
		return parseSynth(tc, id, withControls)
	}

	node := &NodeTree{ID: id, Kind: NodeKindGroup}
	for i := int32(0); i < childCount; i++ {
		child, err := parseNode(tc, withControls)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func parseSynth(tc *treeCursor, id int32, withControls bool) (*NodeTree, error) {
	defName, err := tc.string()
	if err != nil {
		return nil, err
	}
	node := &NodeTree{ID: id, Kind: NodeKindSynth, SynthDef: defName}
	if !withControls {
		return node, nil
	}

	controlCount, err := tc.int32()
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < controlCount; i++ {
		ctl, err := parseControl(tc)
		if err != nil {
			return nil, err
		}
		node.Controls = append(node.Controls, ctl)
	}
	return node, nil
}

func parseControl(tc *treeCursor) (Control, error) {
	var ctl Control

	if tc.pos >= len(tc.args) {
		return ctl, errspkg.InvalidArgument("truncated tree reply at argument %d", tc.pos)
	}
	switch v := tc.args[tc.pos].(type) {
	case string:
		ctl.Name = v
	case int32:
		ctl.Name = strconv.FormatInt(int64(v), 10)
	default:
		return ctl, errspkg.InvalidArgument("tree reply argument %d: bad control label %T", tc.pos, v)
	}
	tc.pos++

	if tc.pos >= len(tc.args) {
		return ctl, errspkg.InvalidArgument("truncated tree reply at argument %d", tc.pos)
	}
	switch v := tc.args[tc.pos].(type) {
	case float32:
		ctl.Value = v
	case string:
		// A control mapped to a bus reports a "cN" reference.
		ctl.Bus = v
	default:
		return ctl, errspkg.InvalidArgument("tree reply argument %d: bad control value %T", tc.pos, v)
	}
	tc.pos++
	return ctl, nil
}
