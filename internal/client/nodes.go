package client

import (
	"errors"

	"github.com/chabad360/go-osc/osc"

	"github.com/nilswloka/overtone/internal/alloc"
	errspkg "github.com/nilswloka/overtone/internal/errors"
)

// Position is the placement directive used when creating or moving a node
// relative to a target, encoded as the engine's add-action code.
type Position int32

const (
	PositionHead    Position = 0
	PositionTail    Position = 1
	PositionBefore  Position = 2
	PositionAfter   Position = 3
	PositionReplace Position = 4
)

func (p Position) valid() bool {
	return p >= PositionHead && p <= PositionReplace
}

// Param is a named control value for synth creation and control setting.
type Param struct {
	Name  string
	Value float32
}

// P is shorthand for building a Param.
func P(name string, value float32) Param { return Param{Name: name, Value: value} }

// BusMapping maps a named control onto a control bus.
type BusMapping struct {
	Name string
	Bus  int32
}

// NewSynth allocates a node id and asks the engine to instantiate the named
// synthdef at the given position relative to the target. The engine is the
// source of truth for actual existence; the client optimistically assumes
// success and relies on /n_end to learn about engine-side frees.
func (c *Client) NewSynth(name string, tgt Target, pos Position, params ...Param) (int32, error) {
	if name == "" {
		return 0, errspkg.InvalidArgument("synth name is required")
	}
	if !pos.valid() {
		return 0, errspkg.InvalidArgument("unknown position %d", int32(pos))
	}
	target, err := tgt.resolveNode(c)
	if err != nil {
		return 0, err
	}

	id, err := c.alloc.Allocate(alloc.CategoryNode)
	if err != nil {
		return 0, err
	}
	c.metrics.setIDsInUse(c.alloc)

	msg := osc.NewMessage(addrNewSynth, name, id, int32(pos), target)
	for _, p := range params {
		msg.Append(p.Name, p.Value)
	}
	if err := c.sendCommand(msg); err != nil {
		c.alloc.Free(alloc.CategoryNode, id)
		c.metrics.setIDsInUse(c.alloc)
		return 0, err
	}
	return id, nil
}

// NewGroup allocates a node id and creates a group at the given position
// relative to the target.
func (c *Client) NewGroup(pos Position, tgt Target) (int32, error) {
	if !pos.valid() {
		return 0, errspkg.InvalidArgument("unknown position %d", int32(pos))
	}
	target, err := tgt.resolveNode(c)
	if err != nil {
		return 0, err
	}

	id, err := c.alloc.Allocate(alloc.CategoryNode)
	if err != nil {
		return 0, err
	}
	c.metrics.setIDsInUse(c.alloc)

	if err := c.sendCommand(osc.NewMessage(addrNewGroup, id, int32(pos), target)); err != nil {
		c.alloc.Free(alloc.CategoryNode, id)
		c.metrics.setIDsInUse(c.alloc)
		return 0, err
	}
	return id, nil
}

// FreeNodes sends one free command for the given nodes and releases their
// ids. The release is unconditional and idempotent: an /n_end notification
// for the same node racing this call clears an already-clear bit.
func (c *Client) FreeNodes(ids ...int32) error {
	if len(ids) == 0 {
		return nil
	}

	msg := osc.NewMessage(addrFreeNode)
	for _, id := range ids {
		msg.Append(id)
	}
	err := c.sendCommand(msg)
	if errors.Is(err, errspkg.ErrNotConnected) {
		return err
	}
	for _, id := range ids {
		c.alloc.Free(alloc.CategoryNode, id)
	}
	c.metrics.setIDsInUse(c.alloc)
	return err
}

// FreeGroups frees groups. Groups and synths share the node id namespace and
// the free mechanism.
func (c *Client) FreeGroups(ids ...int32) error {
	return c.FreeNodes(ids...)
}

// RunNode pauses or resumes a node.
func (c *Client) RunNode(id int32, on bool) error {
	flag := int32(0)
	if on {
		flag = 1
	}
	return c.sendCommand(osc.NewMessage(addrRunNode, id, flag))
}

// PlaceBefore moves a node immediately before the target in its group.
func (c *Client) PlaceBefore(id, target int32) error {
	return c.sendCommand(osc.NewMessage(addrBeforeNode, id, target))
}

// PlaceAfter moves a node immediately after the target in its group.
func (c *Client) PlaceAfter(id, target int32) error {
	return c.sendCommand(osc.NewMessage(addrAfterNode, id, target))
}

// SetControls sets named controls on a node. An empty parameter list is a
// no-op.
func (c *Client) SetControls(id int32, params ...Param) error {
	if len(params) == 0 {
		return nil
	}
	msg := osc.NewMessage(addrSetControl, id)
	for _, p := range params {
		if p.Name == "" {
			return errspkg.InvalidArgument("control name is required")
		}
		msg.Append(p.Name, p.Value)
	}
	return c.sendCommand(msg)
}

// SetControlRange sets a contiguous run of controls starting at a control
// index.
func (c *Client) SetControlRange(id int32, start int32, values ...float32) error {
	if start < 0 {
		return errspkg.InvalidArgument("negative control index %d", start)
	}
	if len(values) == 0 {
		return nil
	}
	msg := osc.NewMessage(addrSetControlRange, id, start, int32(len(values)))
	for _, v := range values {
		msg.Append(v)
	}
	return c.sendCommand(msg)
}

// MapControls maps named controls of a node onto control buses.
func (c *Client) MapControls(id int32, mappings ...BusMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	msg := osc.NewMessage(addrMapControl, id)
	for _, m := range mappings {
		if m.Name == "" {
			return errspkg.InvalidArgument("control name is required")
		}
		if m.Bus < 0 {
			return errspkg.InvalidArgument("negative control bus %d", m.Bus)
		}
		msg.Append(m.Name, m.Bus)
	}
	return c.sendCommand(msg)
}

// QueryTree queries the node subtree under id, optionally including current
// control values, and blocks until the engine's reply arrives or the reply
// timeout elapses.
func (c *Client) QueryTree(id int32, withControls bool) (*NodeTree, error) {
	flag := int32(0)
	if withControls {
		flag = 1
	}

	p := c.replies.Await(addrQueryTreeReply)
	if err := c.sendCommand(osc.NewMessage(addrQueryTree, id, flag)); err != nil {
		return nil, err
	}

	e, err := p.ResolveStrict(c.conf.ReplyTimeout)
	if err != nil {
		c.metrics.replyTimedOut(addrQueryTreeReply)
		return nil, err
	}
	return parseTreeReply(e.Args())
}
