package client

import (
	"sync/atomic"

	"github.com/chabad360/go-osc/osc"

	"github.com/nilswloka/overtone/internal/dispatch"
	errspkg "github.com/nilswloka/overtone/internal/errors"
)

// EngineStatus is the engine's answer to a status query.
type EngineStatus struct {
	UGens             int32
	Synths            int32
	Groups            int32
	LoadedSynthDefs   int32
	AvgCPU            float32
	PeakCPU           float32
	NominalSampleRate float64
	ActualSampleRate  float64
}

type syncCounter struct {
	n atomic.Int32
}

func (s *syncCounter) next() int32 {
	return s.n.Add(1)
}

// Status queries the engine and blocks for the reply.
func (c *Client) Status() (*EngineStatus, error) {
	p := c.replies.Await(addrStatusReply)
	if err := c.sendCommand(osc.NewMessage(addrStatus)); err != nil {
		return nil, err
	}

	e, err := p.ResolveStrict(c.conf.ReplyTimeout)
	if err != nil {
		c.metrics.replyTimedOut(addrStatusReply)
		return nil, err
	}
	return parseStatusReply(e.Args())
}

// parseStatusReply decodes a /status.reply: an unused leading 1, four
// counts, average and peak CPU, nominal and actual sample rate.
func parseStatusReply(args []any) (*EngineStatus, error) {
	if len(args) < 9 {
		return nil, errspkg.InvalidArgument("status reply carried %d arguments, want 9", len(args))
	}

	st := &EngineStatus{}
	ints := []*int32{&st.UGens, &st.Synths, &st.Groups, &st.LoadedSynthDefs}
	for i, dst := range ints {
		v, ok := args[i+1].(int32)
		if !ok {
			return nil, errspkg.InvalidArgument("status reply argument %d: expected int32, got %T", i+1, args[i+1])
		}
		*dst = v
	}
	floats := []*float32{&st.AvgCPU, &st.PeakCPU}
	for i, dst := range floats {
		v, ok := args[i+5].(float32)
		if !ok {
			return nil, errspkg.InvalidArgument("status reply argument %d: expected float32, got %T", i+5, args[i+5])
		}
		*dst = v
	}
	rates := []*float64{&st.NominalSampleRate, &st.ActualSampleRate}
	for i, dst := range rates {
		v, ok := args[i+7].(float64)
		if !ok {
			return nil, errspkg.InvalidArgument("status reply argument %d: expected float64, got %T", i+7, args[i+7])
		}
		*dst = v
	}
	return st, nil
}

// Sync sends a sync barrier and blocks until the engine has processed every
// command received before it. The barrier's correlation number is echoed on
// the reply, so concurrent syncs cannot cross-resolve.
func (c *Client) Sync() error {
	n := c.syncCounter.next()

	p := c.replies.AwaitMatch(addrSynced, func(e dispatch.Event) bool {
		args := e.Args()
		return len(args) >= 1 && args[0] == n
	})
	if err := c.sendCommand(osc.NewMessage(addrSync, n)); err != nil {
		return err
	}

	if _, err := p.ResolveStrict(c.conf.ReplyTimeout); err != nil {
		c.metrics.replyTimedOut(addrSynced)
		return err
	}
	return nil
}

// DumpOSC sets the engine's OSC dump mode. Broadcast-style: while offline
// the message is logged and dropped.
func (c *Client) DumpOSC(mode int32) {
	c.sendLoose(osc.NewMessage(addrDumpOSC, mode))
}

// ClearSchedule drops the engine's queue of scheduled bundles.
// Broadcast-style: while offline the message is logged and dropped.
func (c *Client) ClearSchedule() {
	c.sendLoose(osc.NewMessage(addrClearSched))
}
