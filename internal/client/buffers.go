package client

import (
	"time"

	"github.com/chabad360/go-osc/osc"

	"github.com/nilswloka/overtone/internal/alloc"
	"github.com/nilswloka/overtone/internal/dispatch"
	errspkg "github.com/nilswloka/overtone/internal/errors"
	"github.com/nilswloka/overtone/internal/ids"
)

// Buffer represents remote-side sample memory. The readiness flag flips
// false to true exactly once, when the engine acknowledges the allocation.
type Buffer struct {
	ID       int32
	Frames   int32
	Channels int32

	ready chan struct{}
}

// Ready reports whether the engine has acknowledged the allocation.
func (b *Buffer) Ready() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until the buffer is ready or the timeout elapses.
func (b *Buffer) Wait(timeout time.Duration) error {
	select {
	case <-b.ready:
		return nil
	case <-time.After(timeout):
		return errspkg.TimedOut(addrDone, timeout.Milliseconds())
	}
}

// AllocBuffer allocates a buffer id, asks the engine to allocate the sample
// memory, and returns immediately. Readiness is reported asynchronously on
// the matching /done notification; use Buffer.Wait to block for it.
func (c *Client) AllocBuffer(frames, channels int32) (*Buffer, error) {
	if frames <= 0 || channels <= 0 {
		return nil, errspkg.InvalidArgument("buffer needs positive frames and channels, got %d x %d", frames, channels)
	}

	id, err := c.alloc.Allocate(alloc.CategoryAudioBuffer)
	if err != nil {
		return nil, err
	}
	c.metrics.setIDsInUse(c.alloc)

	b := &Buffer{ID: id, Frames: frames, Channels: channels, ready: make(chan struct{})}

	// Armed before the send so the ack cannot race the registration. Stays
	// subscribed past unrelated /done messages.
	c.events.Subscribe(addrDone, ids.CreateULID(), func(e dispatch.Event) dispatch.Action {
		args := e.Args()
		if len(args) < 2 {
			return dispatch.Keep
		}
		cmd, ok := args[0].(string)
		doneID, ok2 := args[1].(int32)
		if !ok || !ok2 || cmd != addrAllocBuffer || doneID != id {
			return dispatch.Keep
		}
		close(b.ready)
		return dispatch.Done
	})

	if err := c.sendCommand(osc.NewMessage(addrAllocBuffer, id, frames, channels)); err != nil {
		c.alloc.Free(alloc.CategoryAudioBuffer, id)
		c.metrics.setIDsInUse(c.alloc)
		return nil, err
	}
	return b, nil
}

// FreeBuffer releases the engine-side memory and the client-side id. There
// is no server-initiated buffer free notification, so the release happens
// here unconditionally.
func (c *Client) FreeBuffer(b *Buffer) error {
	if b == nil {
		return errspkg.InvalidArgument("nil buffer")
	}
	err := c.sendCommand(osc.NewMessage(addrFreeBuffer, b.ID))
	if err == nil {
		c.alloc.Free(alloc.CategoryAudioBuffer, b.ID)
		c.metrics.setIDsInUse(c.alloc)
	}
	return err
}

// ReadBufferChunk fetches count samples starting at start, blocking on the
// engine's reply.
func (c *Client) ReadBufferChunk(b *Buffer, start, count int32) ([]float32, error) {
	if b == nil {
		return nil, errspkg.InvalidArgument("nil buffer")
	}
	if start < 0 || count <= 0 {
		return nil, errspkg.InvalidArgument("bad chunk range [%d, +%d)", start, count)
	}

	p := c.replies.AwaitMatch(addrSetBufferRange, func(e dispatch.Event) bool {
		args := e.Args()
		return len(args) >= 3 &&
			args[0] == b.ID && args[1] == start
	})
	if err := c.sendCommand(osc.NewMessage(addrGetBufferRange, b.ID, start, count)); err != nil {
		return nil, err
	}

	e, err := p.ResolveStrict(c.conf.ReplyTimeout)
	if err != nil {
		c.metrics.replyTimedOut(addrSetBufferRange)
		return nil, err
	}

	args := e.Args()
	out := make([]float32, 0, len(args)-3)
	for _, a := range args[3:] {
		v, ok := a.(float32)
		if !ok {
			return nil, errspkg.InvalidArgument("buffer chunk reply carried %T", a)
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteBufferChunk writes samples starting at start. Fire and forget.
func (c *Client) WriteBufferChunk(b *Buffer, start int32, values ...float32) error {
	if b == nil {
		return errspkg.InvalidArgument("nil buffer")
	}
	if start < 0 {
		return errspkg.InvalidArgument("negative chunk start %d", start)
	}
	if len(values) == 0 {
		return nil
	}
	msg := osc.NewMessage(addrSetBufferRange, b.ID, start, int32(len(values)))
	for _, v := range values {
		msg.Append(v)
	}
	return c.sendCommand(msg)
}
