package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chabad360/go-osc/osc"

	"github.com/nilswloka/overtone/internal/alloc"
	"github.com/nilswloka/overtone/internal/dispatch"
	errspkg "github.com/nilswloka/overtone/internal/errors"
	"github.com/nilswloka/overtone/internal/logging"
	"github.com/nilswloka/overtone/transport"
)

// State is the session's connection state. Transitions are driven only by
// connect and quit signals, never polled.
type State int

const (
	// StateNoAudio means no engine connection exists.
	StateNoAudio State = iota
	// StateConnecting means the boot negotiation is in progress.
	StateConnecting
	// StateConnected means commands can be issued.
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateNoAudio:
		return "no-audio"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// State returns the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SynthGroup returns the id of the session's synth group, the default parent
// for new synths. Zero while disconnected.
func (c *Client) SynthGroup() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.synthGroup
}

// Connect establishes a connection to the engine at the configured host and
// port.
func (c *Client) Connect() error {
	return c.ConnectTo(c.conf.Host, c.conf.Port)
}

// ConnectTo establishes a connection to host:port. An existing connection is
// quit first. On success the connected lifecycle event has already run: the
// synth group exists and synthdefs are replayed before ConnectTo returns.
func (c *Client) ConnectTo(host string, port int) error {
	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return errspkg.InvalidArgument("connect already in progress")
	}
	c.connecting = true
	wasConnected := c.state == StateConnected
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	if wasConnected {
		if err := c.Quit(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.state = StateConnecting
	c.mu.Unlock()

	cfg := *c.conf
	if host != "" {
		cfg.Host = host
	}
	if port > 0 {
		cfg.Port = port
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.conf.BootTimeout)
	defer cancel()

	tr, err := c.negotiator.Negotiate(ctx, &cfg, c.sink, c.log)
	if err != nil {
		c.mu.Lock()
		c.state = StateNoAudio
		c.mu.Unlock()
		return fmt.Errorf("connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	if tr == nil {
		c.mu.Lock()
		c.state = StateNoAudio
		c.mu.Unlock()
		return fmt.Errorf("connect %s:%d: negotiator returned no transport: %w", cfg.Host, cfg.Port, errspkg.ErrTransportRequired)
	}

	// Synchronous: finalizeConnection has run before this returns, so no
	// caller can observe Connected without the synth group. A Quit that
	// raced the negotiation leaves the state off Connecting; finalize
	// refuses to resurrect the session and the error surfaces here.
	c.events.PublishSync(EventConnected, tr)

	c.mu.Lock()
	err = c.setupErr
	c.setupErr = nil
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return nil
}

// sessionEstablished consumes the connected lifecycle event. The outcome is
// recorded in setupErr so the connect path, which publishes the event
// synchronously, can report setup failures to its caller.
func (c *Client) sessionEstablished(e dispatch.Event) dispatch.Action {
	tr, ok := e.Payload.(transport.Transport)
	if !ok {
		c.log.Error("connected event without transport payload", nil, nil)
		return dispatch.Keep
	}
	err := c.finalizeConnection(tr)
	if err != nil {
		c.log.Error("connection setup failed", err, nil)
		_ = tr.Close()
		c.mu.Lock()
		c.state = StateNoAudio
		c.mu.Unlock()
	}
	c.mu.Lock()
	c.setupErr = err
	c.mu.Unlock()
	return dispatch.Keep
}

// finalizeConnection registers the client for engine notifications, records
// the transport, creates the synth group under the root group, and replays
// loaded synthdefs. Only then does the state flip to Connected. The synth
// group is recreated on every reconnect.
func (c *Client) finalizeConnection(tr transport.Transport) error {
	c.mu.Lock()
	if c.state != StateConnecting {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("session quit during connect: %w", errspkg.NotConnected(state.String()))
	}
	c.mu.Unlock()

	// The engine sends /n_go, /n_end, and /tr only to registered clients,
	// so registration must precede any node command.
	notify := osc.NewMessage(addrNotify, int32(1))
	c.metrics.messageSent(notify.Address)
	if err := tr.Send(notify); err != nil {
		return fmt.Errorf("register for notifications: %w", err)
	}

	sg, err := c.alloc.Allocate(alloc.CategoryNode)
	if err != nil {
		return err
	}
	c.metrics.setIDsInUse(c.alloc)

	msg := osc.NewMessage(addrNewGroup, sg, int32(PositionTail), RootGroupID)
	c.metrics.messageSent(msg.Address)
	if err := tr.Send(msg); err != nil {
		c.alloc.Free(alloc.CategoryNode, sg)
		c.metrics.setIDsInUse(c.alloc)
		return fmt.Errorf("create synth group: %w", err)
	}

	c.replaySynthDefs(tr)

	c.mu.Lock()
	if c.state != StateConnecting {
		state := c.state
		c.mu.Unlock()
		c.alloc.Free(alloc.CategoryNode, sg)
		c.metrics.setIDsInUse(c.alloc)
		return fmt.Errorf("session quit during connect: %w", errspkg.NotConnected(state.String()))
	}
	c.tr = tr
	c.synthGroup = sg
	c.state = StateConnected
	select {
	case <-c.booted:
	default:
		close(c.booted)
	}
	c.mu.Unlock()

	c.log.Info("session established", logging.LogFields{"synth_group": sg})
	return nil
}

// WaitUntilConnected blocks until the session reaches Connected or the
// timeout elapses. It waits on the same lifecycle signal the connect path
// closes; there is no polling.
func (c *Client) WaitUntilConnected(timeout time.Duration) error {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	booted := c.booted
	c.mu.Unlock()

	select {
	case <-booted:
		return nil
	case <-time.After(timeout):
		return errspkg.TimedOut(EventConnected, timeout.Milliseconds())
	}
}

// Quit shuts the session down. Idempotent: when already disconnected it is a
// no-op with no transport send. Otherwise it publishes the quit lifecycle
// event so dependents can clean up, flips to NoAudio, and, only if a
// transport was actually live, sends /quit and closes it.
func (c *Client) Quit() error {
	c.mu.Lock()
	if c.state == StateNoAudio || c.quitting {
		c.mu.Unlock()
		return nil
	}
	c.quitting = true
	c.mu.Unlock()

	c.events.PublishSync(EventQuit, nil)

	c.mu.Lock()
	tr := c.tr
	sg := c.synthGroup
	c.tr = nil
	c.synthGroup = 0
	c.state = StateNoAudio
	c.booted = make(chan struct{})
	c.quitting = false
	c.mu.Unlock()

	if sg > 0 {
		c.alloc.Free(alloc.CategoryNode, sg)
		c.metrics.setIDsInUse(c.alloc)
	}

	if tr == nil {
		return nil
	}
	quit := osc.NewMessage(addrQuit)
	c.metrics.messageSent(quit.Address)
	if err := tr.Send(quit); err != nil {
		c.log.Error("quit send failed", err, nil)
	}
	return tr.Close()
}

// Reset clears the engine's message schedule and frees all children of the
// synth group, keeping the connection up.
func (c *Client) Reset() error {
	tr, err := c.transportForCommand()
	if err != nil {
		return err
	}

	c.mu.Lock()
	sg := c.synthGroup
	c.mu.Unlock()

	for _, msg := range []*osc.Message{
		osc.NewMessage(addrClearSched),
		osc.NewMessage(addrFreeAll, sg),
	} {
		c.metrics.messageSent(msg.Address)
		if err := tr.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// Restart composes Reset, Quit, and Connect. A reset failure because the
// session was already down does not stop the restart.
func (c *Client) Restart() error {
	if err := c.Reset(); err != nil && !errors.Is(err, errspkg.ErrNotConnected) {
		return err
	}
	if err := c.Quit(); err != nil {
		return err
	}
	return c.Connect()
}
