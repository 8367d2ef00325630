// Package channel provides an in-memory loopback transport whose peer is a
// scriptable fake engine. This transport is useful for testing and local
// development: tests script per-address reply handlers, inspect every sent
// message, and inject unsolicited notifications.
package channel

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/chabad360/go-osc/osc"

	"github.com/nilswloka/overtone/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

var errTransportClosed = errors.New("channel: transport is closed")

func init() {
	transport.Register(TransportName, Build)
}

// Build creates a loopback transport backed by a fresh Engine. Retrieve the
// engine for scripting via Transport.Engine.
func Build(ctx context.Context, cfg transport.Config, sink transport.Sink, logger watermill.LoggerAdapter) (transport.Transport, error) {
	return New(NewEngine(), sink), nil
}

// New wires a transport to the given engine.
func New(engine *Engine, sink transport.Sink) *Transport {
	t := &Transport{engine: engine, sink: sink}
	engine.attach(t)
	return t
}

// Transport delivers outbound messages straight to its Engine and inbound
// replies straight to the sink.
type Transport struct {
	mu     sync.Mutex
	engine *Engine
	sink   transport.Sink
	closed bool
}

// Engine returns the fake engine on the far side of this transport.
func (t *Transport) Engine() *Engine { return t.engine }

func (t *Transport) Send(msg *osc.Message) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errTransportClosed
	}
	t.mu.Unlock()

	for _, reply := range t.engine.receive(msg) {
		t.deliver(reply)
	}
	return nil
}

func (t *Transport) SendBundle(msgs ...*osc.Message) error {
	// The whole bundle reaches the engine before any reply comes back,
	// mirroring atomic application of a timestamped bundle.
	var replies []*osc.Message
	for _, m := range msgs {
		replies = append(replies, t.engine.receive(m)...)
	}
	for _, reply := range replies {
		t.deliver(reply)
	}
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.engine.detach(t)
	return nil
}

func (t *Transport) deliver(msg *osc.Message) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if !closed {
		t.sink(msg)
	}
}

// Engine is a scriptable stand-in for scsynth. It records every message it
// receives and answers through per-address handlers. The zero value is not
// usable; call NewEngine.
type Engine struct {
	mu         sync.Mutex
	handlers   map[string]ReplyFunc
	received   []*osc.Message
	transports []*Transport
}

// ReplyFunc scripts the engine's reaction to one inbound address. The
// returned messages are sent back to the client.
type ReplyFunc func(msg *osc.Message) []*osc.Message

// NewEngine returns an engine that already answers the two protocol-level
// barriers: /status with a canned /status.reply and /sync by echoing the
// correlation number on /synced. Override either with Handle.
func NewEngine() *Engine {
	e := &Engine{handlers: make(map[string]ReplyFunc)}
	e.Handle("/status", func(*osc.Message) []*osc.Message {
		return []*osc.Message{osc.NewMessage("/status.reply",
			int32(1), int32(0), int32(0), int32(2), int32(0),
			float32(0.02), float32(0.08), float64(44100), float64(44100.0),
		)}
	})
	e.Handle("/sync", func(msg *osc.Message) []*osc.Message {
		if len(msg.Arguments) == 1 {
			return []*osc.Message{osc.NewMessage("/synced", msg.Arguments[0])}
		}
		return nil
	})
	return e
}

// Handle scripts the reply for an address, replacing any existing handler.
func (e *Engine) Handle(address string, fn ReplyFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[address] = fn
}

// Notify injects an unsolicited engine notification (for example /n_end or
// /tr) into every attached transport.
func (e *Engine) Notify(msg *osc.Message) {
	e.mu.Lock()
	transports := make([]*Transport, len(e.transports))
	copy(transports, e.transports)
	e.mu.Unlock()

	for _, t := range transports {
		t.deliver(msg)
	}
}

// Received returns every message the engine has received, in order.
func (e *Engine) Received() []*osc.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*osc.Message, len(e.received))
	copy(out, e.received)
	return out
}

// ReceivedAt returns the received messages with the given address.
func (e *Engine) ReceivedAt(address string) []*osc.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*osc.Message
	for _, m := range e.received {
		if m.Address == address {
			out = append(out, m)
		}
	}
	return out
}

// Clear drops the recorded messages.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.received = nil
}

func (e *Engine) receive(msg *osc.Message) []*osc.Message {
	e.mu.Lock()
	e.received = append(e.received, msg)
	fn := e.handlers[msg.Address]
	e.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(msg)
}

func (e *Engine) attach(t *Transport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transports = append(e.transports, t)
}

func (e *Engine) detach(t *Transport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.transports {
		if e.transports[i] == t {
			e.transports = append(e.transports[:i], e.transports[i+1:]...)
			return
		}
	}
}
