// Package transport defines the OSC transport boundary of the overtone
// client. Each backend (udp, channel) lives in its own sub-package and
// registers itself with the transport registry.
//
// The wire protocol offers no request/response correlation: a transport only
// knows how to push messages out and to hand every inbound message to a
// single sink. Everything above that (reply correlation, session state) is
// the client's job.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/chabad360/go-osc/osc"
)

// Transport is a live connection to a synthesis engine.
type Transport interface {
	// Send transmits one message. Fire and forget; delivery order is only
	// guaranteed within a single connection.
	Send(msg *osc.Message) error

	// SendBundle transmits the messages as a single atomic unit, so the
	// engine applies them together.
	SendBundle(msgs ...*osc.Message) error

	Close() error
}

// Sink receives every inbound message from the engine. Implementations must
// not block: slow consumers stall the transport's receive path.
type Sink func(msg *osc.Message)

// Config provides the configuration values needed by transports. The
// interface lets transports access only the keys they need without depending
// on the full config package.
type Config interface {
	// GetTransport returns the transport backend name.
	GetTransport() string

	// UDP
	GetHost() string
	GetPort() int
}

// Builder is the function signature for creating a transport from config.
// Each transport package should provide a Builder that can be registered.
type Builder func(ctx context.Context, cfg Config, sink Sink, logger watermill.LoggerAdapter) (Transport, error)
