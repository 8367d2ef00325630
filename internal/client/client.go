// Package client implements the control-plane client for a remote scsynth
// instance: session lifecycle, identifier management, and the node, group,
// and buffer command layer over an OSC transport.
package client

import (
	"fmt"
	"sync"

	"github.com/chabad360/go-osc/osc"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nilswloka/overtone/internal/alloc"
	"github.com/nilswloka/overtone/internal/config"
	"github.com/nilswloka/overtone/internal/dispatch"
	errspkg "github.com/nilswloka/overtone/internal/errors"
	"github.com/nilswloka/overtone/internal/logging"
	"github.com/nilswloka/overtone/internal/reply"
	"github.com/nilswloka/overtone/transport"
)

// RootGroupID is the engine's root group. Pre-allocated at construction,
// never freed.
const RootGroupID int32 = 0

// Dependencies holds the optional collaborators of a Client. Leave fields
// nil for the defaults.
type Dependencies struct {
	// Negotiator establishes the transport during Connect. Defaults to
	// building the configured transport from Registry and probing /status
	// under backoff until the engine answers.
	Negotiator Negotiator

	// Registry resolves the configured transport name. Defaults to
	// transport.DefaultRegistry.
	Registry *transport.Registry

	// Registerer receives the prometheus collectors when
	// Config.MetricsEnabled is set. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Client is one session against one engine instance. All registries the
// original design kept process-global (allocation tables, trigger handlers,
// pending replies, loaded synthdefs) are owned here, so independent sessions
// can coexist.
type Client struct {
	conf    *config.Config
	log     logging.ServiceLogger
	alloc   *alloc.Allocator
	events  *dispatch.Dispatcher
	replies *reply.Correlator
	metrics *metrics

	negotiator Negotiator

	mu         sync.Mutex
	state      State
	tr         transport.Transport
	synthGroup int32
	booted     chan struct{}
	quitting   bool
	connecting bool
	setupErr   error

	defsMu   sync.Mutex
	defs     map[string][]byte
	defOrder []string

	trigMu   sync.Mutex
	triggers map[triggerKey]TriggerHandler

	syncCounter syncCounter
}

// NewClient constructs a Client. The returned client owns its dispatcher and
// allocator; nothing is registered globally, and all lifecycle handlers are
// wired here rather than as import side effects. Call Connect to reach an
// engine and Close to tear the session down.
func NewClient(conf *config.Config, log logging.ServiceLogger, deps Dependencies) (*Client, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Info("creating overtone client", logging.LogFields{
		"transport": conf.Transport,
		"config":    conf,
	})

	c := &Client{
		conf: conf,
		log:  log,
		alloc: alloc.New(alloc.Capacities{
			Nodes:        conf.MaxNodes,
			AudioBuffers: conf.MaxBuffers,
			AudioBuses:   conf.MaxAudioBuses,
			ControlBuses: conf.MaxControlBuses,
		}),
		events:   dispatch.New(log),
		state:    StateNoAudio,
		booted:   make(chan struct{}),
		defs:     make(map[string][]byte),
		triggers: make(map[triggerKey]TriggerHandler),
	}
	c.replies = reply.New(c.events)

	if conf.MetricsEnabled {
		reg := deps.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m, err := newMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		c.metrics = m
	}

	if err := c.alloc.Reserve(alloc.CategoryNode, RootGroupID); err != nil {
		return nil, err
	}
	c.metrics.setIDsInUse(c.alloc)

	c.negotiator = deps.Negotiator
	if c.negotiator == nil {
		registry := deps.Registry
		if registry == nil {
			registry = transport.DefaultRegistry
		}
		c.negotiator = &statusProbeNegotiator{registry: registry, replies: c.replies}
	}

	c.wireNotifications()

	return c, nil
}

// Events exposes the client's dispatcher so callers can hook lifecycle
// topics (EventConnected, EventQuit) or raw engine notifications.
func (c *Client) Events() *dispatch.Dispatcher { return c.events }

// AllocatedIDs returns the ids currently allocated in a category, ascending.
// Useful for bulk teardown.
func (c *Client) AllocatedIDs(cat alloc.Category) []int32 {
	return c.alloc.Allocated(cat)
}

// Close quits the session and stops the dispatcher.
func (c *Client) Close() error {
	if err := c.Quit(); err != nil {
		return err
	}
	return c.events.Close()
}

// wireNotifications installs the global handlers that keep client state in
// lockstep with asynchronous engine notifications.
func (c *Client) wireNotifications() {
	c.events.Subscribe(EventConnected, "session-established", c.sessionEstablished)

	c.events.Subscribe(addrNodeGo, "node-created-log", func(e dispatch.Event) dispatch.Action {
		c.log.Debug("node created", logging.LogFields{"args": e.Args()})
		return dispatch.Keep
	})

	// The only path by which engine-side auto frees (an expiring envelope,
	// /g_freeAll fallout) come back as id releases.
	c.events.Subscribe(addrNodeEnd, "node-destroyed-release", func(e dispatch.Event) dispatch.Action {
		args := e.Args()
		if len(args) == 0 {
			return dispatch.Keep
		}
		if id, ok := args[0].(int32); ok {
			c.alloc.Free(alloc.CategoryNode, id)
			c.metrics.setIDsInUse(c.alloc)
			c.log.Debug("node destroyed", logging.LogFields{"node_id": id})
		}
		return dispatch.Keep
	})

	c.events.Subscribe(addrTrigger, "trigger-dispatch", func(e dispatch.Event) dispatch.Action {
		c.dispatchTrigger(e)
		return dispatch.Keep
	})

	c.events.Subscribe(addrFail, "engine-failure-log", func(e dispatch.Event) dispatch.Action {
		c.log.Error("engine reported failure", nil, logging.LogFields{"args": e.Args()})
		return dispatch.Keep
	})
}

// sink is handed to the transport; every inbound message fans out on the
// generic topic and on its own address.
func (c *Client) sink(msg *osc.Message) {
	c.metrics.messageReceived(msg.Address)
	c.events.Publish(EventOSCReceived, msg)
	c.events.Publish(msg.Address, msg)
}

// transportForCommand returns the live transport, or ErrNotConnected for
// object-lifecycle commands issued outside the Connected state. There is no
// offline queueing.
func (c *Client) transportForCommand() (transport.Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.tr == nil {
		return nil, errspkg.NotConnected(c.state.String())
	}
	return c.tr, nil
}

// sendCommand transmits an object-lifecycle command, failing when offline.
func (c *Client) sendCommand(msg *osc.Message) error {
	tr, err := c.transportForCommand()
	if err != nil {
		return err
	}
	c.metrics.messageSent(msg.Address)
	return tr.Send(msg)
}

// sendLoose transmits a broadcast-style message. While offline it is logged
// and dropped; that is the documented degraded behavior for these calls.
func (c *Client) sendLoose(msg *osc.Message) {
	tr, err := c.transportForCommand()
	if err != nil {
		c.log.Debug("dropped message while offline", logging.LogFields{"address": msg.Address})
		return
	}
	c.metrics.messageSent(msg.Address)
	if err := tr.Send(msg); err != nil {
		c.log.Error("send failed", err, logging.LogFields{"address": msg.Address})
	}
}

// SendBundle transmits the messages as one atomic unit, so the engine
// applies them together. Concurrent bundles cannot interleave because a
// bundle is assembled by value, not accumulated in shared state.
func (c *Client) SendBundle(msgs ...*osc.Message) error {
	tr, err := c.transportForCommand()
	if err != nil {
		return err
	}
	for _, m := range msgs {
		c.metrics.messageSent(m.Address)
	}
	return tr.SendBundle(msgs...)
}
