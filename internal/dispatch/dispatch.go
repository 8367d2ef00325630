// Package dispatch implements the topic-keyed event backbone of the client.
//
// Handlers are registered per topic under a caller-chosen key and invoked in
// registration order. Two publish flavors exist: PublishSync runs handlers
// inline on the calling goroutine (internal lifecycle signals), Publish hands
// the message to a Watermill gochannel so slow handlers cannot stall the
// transport's receive path (inbound engine notifications). A handler that
// returns Done is removed after the invocation, which is how one-shot reply
// waiters are built.
package dispatch

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/chabad360/go-osc/osc"

	"github.com/nilswloka/overtone/internal/logging"
)

// Action tells the dispatcher what to do with a handler after invocation.
type Action int

const (
	// Keep leaves the handler registered.
	Keep Action = iota
	// Done removes the handler after this invocation (one-shot).
	Done
)

// Event is delivered to handlers. OSC-derived events carry Msg; lifecycle
// events carry Payload.
type Event struct {
	Topic   string
	Msg     *osc.Message
	Payload any
}

// Args returns the OSC argument list, or nil for lifecycle events.
func (e Event) Args() []any {
	if e.Msg == nil {
		return nil
	}
	return e.Msg.Arguments
}

// Handler processes one event and reports whether it stays registered.
type Handler func(Event) Action

type entry struct {
	key string
	seq uint64
	fn  Handler
}

type topicState struct {
	entries   []entry
	consuming bool
}

// Dispatcher routes events to handlers by topic. Safe for concurrent use,
// and re-entrant: handlers may subscribe and unsubscribe during invocation.
type Dispatcher struct {
	log    logging.ServiceLogger
	pubSub *gochannel.GoChannel
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	topics map[string]*topicState
	seq    uint64
}

// New builds a Dispatcher. The logger feeds both the dispatcher and the
// underlying gochannel.
func New(log logging.ServiceLogger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		logging.NewWatermillAdapter(log),
	)
	return &Dispatcher{
		log:    log,
		pubSub: pubSub,
		ctx:    ctx,
		cancel: cancel,
		topics: make(map[string]*topicState),
	}
}

// Subscribe registers fn under (topic, key). Registering an existing key
// replaces the handler in place, keeping its position in the invocation
// order.
func (d *Dispatcher) Subscribe(topic, key string, fn Handler) {
	d.mu.Lock()

	st := d.topics[topic]
	if st == nil {
		st = &topicState{}
		d.topics[topic] = st
	}

	d.seq++
	e := entry{key: key, seq: d.seq, fn: fn}
	replaced := false
	for i := range st.entries {
		if st.entries[i].key == key {
			st.entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		st.entries = append(st.entries, e)
	}

	startConsumer := !st.consuming
	if startConsumer {
		st.consuming = true
	}
	d.mu.Unlock()

	if startConsumer {
		messages, err := d.pubSub.Subscribe(d.ctx, topic)
		if err != nil {
			d.log.Error("subscribe to topic failed", err, logging.LogFields{"topic": topic})
			return
		}
		go d.consume(topic, messages)
	}
}

// Unsubscribe removes the handler registered under (topic, key). Unknown
// keys are ignored.
func (d *Dispatcher) Unsubscribe(topic, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(topic, key, 0)
}

// removeLocked removes by key, or by (key, seq) when seq is nonzero so a
// one-shot removal cannot take out a handler re-registered under the same
// key during invocation.
func (d *Dispatcher) removeLocked(topic, key string, seq uint64) {
	st := d.topics[topic]
	if st == nil {
		return
	}
	for i := range st.entries {
		if st.entries[i].key == key && (seq == 0 || st.entries[i].seq == seq) {
			st.entries = append(st.entries[:i], st.entries[i+1:]...)
			return
		}
	}
}

// PublishSync invokes the topic's handlers inline, in registration order,
// before returning.
func (d *Dispatcher) PublishSync(topic string, payload any) {
	d.deliver(Event{Topic: topic, Payload: payload})
}

// Publish hands an OSC message to the topic's handlers off the calling
// path. Topics without handlers drop the message.
func (d *Dispatcher) Publish(topic string, msg *osc.Message) {
	data, err := msg.MarshalBinary()
	if err != nil {
		d.log.Error("marshal event failed", err, logging.LogFields{"topic": topic})
		return
	}
	if err := d.pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), data)); err != nil {
		d.log.Error("publish event failed", err, logging.LogFields{"topic": topic})
	}
}

func (d *Dispatcher) consume(topic string, messages <-chan *message.Message) {
	for wm := range messages {
		msg, err := osc.NewMessageFromData(wm.Payload)
		wm.Ack()
		if err != nil {
			d.log.Error("decode event failed", err, logging.LogFields{"topic": topic})
			continue
		}
		d.deliver(Event{Topic: topic, Msg: msg})
	}
}

func (d *Dispatcher) deliver(e Event) {
	d.mu.Lock()
	st := d.topics[e.Topic]
	if st == nil || len(st.entries) == 0 {
		d.mu.Unlock()
		return
	}
	snapshot := make([]entry, len(st.entries))
	copy(snapshot, st.entries)
	d.mu.Unlock()

	for _, en := range snapshot {
		if en.fn(e) == Done {
			d.mu.Lock()
			d.removeLocked(e.Topic, en.key, en.seq)
			d.mu.Unlock()
		}
	}
}

// HandlerCount returns the number of handlers registered on topic.
func (d *Dispatcher) HandlerCount(topic string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.topics[topic]; st != nil {
		return len(st.entries)
	}
	return 0
}

// Close tears the dispatcher down. Pending async events are dropped.
func (d *Dispatcher) Close() error {
	d.cancel()
	return d.pubSub.Close()
}
