// Package reply correlates fire-and-forget outbound commands with their
// eventual inbound notifications.
//
// A Pending is a single-resolution future bound to a dispatcher topic. The
// first event on the topic after Await resolves it; there is no payload-level
// correlation id, so two concurrent waits on one topic consume replies
// first-registered/first-matched. Call sites whose wire format carries its
// own correlation number (the sync barrier) filter at the edge instead.
package reply

import (
	"time"

	"github.com/nilswloka/overtone/internal/dispatch"
	errspkg "github.com/nilswloka/overtone/internal/errors"
	"github.com/nilswloka/overtone/internal/ids"
)

// Correlator creates pending replies on top of a Dispatcher.
type Correlator struct {
	events *dispatch.Dispatcher
}

// New builds a Correlator over the given dispatcher.
func New(events *dispatch.Dispatcher) *Correlator {
	return &Correlator{events: events}
}

// Pending is a one-shot future for the next event on a topic.
type Pending struct {
	topic string
	ch    chan dispatch.Event
}

// Await registers a one-shot subscriber on topic and returns the pending
// reply. Register before sending the command the reply answers, or the
// reply can race the registration.
func (c *Correlator) Await(topic string) *Pending {
	p := &Pending{topic: topic, ch: make(chan dispatch.Event, 1)}
	c.events.Subscribe(topic, ids.CreateULID(), func(e dispatch.Event) dispatch.Action {
		select {
		case p.ch <- e:
		default:
			// Already resolved; a late duplicate is dropped.
		}
		return dispatch.Done
	})
	return p
}

// AwaitMatch is Await with a predicate: events failing the predicate are
// skipped and the subscription stays armed for the next one.
func (c *Correlator) AwaitMatch(topic string, match func(dispatch.Event) bool) *Pending {
	p := &Pending{topic: topic, ch: make(chan dispatch.Event, 1)}
	c.events.Subscribe(topic, ids.CreateULID(), func(e dispatch.Event) dispatch.Action {
		if !match(e) {
			return dispatch.Keep
		}
		select {
		case p.ch <- e:
		default:
		}
		return dispatch.Done
	})
	return p
}

// Topic returns the topic the pending reply is bound to.
func (p *Pending) Topic() string { return p.topic }

// Resolve blocks until the reply arrives or the timeout elapses. The second
// return is false on timeout. Giving up leaves the one-shot subscription
// armed; it fires harmlessly on a later message and is ignored.
func (p *Pending) Resolve(timeout time.Duration) (dispatch.Event, bool) {
	select {
	case e := <-p.ch:
		return e, true
	case <-time.After(timeout):
		return dispatch.Event{}, false
	}
}

// ResolveStrict is Resolve for call sites where a timeout is unrecoverable:
// it returns an error wrapping ErrTimedOut instead of a sentinel outcome.
func (p *Pending) ResolveStrict(timeout time.Duration) (dispatch.Event, error) {
	e, ok := p.Resolve(timeout)
	if !ok {
		return dispatch.Event{}, errspkg.TimedOut(p.topic, timeout.Milliseconds())
	}
	return e, nil
}
