package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chabad360/go-osc/osc"

	"github.com/nilswloka/overtone/internal/config"
	"github.com/nilswloka/overtone/internal/logging"
	"github.com/nilswloka/overtone/internal/reply"
	"github.com/nilswloka/overtone/transport"
)

// Negotiator establishes a usable transport during Connect. It returns only
// once the engine is reachable; the client then publishes the single
// connected lifecycle event.
type Negotiator interface {
	Negotiate(ctx context.Context, cfg *config.Config, sink transport.Sink, log logging.ServiceLogger) (transport.Transport, error)
}

// statusProbeNegotiator builds the configured transport and probes /status
// under exponential backoff until the engine answers. UDP gives no connection
// handshake, so an answered status query is the readiness signal.
type statusProbeNegotiator struct {
	registry *transport.Registry
	replies  *reply.Correlator
}

func (n *statusProbeNegotiator) Negotiate(ctx context.Context, cfg *config.Config, sink transport.Sink, log logging.ServiceLogger) (transport.Transport, error) {
	tr, err := n.registry.Build(ctx, cfg, sink, logging.NewWatermillAdapter(log))
	if err != nil {
		return nil, err
	}

	probe := func() error {
		p := n.replies.Await(addrStatusReply)
		if err := tr.Send(osc.NewMessage(addrStatus)); err != nil {
			return err
		}
		if _, ok := p.Resolve(cfg.ReplyTimeout); !ok {
			// The dangling one-shot fires harmlessly on a later reply.
			return errors.New("no status reply")
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second

	if err := backoff.Retry(probe, backoff.WithContext(bo, ctx)); err != nil {
		_ = tr.Close()
		return nil, fmt.Errorf("engine did not answer status probe: %w", err)
	}

	log.Info("engine answered status probe", logging.LogFields{
		"host": cfg.Host,
		"port": cfg.Port,
	})
	return tr, nil
}
