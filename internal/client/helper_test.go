package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nilswloka/overtone/internal/config"
	"github.com/nilswloka/overtone/internal/logging"
	"github.com/nilswloka/overtone/transport"
	"github.com/nilswloka/overtone/transport/channel"
)

// negotiatorFunc adapts a plain function to the Negotiator interface.
type negotiatorFunc func(ctx context.Context, cfg *config.Config, sink transport.Sink, log logging.ServiceLogger) (transport.Transport, error)

func (f negotiatorFunc) Negotiate(ctx context.Context, cfg *config.Config, sink transport.Sink, log logging.ServiceLogger) (transport.Transport, error) {
	return f(ctx, cfg, sink, log)
}

func testConfig() *config.Config {
	conf := config.Default()
	conf.Transport = channel.TransportName
	conf.ReplyTimeout = 200 * time.Millisecond
	conf.BootTimeout = time.Second
	return conf
}

// newTestClient builds a client whose connects attach to a single scriptable
// engine, so tests can script replies before connecting and keep inspecting
// the engine across reconnects.
func newTestClient(t *testing.T) (*Client, *channel.Engine) {
	t.Helper()

	engine := channel.NewEngine()
	c, err := NewClient(testConfig(), logging.Nop(), Dependencies{
		Negotiator: negotiatorFunc(func(_ context.Context, _ *config.Config, sink transport.Sink, _ logging.ServiceLogger) (transport.Transport, error) {
			return channel.New(engine, sink), nil
		}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, engine
}

func newConnectedClient(t *testing.T) (*Client, *channel.Engine) {
	t.Helper()
	c, engine := newTestClient(t)
	require.NoError(t, c.Connect())
	return c, engine
}
