package channel

import (
	"context"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/chabad360/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilswloka/overtone/transport"
)

type sinkRecorder struct {
	mu   sync.Mutex
	msgs []*osc.Message
}

func (r *sinkRecorder) sink(msg *osc.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *sinkRecorder) addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Address)
	}
	return out
}

func TestEngineRecordsAndReplies(t *testing.T) {
	rec := &sinkRecorder{}
	engine := NewEngine()
	tr := New(engine, rec.sink)
	t.Cleanup(func() { _ = tr.Close() })

	engine.Handle("/n_run", func(msg *osc.Message) []*osc.Message {
		return []*osc.Message{osc.NewMessage("/done", "/n_run")}
	})

	require.NoError(t, tr.Send(osc.NewMessage("/n_run", int32(5), int32(1))))

	received := engine.ReceivedAt("/n_run")
	require.Len(t, received, 1)
	assert.Equal(t, []any{int32(5), int32(1)}, received[0].Arguments)
	assert.Equal(t, []string{"/done"}, rec.addresses())
}

func TestEngineDefaultHandlers(t *testing.T) {
	rec := &sinkRecorder{}
	tr := New(NewEngine(), rec.sink)
	t.Cleanup(func() { _ = tr.Close() })

	require.NoError(t, tr.Send(osc.NewMessage("/status")))
	require.NoError(t, tr.Send(osc.NewMessage("/sync", int32(7))))

	require.Equal(t, []string{"/status.reply", "/synced"}, rec.addresses())
	assert.Equal(t, []any{int32(7)}, rec.msgs[1].Arguments)
}

func TestUnhandledAddressIsRecordedSilently(t *testing.T) {
	rec := &sinkRecorder{}
	engine := NewEngine()
	tr := New(engine, rec.sink)
	t.Cleanup(func() { _ = tr.Close() })

	require.NoError(t, tr.Send(osc.NewMessage("/n_free", int32(9))))

	assert.Len(t, engine.Received(), 1)
	assert.Empty(t, rec.addresses())
}

func TestSendBundleDeliversAllBeforeReplies(t *testing.T) {
	rec := &sinkRecorder{}
	engine := NewEngine()
	tr := New(engine, rec.sink)
	t.Cleanup(func() { _ = tr.Close() })

	require.NoError(t, tr.SendBundle(
		osc.NewMessage("/sync", int32(1)),
		osc.NewMessage("/sync", int32(2)),
	))

	// Both bundle members reach the engine before the first reply comes back.
	received := engine.ReceivedAt("/sync")
	require.Len(t, received, 2)
	assert.Equal(t, []string{"/synced", "/synced"}, rec.addresses())
}

func TestNotifyReachesEveryTransport(t *testing.T) {
	engine := NewEngine()
	a := &sinkRecorder{}
	b := &sinkRecorder{}
	ta := New(engine, a.sink)
	tb := New(engine, b.sink)
	t.Cleanup(func() { _ = ta.Close(); _ = tb.Close() })

	engine.Notify(osc.NewMessage("/n_end", int32(4)))

	assert.Equal(t, []string{"/n_end"}, a.addresses())
	assert.Equal(t, []string{"/n_end"}, b.addresses())
}

func TestClosedTransportStopsBothDirections(t *testing.T) {
	rec := &sinkRecorder{}
	engine := NewEngine()
	tr := New(engine, rec.sink)

	require.NoError(t, tr.Close())

	assert.ErrorIs(t, tr.Send(osc.NewMessage("/status")), errTransportClosed)

	engine.Notify(osc.NewMessage("/n_end", int32(4)))
	assert.Empty(t, rec.addresses())
}

func TestClear(t *testing.T) {
	engine := NewEngine()
	tr := New(engine, func(*osc.Message) {})
	t.Cleanup(func() { _ = tr.Close() })

	require.NoError(t, tr.Send(osc.NewMessage("/status")))
	require.NotEmpty(t, engine.Received())

	engine.Clear()
	assert.Empty(t, engine.Received())
}

func TestBuildRegistersInDefaultRegistry(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(TransportName))

	tr, err := Build(context.Background(), nil, func(*osc.Message) {}, watermill.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	ch, ok := tr.(*Transport)
	require.True(t, ok)
	assert.NotNil(t, ch.Engine())
}
