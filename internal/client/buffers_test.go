package client

import (
	"testing"
	"time"

	"github.com/chabad360/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilswloka/overtone/internal/alloc"
	errspkg "github.com/nilswloka/overtone/internal/errors"
)

func TestAllocBufferBecomesReady(t *testing.T) {
	c, engine := newConnectedClient(t)

	engine.Handle("/b_alloc", func(msg *osc.Message) []*osc.Message {
		return []*osc.Message{
			// Completion acks for other commands must not flip readiness.
			osc.NewMessage("/done", "/b_close", int32(99)),
			osc.NewMessage("/done", "/b_alloc", msg.Arguments[0]),
		}
	})

	b, err := c.AllocBuffer(1024, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1024), b.Frames)
	assert.Equal(t, int32(2), b.Channels)

	require.NoError(t, b.Wait(time.Second))
	assert.True(t, b.Ready())

	sent := engine.ReceivedAt("/b_alloc")
	require.Len(t, sent, 1)
	assert.Equal(t, []any{b.ID, int32(1024), int32(2)}, sent[0].Arguments)
}

func TestAllocBufferPendingUntilAck(t *testing.T) {
	c, engine := newConnectedClient(t)

	b, err := c.AllocBuffer(512, 1)
	require.NoError(t, err)
	assert.False(t, b.Ready())
	assert.ErrorIs(t, b.Wait(30*time.Millisecond), errspkg.ErrTimedOut)

	// The ack can arrive long after the allocation call returned.
	engine.Notify(osc.NewMessage("/done", "/b_alloc", b.ID))
	require.NoError(t, b.Wait(time.Second))
}

func TestAllocBufferAcksMatchByID(t *testing.T) {
	c, engine := newConnectedClient(t)

	b1, err := c.AllocBuffer(64, 1)
	require.NoError(t, err)
	b2, err := c.AllocBuffer(64, 1)
	require.NoError(t, err)
	require.NotEqual(t, b1.ID, b2.ID)

	engine.Notify(osc.NewMessage("/done", "/b_alloc", b2.ID))

	require.NoError(t, b2.Wait(time.Second))
	assert.False(t, b1.Ready())
}

func TestAllocBufferValidation(t *testing.T) {
	c, _ := newConnectedClient(t)

	_, err := c.AllocBuffer(0, 2)
	assert.ErrorIs(t, err, errspkg.ErrInvalidArgument)
	_, err = c.AllocBuffer(1024, 0)
	assert.ErrorIs(t, err, errspkg.ErrInvalidArgument)
	assert.Empty(t, c.AllocatedIDs(alloc.CategoryAudioBuffer))
}

func TestAllocBufferOffline(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.AllocBuffer(1024, 2)
	assert.ErrorIs(t, err, errspkg.ErrNotConnected)
	assert.Empty(t, c.AllocatedIDs(alloc.CategoryAudioBuffer))
}

func TestFreeBufferReleasesID(t *testing.T) {
	c, engine := newConnectedClient(t)

	b, err := c.AllocBuffer(256, 1)
	require.NoError(t, err)
	require.Contains(t, c.AllocatedIDs(alloc.CategoryAudioBuffer), b.ID)

	require.NoError(t, c.FreeBuffer(b))

	freed := engine.ReceivedAt("/b_free")
	require.Len(t, freed, 1)
	assert.Equal(t, []any{b.ID}, freed[0].Arguments)
	assert.Empty(t, c.AllocatedIDs(alloc.CategoryAudioBuffer))

	assert.ErrorIs(t, c.FreeBuffer(nil), errspkg.ErrInvalidArgument)
}

func TestReadBufferChunk(t *testing.T) {
	c, engine := newConnectedClient(t)

	engine.Handle("/b_getn", func(msg *osc.Message) []*osc.Message {
		id := msg.Arguments[0]
		start := msg.Arguments[1]
		return []*osc.Message{osc.NewMessage("/b_setn",
			id, start, int32(3),
			float32(0.1), float32(0.2), float32(0.3),
		)}
	})

	b, err := c.AllocBuffer(64, 1)
	require.NoError(t, err)

	samples, err := c.ReadBufferChunk(b, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, samples)

	sent := engine.ReceivedAt("/b_getn")
	require.Len(t, sent, 1)
	assert.Equal(t, []any{b.ID, int32(4), int32(3)}, sent[0].Arguments)
}

func TestReadBufferChunkValidation(t *testing.T) {
	c, _ := newConnectedClient(t)
	b := &Buffer{ID: 1}

	_, err := c.ReadBufferChunk(nil, 0, 4)
	assert.ErrorIs(t, err, errspkg.ErrInvalidArgument)
	_, err = c.ReadBufferChunk(b, -1, 4)
	assert.ErrorIs(t, err, errspkg.ErrInvalidArgument)
	_, err = c.ReadBufferChunk(b, 0, 0)
	assert.ErrorIs(t, err, errspkg.ErrInvalidArgument)
}

func TestReadBufferChunkTimesOut(t *testing.T) {
	c, engine := newConnectedClient(t)
	engine.Handle("/b_getn", func(*osc.Message) []*osc.Message { return nil })

	_, err := c.ReadBufferChunk(&Buffer{ID: 1}, 0, 4)
	assert.ErrorIs(t, err, errspkg.ErrTimedOut)
}

func TestWriteBufferChunk(t *testing.T) {
	c, engine := newConnectedClient(t)
	b := &Buffer{ID: 2}

	require.NoError(t, c.WriteBufferChunk(b, 8, 0.5, 0.6))

	sent := engine.ReceivedAt("/b_setn")
	require.Len(t, sent, 1)
	assert.Equal(t, []any{
		int32(2), int32(8), int32(2),
		float32(0.5), float32(0.6),
	}, sent[0].Arguments)

	require.NoError(t, c.WriteBufferChunk(b, 8))
	require.Len(t, engine.ReceivedAt("/b_setn"), 1)

	assert.ErrorIs(t, c.WriteBufferChunk(b, -1, 0.5), errspkg.ErrInvalidArgument)
	assert.ErrorIs(t, c.WriteBufferChunk(nil, 0, 0.5), errspkg.ErrInvalidArgument)
}
