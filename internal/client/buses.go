package client

import (
	"github.com/nilswloka/overtone/internal/alloc"
)

// Buses exist only as index ranges inside the engine; allocating one is pure
// client-side bookkeeping, so no command is sent. The engine reads and
// writes whatever indices synths name, which is exactly why double
// allocation must be impossible client-side.

// AllocAudioBus reserves an audio bus index.
func (c *Client) AllocAudioBus() (int32, error) {
	id, err := c.alloc.Allocate(alloc.CategoryAudioBus)
	if err != nil {
		return 0, err
	}
	c.metrics.setIDsInUse(c.alloc)
	return id, nil
}

// FreeAudioBus releases an audio bus index. Idempotent.
func (c *Client) FreeAudioBus(id int32) {
	c.alloc.Free(alloc.CategoryAudioBus, id)
	c.metrics.setIDsInUse(c.alloc)
}

// AllocControlBus reserves a control bus index.
func (c *Client) AllocControlBus() (int32, error) {
	id, err := c.alloc.Allocate(alloc.CategoryControlBus)
	if err != nil {
		return 0, err
	}
	c.metrics.setIDsInUse(c.alloc)
	return id, nil
}

// FreeControlBus releases a control bus index. Idempotent.
func (c *Client) FreeControlBus(id int32) {
	c.alloc.Free(alloc.CategoryControlBus, id)
	c.metrics.setIDsInUse(c.alloc)
}
