// Package alloc hands out small integer identifiers for remote-side engine
// resources. Each category owns a fixed-capacity bitset; allocation always
// returns the lowest free id, which keeps the active range compact under the
// engine's hard ceilings. Double frees are silent no-ops because engine-
// initiated frees race with client-initiated ones.
package alloc

import (
	"math/bits"
	"sync"

	errspkg "github.com/nilswloka/overtone/internal/errors"
)

// Category names a class of remote resource with its own allocation table.
type Category string

const (
	CategoryNode        Category = "node"
	CategoryAudioBuffer Category = "audio-buffer"
	CategoryAudioBus    Category = "audio-bus"
	CategoryControlBus  Category = "control-bus"
)

// Capacities fixes the table size per category.
type Capacities struct {
	Nodes        int
	AudioBuffers int
	AudioBuses   int
	ControlBuses int
}

// Allocator owns one allocation table per category. Safe for concurrent use;
// each table is guarded by its own mutex.
type Allocator struct {
	tables map[Category]*table
}

type table struct {
	mu       sync.Mutex
	words    []uint64
	capacity int
}

// New builds an Allocator with the given capacities.
func New(caps Capacities) *Allocator {
	return &Allocator{tables: map[Category]*table{
		CategoryNode:        newTable(caps.Nodes),
		CategoryAudioBuffer: newTable(caps.AudioBuffers),
		CategoryAudioBus:    newTable(caps.AudioBuses),
		CategoryControlBus:  newTable(caps.ControlBuses),
	}}
}

func newTable(capacity int) *table {
	if capacity < 0 {
		capacity = 0
	}
	return &table{
		words:    make([]uint64, (capacity+63)/64),
		capacity: capacity,
	}
}

// Allocate returns the lowest free id in the category, or ErrResourceExhausted
// when the category is at capacity. Exhaustion is a hard failure, never
// retried internally.
func (a *Allocator) Allocate(cat Category) (int32, error) {
	t := a.tables[cat]
	if t == nil {
		return 0, errspkg.InvalidArgument("unknown identifier category %q", cat)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for w, word := range t.words {
		if word == ^uint64(0) {
			continue
		}
		id := w*64 + bits.TrailingZeros64(^word)
		if id >= t.capacity {
			break
		}
		t.words[w] |= 1 << uint(id%64)
		return int32(id), nil
	}
	return 0, errspkg.ResourceExhausted(string(cat), t.capacity)
}

// Reserve marks a specific id as allocated. Used at startup to pin
// well-known ids such as the root group. Fails if the id is already taken
// or out of range.
func (a *Allocator) Reserve(cat Category, id int32) error {
	t := a.tables[cat]
	if t == nil {
		return errspkg.InvalidArgument("unknown identifier category %q", cat)
	}
	if id < 0 || int(id) >= t.capacity {
		return errspkg.InvalidArgument("id %d out of range for category %q", id, cat)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w, bit := int(id)/64, uint64(1)<<uint(id%64)
	if t.words[w]&bit != 0 {
		return errspkg.InvalidArgument("id %d already allocated in category %q", id, cat)
	}
	t.words[w] |= bit
	return nil
}

// Free releases an id. Freeing an already-free or out-of-range id is a
// silent no-op.
func (a *Allocator) Free(cat Category, id int32) {
	t := a.tables[cat]
	if t == nil || id < 0 || int(id) >= t.capacity {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.words[int(id)/64] &^= 1 << uint(id%64)
}

// Allocated returns the ids currently allocated in the category, ascending.
func (a *Allocator) Allocated(cat Category) []int32 {
	t := a.tables[cat]
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var out []int32
	for w, word := range t.words {
		for word != 0 {
			id := w*64 + bits.TrailingZeros64(word)
			out = append(out, int32(id))
			word &= word - 1
		}
	}
	return out
}

// InUse returns the number of allocated ids in the category.
func (a *Allocator) InUse(cat Category) int {
	t := a.tables[cat]
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, word := range t.words {
		n += bits.OnesCount64(word)
	}
	return n
}

// Capacity returns the category's fixed capacity.
func (a *Allocator) Capacity(cat Category) int {
	t := a.tables[cat]
	if t == nil {
		return 0
	}
	return t.capacity
}

// Categories lists every category the allocator tracks.
func Categories() []Category {
	return []Category{CategoryNode, CategoryAudioBuffer, CategoryAudioBus, CategoryControlBus}
}
