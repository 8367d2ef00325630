package ids

import (
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestCreateULIDWellFormed(t *testing.T) {
	const total = 100
	keys := make([]string, total)
	for i := range keys {
		keys[i] = CreateULID()
	}

	for _, key := range keys {
		if len(key) != 26 {
			t.Fatalf("expected ULID length 26, got %d", len(key))
		}
		if _, err := ulid.Parse(key); err != nil {
			t.Fatalf("expected valid ULID, got %v", err)
		}
	}

	// Monotonic entropy keeps same-process keys strictly increasing, which
	// makes handler registrations sortable by age.
	for i := 1; i < total; i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("expected ULIDs to be strictly increasing, %s >= %s", keys[i-1], keys[i])
		}
	}
}

func TestCreateULIDConcurrentUniqueness(t *testing.T) {
	const goroutines = 10
	const perGoroutine = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				key := CreateULID()
				mu.Lock()
				if _, dup := seen[key]; dup {
					t.Errorf("duplicate ULID generated: %s", key)
				}
				seen[key] = struct{}{}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if want := goroutines * perGoroutine; len(seen) != want {
		t.Fatalf("expected %d unique ULIDs, got %d", want, len(seen))
	}
}
