package cache

import (
	"sync"
	"time"
)

// Snapshot is a value together with the time it was fetched
type Snapshot[T any] struct {
	Value     T
	FetchedAt time.Time
}

// Holder keeps the most recent snapshot and decides when it is stale.
// Replace is the only way to change it; the whole snapshot is swapped.
type Holder[T any] struct {
	mu   sync.RWMutex
	snap *Snapshot[T]
	ttl  time.Duration
	now  func() time.Time
}

// NewHolder creates an empty holder. A nil clock means time.Now.
func NewHolder[T any](ttl time.Duration, now func() time.Time) *Holder[T] {
	if now == nil {
		now = time.Now
	}
	return &Holder[T]{ttl: ttl, now: now}
}

// IsStale reports whether no snapshot exists yet or the current one is
// older than the TTL at the given instant
func (h *Holder[T]) IsStale(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.snap == nil {
		return true
	}
	return now.Sub(h.snap.FetchedAt) > h.ttl
}

// Get returns the current snapshot, which may be stale
func (h *Holder[T]) Get() (Snapshot[T], bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.snap == nil {
		return Snapshot[T]{}, false
	}
	return *h.snap, true
}

// Replace installs value as the new snapshot, stamped with the holder's clock
func (h *Holder[T]) Replace(value T) Snapshot[T] {
	snap := &Snapshot[T]{Value: value, FetchedAt: h.now()}

	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()

	return *snap
}
