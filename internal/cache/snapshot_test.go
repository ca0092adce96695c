package cache

import (
	"testing"
	"time"
)

func TestHolderFreshness(t *testing.T) {
	clock := newFakeClock()
	h := NewHolder[[]string](60*time.Second, clock.Now)

	if !h.IsStale(clock.Now()) {
		t.Fatal("empty holder must be stale")
	}
	if _, ok := h.Get(); ok {
		t.Fatal("empty holder should have no snapshot")
	}

	snap := h.Replace([]string{"Lib-1"})
	if !snap.FetchedAt.Equal(clock.Now()) {
		t.Errorf("FetchedAt = %v, want %v", snap.FetchedAt, clock.Now())
	}
	if h.IsStale(clock.Now()) {
		t.Error("holder must be fresh right after Replace")
	}

	clock.Advance(60 * time.Second)
	if h.IsStale(clock.Now()) {
		t.Error("snapshot exactly TTL old is still fresh")
	}

	clock.Advance(time.Millisecond)
	if !h.IsStale(clock.Now()) {
		t.Error("snapshot older than TTL must be stale")
	}

	h.Replace([]string{"Lib-1", "Lib-2"})
	if h.IsStale(clock.Now()) {
		t.Error("Replace must reset freshness")
	}
	got, ok := h.Get()
	if !ok || len(got.Value) != 2 {
		t.Errorf("Get = %+v, %v", got, ok)
	}
}

func TestHolderDefaultsToWallClock(t *testing.T) {
	h := NewHolder[int](time.Minute, nil)
	before := time.Now()
	snap := h.Replace(7)
	if snap.FetchedAt.Before(before) {
		t.Errorf("FetchedAt %v before %v", snap.FetchedAt, before)
	}
	if h.IsStale(snap.FetchedAt.Add(time.Minute)) {
		t.Error("snapshot should be fresh for one TTL")
	}
}
