package detect

import (
	"errors"
	"testing"
	"time"

	"redaction-worker-go/internal/models"
)

func TestCacheSingleFlight(t *testing.T) {
	c := NewCache(time.Second)

	if !c.TryBegin() {
		t.Fatal("first TryBegin should succeed")
	}
	if c.TryBegin() {
		t.Error("second TryBegin must fail while a run is in flight")
	}
	if !c.Running() {
		t.Error("Running() should report the in-flight run")
	}

	c.Complete([]models.Rect{{X: 1, Y: 2, W: 3, H: 4}}, nil, time.Now())

	if c.Running() {
		t.Error("Running() should clear after Complete")
	}
	if !c.TryBegin() {
		t.Error("TryBegin should succeed again after Complete")
	}
}

func TestCacheSnapshotTTL(t *testing.T) {
	ttl := time.Second
	c := NewCache(ttl)
	regions := []models.Rect{{X: 10, Y: 10, W: 20, H: 20}}

	start := time.Now()
	c.TryBegin()
	c.Complete(regions, nil, start)

	if got := c.Snapshot(start.Add(ttl / 2)); len(got) != 1 {
		t.Errorf("fresh snapshot: got %d regions, want 1", len(got))
	}
	if got := c.Snapshot(start.Add(ttl)); got != nil {
		t.Errorf("snapshot at exactly the TTL should be nil, got %+v", got)
	}
	if got := c.Snapshot(start.Add(2 * ttl)); got != nil {
		t.Errorf("stale snapshot should be nil, got %+v", got)
	}
}

func TestCacheFailureKeepsFreshResult(t *testing.T) {
	ttl := time.Second
	c := NewCache(ttl)
	regions := []models.Rect{{X: 0, Y: 0, W: 5, H: 5}}

	start := time.Now()
	c.TryBegin()
	c.Complete(regions, nil, start)

	// A failed run inside the grace window keeps the last good result.
	c.TryBegin()
	c.Complete(nil, errors.New("ocr timeout"), start.Add(ttl/2))
	if got := c.Snapshot(start.Add(ttl / 2)); len(got) != 1 {
		t.Errorf("failure within TTL dropped the cached result: %+v", got)
	}

	// A failed run past the grace window clears it.
	c.TryBegin()
	c.Complete(nil, errors.New("ocr timeout"), start.Add(2*ttl))
	if got := c.Snapshot(start.Add(2 * ttl)); got != nil {
		t.Errorf("failure past TTL should clear the cache, got %+v", got)
	}
}

func TestCacheFailureWithNoPriorSuccess(t *testing.T) {
	c := NewCache(time.Second)

	c.TryBegin()
	c.Complete(nil, errors.New("cascade not loaded"), time.Now())

	if got := c.Snapshot(time.Now()); got != nil {
		t.Errorf("snapshot after initial failure should be nil, got %+v", got)
	}
	if c.Running() {
		t.Error("Running() should clear after failed Complete")
	}
}

func TestCacheEmptySuccessOverwrites(t *testing.T) {
	c := NewCache(time.Second)
	now := time.Now()

	c.TryBegin()
	c.Complete([]models.Rect{{X: 1, Y: 1, W: 2, H: 2}}, nil, now)
	c.TryBegin()
	c.Complete(nil, nil, now.Add(10*time.Millisecond))

	// A successful run with no detections replaces the previous regions.
	if got := c.Snapshot(now.Add(20 * time.Millisecond)); len(got) != 0 {
		t.Errorf("empty success should replace regions, got %+v", got)
	}
}

func TestCacheAge(t *testing.T) {
	c := NewCache(time.Second)
	if c.Age(time.Now()) >= 0 {
		t.Error("empty cache should report negative age")
	}

	now := time.Now()
	c.TryBegin()
	c.Complete(nil, nil, now)
	if got := c.Age(now.Add(300 * time.Millisecond)); got != 300*time.Millisecond {
		t.Errorf("Age() = %v, want 300ms", got)
	}
}
