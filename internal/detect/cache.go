package detect

import (
	"sync/atomic"
	"time"

	"redaction-worker-go/internal/models"
)

// Cache is the per-detector cache cell. It is written only by that
// detector's background task and read by the redactor every frame; the
// snapshot swap is a single pointer store so readers never wait on a
// detection run.
type Cache struct {
	ttl time.Duration

	inFlight    atomic.Bool
	result      atomic.Pointer[models.DetectionResult]
	lastSuccess atomic.Int64 // unix nanos of the last successful run
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// TryBegin marks the cell as running. It returns false when a run is already
// in flight, making a second scheduling tick a no-op.
func (c *Cache) TryBegin() bool {
	return c.inFlight.CompareAndSwap(false, true)
}

// Complete finishes a run. On success the snapshot is replaced atomically.
// On failure the cached result survives while the last success is younger
// than the TTL and is cleared once it is not.
func (c *Cache) Complete(regions []models.Rect, err error, now time.Time) {
	defer c.inFlight.Store(false)

	if err == nil {
		c.result.Store(&models.DetectionResult{
			Regions:    regions,
			ProducedAt: now,
		})
		c.lastSuccess.Store(now.UnixNano())
		return
	}

	last := c.lastSuccess.Load()
	if last == 0 || now.Sub(time.Unix(0, last)) > c.ttl {
		c.result.Store(nil)
	}
}

// Snapshot returns the cached region set, or nil once the result is older
// than the TTL.
func (c *Cache) Snapshot(now time.Time) []models.Rect {
	res := c.result.Load()
	if res == nil {
		return nil
	}
	if now.Sub(res.ProducedAt) >= c.ttl {
		return nil
	}
	return res.Regions
}

// Running reports whether a detection run is currently in flight.
func (c *Cache) Running() bool {
	return c.inFlight.Load()
}

// Age returns the age of the cached result, or a negative duration when the
// cache is empty.
func (c *Cache) Age(now time.Time) time.Duration {
	res := c.result.Load()
	if res == nil {
		return -1
	}
	return now.Sub(res.ProducedAt)
}
