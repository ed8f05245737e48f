package detect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// Engine owns the detectors, their cache cells, and the redactor. It is
// constructed once per process and handed to the frame loop; Redact is the
// only entry point external callers invoke per frame.
type Engine struct {
	cfg      *config.Config
	entries  []*engineEntry
	redactor *Redactor

	fullScreen atomic.Bool
	stopped    atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	framesRedacted atomic.Int64
	regionsApplied atomic.Int64
}

type engineEntry struct {
	detector Detector
	cache    *Cache
	runs     atomic.Int64
	failures atomic.Int64
}

// DetectorStats is a point-in-time view of one detector's cache state.
type DetectorStats struct {
	Name          string `json:"name"`
	Cadence       int    `json:"cadence"`
	Runs          int64  `json:"runs"`
	Failures      int64  `json:"failures"`
	Running       bool   `json:"running"`
	CacheAgeMS    int64  `json:"cache_age_ms"`
	CachedRegions int    `json:"cached_regions"`
}

// EngineStats is the stats snapshot served by the API.
type EngineStats struct {
	FramesRedacted int64           `json:"frames_redacted"`
	RegionsApplied int64           `json:"regions_applied"`
	FullScreen     bool            `json:"full_screen"`
	Detectors      []DetectorStats `json:"detectors"`
}

func NewEngine(cfg *config.Config, redactor *Redactor, detectors ...Detector) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:      cfg,
		redactor: redactor,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, d := range detectors {
		e.entries = append(e.entries, &engineEntry{
			detector: d,
			cache:    NewCache(cfg.CacheTTL),
		})
		log.Info().
			Str("detector", d.Name()).
			Int("cadence_frames", d.Cadence()).
			Dur("cache_ttl", cfg.CacheTTL).
			Msg("Detector registered")
	}
	return e
}

// Redact runs synchronously on the render/encode path. It schedules due
// detectors off the hot path, then obscures the current cached regions in
// place. The returned slice is the set of regions actually applied.
func (e *Engine) Redact(frame *models.Frame) ([]models.Rect, error) {
	now := time.Now()

	// Detectors keep running while the full-screen signal is asserted so
	// cached results are fresh when it clears.
	if !e.stopped.Load() {
		for _, en := range e.entries {
			cadence := en.detector.Cadence()
			if cadence <= 0 {
				cadence = 1
			}
			if frame.Index%int64(cadence) == 0 {
				e.schedule(en, frame)
			}
		}
	}

	if e.fullScreen.Load() {
		if err := e.redactor.BlurAll(frame); err != nil {
			return nil, err
		}
		e.framesRedacted.Add(1)
		return []models.Rect{frame.Bounds()}, nil
	}

	var applied []models.Rect
	for _, en := range e.entries {
		for _, r := range en.cache.Snapshot(now) {
			clamped := r.Clamp(frame.Width, frame.Height)
			if clamped.Empty() {
				// Out-of-bounds or degenerate region: dropped, never applied.
				continue
			}
			applied = append(applied, clamped)
		}
	}

	if len(applied) > 0 {
		if err := e.redactor.BlurRegions(frame, applied); err != nil {
			return nil, err
		}
		e.regionsApplied.Add(int64(len(applied)))
	}
	e.framesRedacted.Add(1)
	return applied, nil
}

// schedule launches one background detection run for the entry, unless one
// is already in flight. The detector receives a private copy of the frame.
func (e *Engine) schedule(en *engineEntry, frame *models.Frame) {
	if !en.cache.TryBegin() {
		return
	}

	snapshot := frame.Clone()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		completed := false
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("detector", en.detector.Name()).
					Interface("panic", r).
					Msg("Detection task panic recovered")
				if !completed {
					en.cache.Complete(nil, fmt.Errorf("detector panic: %v", r), time.Now())
				}
			}
		}()

		regions, err := en.detector.Detect(e.ctx, snapshot)
		en.runs.Add(1)
		if err != nil {
			en.failures.Add(1)
			log.Debug().
				Err(err).
				Str("detector", en.detector.Name()).
				Int64("frame_index", snapshot.Index).
				Msg("Detection run failed, absorbed by cache staleness policy")
		}
		en.cache.Complete(regions, err, time.Now())
		completed = true
	}()
}

// SetFullScreen asserts or clears the full-screen blur signal. It returns
// true when the signal actually changed.
func (e *Engine) SetFullScreen(on bool) bool {
	return e.fullScreen.Swap(on) != on
}

// FullScreen reports whether the full-screen blur signal is asserted.
func (e *Engine) FullScreen() bool {
	return e.fullScreen.Load()
}

// RegionCounts returns the number of currently cached regions per detector,
// keyed by detector name.
func (e *Engine) RegionCounts() map[string]int {
	now := time.Now()
	counts := make(map[string]int, len(e.entries))
	for _, en := range e.entries {
		counts[en.detector.Name()] = len(en.cache.Snapshot(now))
	}
	return counts
}

// Stats returns a snapshot of engine and per-detector counters.
func (e *Engine) Stats() EngineStats {
	now := time.Now()
	stats := EngineStats{
		FramesRedacted: e.framesRedacted.Load(),
		RegionsApplied: e.regionsApplied.Load(),
		FullScreen:     e.fullScreen.Load(),
	}
	for _, en := range e.entries {
		stats.Detectors = append(stats.Detectors, DetectorStats{
			Name:          en.detector.Name(),
			Cadence:       en.detector.Cadence(),
			Runs:          en.runs.Load(),
			Failures:      en.failures.Load(),
			Running:       en.cache.Running(),
			CacheAgeMS:    en.cache.Age(now).Milliseconds(),
			CachedRegions: len(en.cache.Snapshot(now)),
		})
	}
	return stats
}

// Close stops scheduling new detection runs and joins in-flight tasks with a
// bounded timeout.
func (e *Engine) Close() error {
	if e.stopped.Swap(true) {
		return nil
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Debug().Msg("All detection tasks drained")
	case <-time.After(e.cfg.DetectorDrainTimeout):
		// A task stuck in a CGO call cannot observe the cancel; abandon it
		// rather than blocking shutdown on it.
		log.Warn().
			Dur("timeout", e.cfg.DetectorDrainTimeout).
			Msg("Detector drain timeout reached, abandoning in-flight tasks")
	}
	e.cancel()
	return nil
}
