package detect

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

type fakeDetector struct {
	name      string
	cadence   int
	regions   []models.Rect
	calls     atomic.Int64
	block     chan struct{}
	ignoreCtx bool
}

func (d *fakeDetector) Name() string { return d.name }

func (d *fakeDetector) Cadence() int { return d.cadence }

func (d *fakeDetector) Detect(ctx context.Context, _ *models.Frame) ([]models.Rect, error) {
	d.calls.Add(1)
	if d.block != nil {
		if d.ignoreCtx {
			<-d.block
		} else {
			select {
			case <-d.block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return d.regions, nil
}

func engineTestConfig() *config.Config {
	return &config.Config{
		CacheTTL:             time.Second,
		BlurKernel:           3,
		BlurSigma:            1,
		FullScreenBlurKernel: 5,
		FullScreenBlurSigma:  2,
		DetectorDrainTimeout: time.Second,
	}
}

func testFrame(index int64) *models.Frame {
	return &models.Frame{
		Data:      make([]byte, 32*24*3),
		Width:     32,
		Height:    24,
		Index:     index,
		Timestamp: time.Now(),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestEngineSchedulesByCadence(t *testing.T) {
	cfg := engineTestConfig()
	det := &fakeDetector{name: "fake", cadence: 3}
	e := NewEngine(cfg, NewRedactor(cfg), det)
	defer e.Close()

	for i := int64(1); i <= 9; i++ {
		if _, err := e.Redact(testFrame(i)); err != nil {
			t.Fatalf("Redact(%d) failed: %v", i, err)
		}
		waitFor(t, func() bool { return !e.Stats().Detectors[0].Running })
	}

	if got := det.calls.Load(); got != 3 {
		t.Errorf("detector ran %d times over 9 frames at cadence 3, want 3", got)
	}
}

func TestEngineSingleFlight(t *testing.T) {
	cfg := engineTestConfig()
	det := &fakeDetector{name: "fake", cadence: 1, block: make(chan struct{})}
	e := NewEngine(cfg, NewRedactor(cfg), det)
	defer e.Close()

	e.Redact(testFrame(1))
	waitFor(t, func() bool { return det.calls.Load() == 1 })

	// Further due frames must not start a second run while one is blocked.
	e.Redact(testFrame(2))
	e.Redact(testFrame(3))
	if got := det.calls.Load(); got != 1 {
		t.Errorf("detector started %d runs while one was in flight, want 1", got)
	}

	close(det.block)
	waitFor(t, func() bool { return !e.Stats().Detectors[0].Running })

	e.Redact(testFrame(4))
	waitFor(t, func() bool { return det.calls.Load() == 2 })
}

func TestEngineAppliesCachedRegions(t *testing.T) {
	cfg := engineTestConfig()
	det := &fakeDetector{
		name:    "fake",
		cadence: 2,
		regions: []models.Rect{{X: 4, Y: 4, W: 8, H: 8}},
	}
	e := NewEngine(cfg, NewRedactor(cfg), det)
	defer e.Close()

	e.Redact(testFrame(2))
	waitFor(t, func() bool { return e.Stats().Detectors[0].CachedRegions == 1 })

	applied, err := e.Redact(testFrame(3))
	if err != nil {
		t.Fatalf("Redact() failed: %v", err)
	}
	if len(applied) != 1 || applied[0] != (models.Rect{X: 4, Y: 4, W: 8, H: 8}) {
		t.Errorf("applied = %+v, want the cached region", applied)
	}
}

func TestEngineDropsOutOfBoundsRegions(t *testing.T) {
	cfg := engineTestConfig()
	det := &fakeDetector{
		name:    "fake",
		cadence: 2,
		regions: []models.Rect{{X: 500, Y: 500, W: 10, H: 10}},
	}
	e := NewEngine(cfg, NewRedactor(cfg), det)
	defer e.Close()

	e.Redact(testFrame(2))
	waitFor(t, func() bool { return e.Stats().Detectors[0].Runs == 1 && !e.Stats().Detectors[0].Running })

	applied, err := e.Redact(testFrame(3))
	if err != nil {
		t.Fatalf("Redact() failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("out-of-frame region should be dropped, got %+v", applied)
	}
}

func TestEngineCloseBoundedByDrainTimeout(t *testing.T) {
	cfg := engineTestConfig()
	cfg.DetectorDrainTimeout = 50 * time.Millisecond
	det := &fakeDetector{name: "fake", cadence: 1, block: make(chan struct{}), ignoreCtx: true}
	e := NewEngine(cfg, NewRedactor(cfg), det)

	e.Redact(testFrame(1))
	waitFor(t, func() bool { return det.calls.Load() == 1 })

	start := time.Now()
	if err := e.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close() took %v with a stuck detector, want the drain timeout bound", elapsed)
	}
	close(det.block)
}

func TestEngineFullScreenOverride(t *testing.T) {
	cfg := engineTestConfig()
	e := NewEngine(cfg, NewRedactor(cfg))
	defer e.Close()

	if !e.SetFullScreen(true) {
		t.Error("first SetFullScreen(true) should report a change")
	}
	if e.SetFullScreen(true) {
		t.Error("repeated SetFullScreen(true) should not report a change")
	}

	frame := testFrame(1)
	applied, err := e.Redact(frame)
	if err != nil {
		t.Fatalf("Redact() failed: %v", err)
	}
	if len(applied) != 1 || applied[0] != frame.Bounds() {
		t.Errorf("full-screen Redact applied %+v, want the whole frame %+v", applied, frame.Bounds())
	}

	if !e.SetFullScreen(false) {
		t.Error("SetFullScreen(false) should report a change")
	}
	if e.FullScreen() {
		t.Error("FullScreen() should be false after clearing")
	}
}
