package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
	"redaction-worker-go/internal/services"
)

// Worker drives the capture-redact-publish loop. Each tick it pulls one
// frame, lets the detection engine obscure it in place, and fans the
// redacted frame out to the MJPEG publisher and the recorder.
type Worker struct {
	cfg       *config.Config
	container *services.ServiceContainer
	sessionID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mutex           sync.RWMutex
	running         bool
	framesProcessed int64
	fps             float64
	lastFrameTime   time.Time
	startedAt       time.Time

	lastEventTime time.Time
	lastRegions   int
	lastFullBlur  bool
}

// Stats is the worker status snapshot served by the API.
type Stats struct {
	SessionID       string    `json:"session_id"`
	Running         bool      `json:"running"`
	FramesProcessed int64     `json:"frames_processed"`
	FPS             float64   `json:"fps"`
	LastFrameTime   time.Time `json:"last_frame_time"`
	UptimeSeconds   float64   `json:"uptime_seconds"`
}

func New(cfg *config.Config, container *services.ServiceContainer) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		cfg:       cfg,
		container: container,
		sessionID: uuid.New().String(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (w *Worker) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return nil
	}
	w.running = true
	w.startedAt = time.Now()
	w.mutex.Unlock()

	if err := w.container.WindowMonitor.Start(); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.run()

	log.Info().
		Str("session_id", w.sessionID).
		Str("worker_id", w.cfg.WorkerID).
		Int("capture_fps", w.cfg.CaptureFPS).
		Msg("Worker started")
	return nil
}

// tickInterval converts the target FPS to a ticker period. A non-positive
// FPS falls back to one frame per second instead of a zero-division panic.
func tickInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

func (w *Worker) run() {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Worker loop panic")
		}
	}()

	ticker := time.NewTicker(tickInterval(w.cfg.CaptureFPS))
	defer ticker.Stop()

	recorderStarted := false

	for {
		select {
		case <-w.ctx.Done():
			log.Info().Msg("Worker loop stopped")
			return
		case <-ticker.C:
		}

		frame, err := w.container.CaptureSvc.NextFrame()
		if err != nil {
			log.Debug().Err(err).Msg("Frame read failed")
			continue
		}

		regions, err := w.container.Engine.Redact(frame)
		if err != nil {
			log.Error().Err(err).Int64("frame_index", frame.Index).Msg("Redaction failed")
			continue
		}

		w.container.PublisherSvc.PublishFrame(frame)

		if w.cfg.RecordingEnabled {
			if !recorderStarted {
				if err := w.container.RecorderSvc.Start(frame.Width, frame.Height); err != nil {
					log.Error().Err(err).Msg("Failed to start recorder")
				} else {
					recorderStarted = true
				}
			}
			if recorderStarted {
				w.container.RecorderSvc.ProcessFrame(frame)
			}
		}

		w.publishEventIfChanged(frame, regions)
		w.updateStats(frame)
	}
}

// publishEventIfChanged emits a redaction event when the redaction state
// moved since the last event. Full-screen transitions always publish;
// region-count changes are rate limited by the events cooldown.
func (w *Worker) publishEventIfChanged(frame *models.Frame, regions []models.Rect) {
	fullBlur := w.container.Engine.FullScreen()

	w.mutex.Lock()
	changed := len(regions) != w.lastRegions || fullBlur != w.lastFullBlur
	cooledDown := time.Since(w.lastEventTime) >= w.cfg.EventsCooldown
	shouldPublish := changed && (cooledDown || fullBlur != w.lastFullBlur)
	if shouldPublish {
		w.lastEventTime = time.Now()
		w.lastRegions = len(regions)
		w.lastFullBlur = fullBlur
	}
	w.mutex.Unlock()

	if !shouldPublish {
		return
	}

	counts := w.container.Engine.RegionCounts()
	event := models.RedactionEvent{
		EventID:     uuid.New().String(),
		WorkerID:    w.cfg.WorkerID,
		SessionID:   w.sessionID,
		FrameIndex:  frame.Index,
		Regions:     regions,
		FaceRegions: counts["face"],
		TextRegions: counts["confidential-text"],
		FullScreen:  fullBlur,
		Timestamp:   time.Now(),
	}
	if err := w.container.MessageSvc.Publish(w.cfg.EventsSubject, event); err != nil {
		log.Warn().Err(err).Msg("Failed to publish redaction event")
	}
}

func (w *Worker) updateStats(frame *models.Frame) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.framesProcessed++
	now := time.Now()
	if !w.lastFrameTime.IsZero() {
		elapsed := now.Sub(w.lastFrameTime).Seconds()
		if elapsed > 0 {
			instant := 1.0 / elapsed
			if w.fps == 0 {
				w.fps = instant
			} else {
				w.fps = 0.9*w.fps + 0.1*instant
			}
		}
	}
	w.lastFrameTime = frame.Timestamp
}

func (w *Worker) SessionID() string {
	return w.sessionID
}

func (w *Worker) Stats() Stats {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	uptime := 0.0
	if w.running {
		uptime = time.Since(w.startedAt).Seconds()
	}
	return Stats{
		SessionID:       w.sessionID,
		Running:         w.running,
		FramesProcessed: w.framesProcessed,
		FPS:             w.fps,
		LastFrameTime:   w.lastFrameTime,
		UptimeSeconds:   uptime,
	}
}

func (w *Worker) Stop() error {
	w.mutex.Lock()
	if !w.running {
		w.mutex.Unlock()
		return nil
	}
	w.running = false
	w.mutex.Unlock()

	w.cancel()
	w.wg.Wait()

	log.Info().Str("session_id", w.sessionID).Msg("Worker stopped")
	return nil
}
