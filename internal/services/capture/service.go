package capture

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// Service reads frames from the capture source. The source is either a
// numeric device index (screen grabber or webcam exposed as a V4L device)
// or a stream URL opened through the FFmpeg backend.
type Service struct {
	cfg *config.Config

	mu  sync.Mutex
	cap *gocv.VideoCapture
	img gocv.Mat

	frameIndex        int64
	consecutiveErrors int
	lastFrameTime     time.Time
}

const maxConsecutiveErrors = 10

func NewService(cfg *config.Config) (*Service, error) {
	s := &Service{
		cfg: cfg,
		img: gocv.NewMat(),
	}
	if err := s.open(); err != nil {
		s.img.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) open() error {
	var cap *gocv.VideoCapture
	var err error

	if idx, convErr := strconv.Atoi(s.cfg.CaptureSource); convErr == nil {
		cap, err = gocv.OpenVideoCapture(idx)
	} else {
		cap, err = gocv.OpenVideoCaptureWithAPI(s.cfg.CaptureSource, gocv.VideoCaptureFFmpeg)
	}
	if err != nil {
		return fmt.Errorf("failed to open capture source %s: %w", s.cfg.CaptureSource, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("capture source %s is not opened", s.cfg.CaptureSource)
	}

	// Minimal buffering so redaction always sees the most recent frame.
	cap.Set(gocv.VideoCaptureBufferSize, 1)

	log.Info().
		Str("source", s.cfg.CaptureSource).
		Float64("fps", cap.Get(gocv.VideoCaptureFPS)).
		Float64("width", cap.Get(gocv.VideoCaptureFrameWidth)).
		Float64("height", cap.Get(gocv.VideoCaptureFrameHeight)).
		Msg("Capture source opened")

	s.cap = cap
	return nil
}

// NextFrame reads one frame from the source. After repeated read failures
// the capture is reopened once before giving up.
func (s *Service) NextFrame() (*models.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cap == nil {
		return nil, fmt.Errorf("capture is closed")
	}

	if !s.cap.Read(&s.img) || s.img.Empty() {
		s.consecutiveErrors++
		if s.consecutiveErrors >= maxConsecutiveErrors {
			log.Warn().
				Int("consecutive_errors", s.consecutiveErrors).
				Msg("Too many consecutive read errors, reopening capture")
			if err := s.reopen(); err != nil {
				return nil, err
			}
			s.consecutiveErrors = 0
		}
		return nil, fmt.Errorf("failed to read frame from capture")
	}
	s.consecutiveErrors = 0

	s.frameIndex++
	s.lastFrameTime = time.Now()

	frame := &models.Frame{
		Data:      s.img.ToBytes(),
		Width:     s.img.Cols(),
		Height:    s.img.Rows(),
		Index:     s.frameIndex,
		Timestamp: s.lastFrameTime,
	}
	return frame, nil
}

func (s *Service) reopen() error {
	if s.cap != nil {
		s.cap.Close()
		s.cap = nil
	}
	time.Sleep(500 * time.Millisecond)
	if err := s.open(); err != nil {
		return fmt.Errorf("capture reopen failed: %w", err)
	}
	return nil
}

// FrameIndex returns the index of the most recently read frame.
func (s *Service) FrameIndex() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameIndex
}

// LastFrameTime returns when the most recent frame was read.
func (s *Service) LastFrameTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrameTime
}

func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cap != nil {
		s.cap.Close()
		s.cap = nil
	}
	s.img.Close()
	log.Info().Msg("Capture source closed")
}
