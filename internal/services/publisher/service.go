package publisher

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// Service serves the redacted output as an MJPEG stream. The latest JPEG is
// kept in memory and every connected client is notified when it changes;
// slow clients simply miss frames.
type Service struct {
	cfg *config.Config

	jpegMutex  sync.RWMutex
	latestJPEG []byte

	notifyMutex sync.RWMutex
	clients     map[string]chan struct{}
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:     cfg,
		clients: make(map[string]chan struct{}),
	}
}

// PublishFrame encodes the frame to JPEG and wakes streaming clients.
// Encoding failures are logged and dropped so the worker loop never stalls.
func (s *Service) PublishFrame(frame *models.Frame) {
	if err := s.updateLatestJPEG(frame); err != nil {
		log.Debug().Err(err).Int64("frame_index", frame.Index).Msg("Failed to encode preview frame")
		return
	}
	s.notifyClients()
}

func (s *Service) updateLatestJPEG(frame *models.Frame) error {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, 90})
	if err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}

	b := buf.GetBytes()
	jpegCopy := make([]byte, len(b))
	copy(jpegCopy, b)
	buf.Close()

	s.jpegMutex.Lock()
	s.latestJPEG = jpegCopy
	s.jpegMutex.Unlock()
	return nil
}

func (s *Service) notifyClients() {
	s.notifyMutex.RLock()
	defer s.notifyMutex.RUnlock()

	for _, notify := range s.clients {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

func (s *Service) addClient() (string, chan struct{}) {
	s.notifyMutex.Lock()
	defer s.notifyMutex.Unlock()

	id := uuid.New().String()
	notify := make(chan struct{}, 5)
	s.clients[id] = notify
	return id, notify
}

func (s *Service) removeClient(id string) {
	s.notifyMutex.Lock()
	defer s.notifyMutex.Unlock()

	if notify, exists := s.clients[id]; exists {
		close(notify)
		delete(s.clients, id)
	}
}

// ClientCount returns the number of connected stream clients.
func (s *Service) ClientCount() int {
	s.notifyMutex.RLock()
	defer s.notifyMutex.RUnlock()
	return len(s.clients)
}

// StreamMJPEGHTTP streams the redacted output to one HTTP client until it
// disconnects.
func (s *Service) StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request) {
	boundary := "frame"
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, notify := s.addClient()
	defer s.removeClient(id)

	writePart := func(jpeg []byte) bool {
		if _, err := io.WriteString(w, "--"+boundary+"\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "Content-Type: image/jpeg\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, fmt.Sprintf("Content-Length: %d\r\n\r\n", len(jpeg))); err != nil {
			return false
		}
		if _, err := w.Write(jpeg); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	s.jpegMutex.RLock()
	first := s.latestJPEG
	s.jpegMutex.RUnlock()
	if len(first) == 0 {
		placeholder := gocv.NewMatWithSize(360, 640, gocv.MatTypeCV8UC3)
		defer placeholder.Close()

		placeholder.SetTo(gocv.Scalar{Val1: 64, Val2: 64, Val3: 64, Val4: 0})

		textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
		gocv.PutText(&placeholder, "Redacted stream",
			image.Pt(20, 180), gocv.FontHersheySimplex, 1.0, textColor, 2)
		gocv.PutText(&placeholder, "Initializing...",
			image.Pt(20, 220), gocv.FontHersheySimplex, 0.8, textColor, 2)

		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, placeholder, []int{gocv.IMWriteJpegQuality, 90})
		if err == nil {
			b := buf.GetBytes()
			first = make([]byte, len(b))
			copy(first, b)
			buf.Close()
		}
	}
	if len(first) > 0 {
		if !writePart(first) {
			return
		}
	}

	keepaliveTicker := time.NewTicker(2 * time.Second)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
			s.jpegMutex.RLock()
			buf := s.latestJPEG
			s.jpegMutex.RUnlock()
			if len(buf) > 0 {
				if !writePart(buf) {
					return
				}
			}
		case <-keepaliveTicker.C:
			s.jpegMutex.RLock()
			buf := s.latestJPEG
			s.jpegMutex.RUnlock()
			if len(buf) > 0 {
				if !writePart(buf) {
					return
				}
			}
		}
	}
}

func (s *Service) Shutdown() {
	log.Info().Msg("MJPEG publisher shutting down")
}
