package ocr

import (
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// Service wraps a Tesseract client for word-level text extraction. The
// client is not safe for concurrent use, so calls are serialized; the
// detection engine only runs one text pass at a time anyway.
type Service struct {
	mu     sync.Mutex
	client *gosseract.Client
	closed bool
}

func NewService(cfg *config.Config) (*Service, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(cfg.OCRLanguage); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language %q: %w", cfg.OCRLanguage, err)
	}
	// Screen captures are a single uniform block of text, not a scanned page.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	log.Info().Str("language", cfg.OCRLanguage).Msg("OCR service initialized")

	return &Service{client: client}, nil
}

// Words runs OCR on an encoded image and returns one entry per recognized
// word with its bounding box and confidence (0-100).
func (s *Service) Words(img []byte) ([]models.OCRWord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("ocr service is closed")
	}

	if err := s.client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("failed to set OCR image: %w", err)
	}

	boxes, err := s.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounding boxes: %w", err)
	}

	words := make([]models.OCRWord, 0, len(boxes))
	for i, b := range boxes {
		words = append(words, models.OCRWord{
			Text: b.Word,
			Box: models.Rect{
				X: b.Box.Min.X,
				Y: b.Box.Min.Y,
				W: b.Box.Dx(),
				H: b.Box.Dy(),
			},
			Confidence:  b.Confidence,
			OriginIndex: i,
		})
	}
	return words, nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
