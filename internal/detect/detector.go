package detect

import (
	"context"

	"redaction-worker-go/internal/models"
)

// Detector produces redaction regions for a frame. Implementations run on a
// background task owned by the engine, never on the render path.
type Detector interface {
	Name() string

	// Cadence is the frame interval between runs; the engine triggers a run
	// every Nth observed frame.
	Cadence() int

	// Detect receives a private copy of the frame and returns full-resolution
	// regions to obscure. An error means "no update this cycle"; it never
	// reaches the render loop.
	Detect(ctx context.Context, frame *models.Frame) ([]models.Rect, error)
}

// Classifier is the entity classifier consumed by the text detector.
type Classifier interface {
	Available() bool
	Classify(ctx context.Context, text, language string) ([]models.EntityMatch, error)
}

// WordReader is the OCR adapter consumed by the text detector: an encoded
// grayscale raster in, recognized words with boxes out.
type WordReader interface {
	Words(img []byte) ([]models.OCRWord, error)
}
