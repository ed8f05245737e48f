package detect

import (
	"strings"

	"redaction-worker-go/internal/models"
)

// FilterWords drops OCR words that are empty after trimming, single
// characters, or below the minimum confidence. Retained words keep their
// original list index so adjacency logic can look ahead in document order.
func FilterWords(words []models.OCRWord, minConfidence float64) []models.OCRWord {
	out := make([]models.OCRWord, 0, len(words))
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if len(text) <= 1 {
			continue
		}
		if w.Confidence < minConfidence {
			continue
		}
		w.Text = text
		out = append(out, w)
	}
	return out
}
