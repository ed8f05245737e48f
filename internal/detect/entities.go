package detect

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// EntityBuilder converts entity classifier hits on individual OCR words into
// candidate regions, filtered by confidence and a stop-list of common words.
type EntityBuilder struct {
	cfg       *config.Config
	sensitive map[string]bool
	stopWords map[string]bool
}

func NewEntityBuilder(cfg *config.Config) *EntityBuilder {
	sensitive := make(map[string]bool, len(cfg.SensitiveEntities))
	for _, kind := range cfg.SensitiveEntities {
		sensitive[strings.ToUpper(kind)] = true
	}
	stop := make(map[string]bool, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[strings.ToLower(w)] = true
	}
	return &EntityBuilder{cfg: cfg, sensitive: sensitive, stopWords: stop}
}

// Build submits every unconsumed word to the classifier and emits an
// EntityMatch candidate for each sensitive hit above the confidence bar.
// Classifier errors are per-word transient failures: the word is skipped and
// the run continues.
func (b *EntityBuilder) Build(ctx context.Context, words []models.OCRWord, consumed map[int]bool, classifier Classifier) []models.CandidateRegion {
	if classifier == nil || !classifier.Available() {
		return nil
	}

	var out []models.CandidateRegion
	var classifyErrors int
	for _, w := range words {
		if consumed[w.OriginIndex] {
			continue
		}
		if len(w.Text) < 3 {
			continue
		}
		if b.stopWords[strings.ToLower(w.Text)] {
			continue
		}

		matches, err := classifier.Classify(ctx, w.Text, b.cfg.AnalyzerLanguage)
		if err != nil {
			classifyErrors++
			continue
		}
		for _, m := range matches {
			if !b.sensitive[strings.ToUpper(m.Kind)] {
				continue
			}
			if m.Confidence < b.cfg.MinEntityConfidence {
				continue
			}
			out = append(out, models.CandidateRegion{
				Box:        w.Box.Expand(b.cfg.EntityPadPX, b.cfg.EntityPadPX),
				Source:     models.SourceEntityMatch,
				Confidence: m.Confidence,
			})
			consumed[w.OriginIndex] = true
			break
		}
	}

	if classifyErrors > 0 {
		log.Debug().
			Int("errors", classifyErrors).
			Int("words", len(words)).
			Msg("Entity classification errors during run")
	}
	return out
}
