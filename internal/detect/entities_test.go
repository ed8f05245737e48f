package detect

import (
	"context"
	"errors"
	"testing"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

type fakeClassifier struct {
	available bool
	matches   map[string][]models.EntityMatch
	errOn     map[string]bool
	calls     []string
}

func (f *fakeClassifier) Available() bool {
	return f.available
}

func (f *fakeClassifier) Classify(_ context.Context, text, _ string) ([]models.EntityMatch, error) {
	f.calls = append(f.calls, text)
	if f.errOn[text] {
		return nil, errors.New("analyzer unavailable")
	}
	return f.matches[text], nil
}

func entityTestConfig() *config.Config {
	return &config.Config{
		AnalyzerLanguage:    "en",
		SensitiveEntities:   []string{"EMAIL_ADDRESS", "PHONE_NUMBER", "US_SSN"},
		MinEntityConfidence: 0.5,
		StopWords:           []string{"the", "file", "name"},
		EntityPadPX:         20,
	}
}

func TestEntityBuilderBuild(t *testing.T) {
	cfg := entityTestConfig()
	builder := NewEntityBuilder(cfg)
	classifier := &fakeClassifier{
		available: true,
		matches: map[string][]models.EntityMatch{
			"bob@example.com": {{Kind: "EMAIL_ADDRESS", Confidence: 0.95}},
			"lowscore":        {{Kind: "PHONE_NUMBER", Confidence: 0.3}},
			"DATE_TIME-ish":   {{Kind: "DATE_TIME", Confidence: 0.9}},
		},
	}

	words := []models.OCRWord{
		{Text: "contact", Box: models.Rect{X: 10, Y: 10, W: 60, H: 18}, OriginIndex: 0},
		{Text: "bob@example.com", Box: models.Rect{X: 80, Y: 10, W: 140, H: 18}, OriginIndex: 1},
		{Text: "lowscore", Box: models.Rect{X: 240, Y: 10, W: 70, H: 18}, OriginIndex: 2},
		{Text: "DATE_TIME-ish", Box: models.Rect{X: 320, Y: 10, W: 100, H: 18}, OriginIndex: 3},
	}
	consumed := make(map[int]bool)

	got := builder.Build(context.Background(), words, consumed, classifier)
	if len(got) != 1 {
		t.Fatalf("Build() returned %d regions, want 1: %+v", len(got), got)
	}
	if got[0].Source != models.SourceEntityMatch {
		t.Errorf("Source = %q, want %q", got[0].Source, models.SourceEntityMatch)
	}
	if got[0].Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", got[0].Confidence)
	}

	want := models.Rect{X: 60, Y: -10, W: 180, H: 58}
	if got[0].Box != want {
		t.Errorf("Box = %+v, want %+v", got[0].Box, want)
	}
	if !consumed[1] {
		t.Error("matched word should be consumed")
	}
	if consumed[0] || consumed[2] || consumed[3] {
		t.Errorf("unmatched words should stay unconsumed: %+v", consumed)
	}
}

func TestEntityBuilderSkipsStopWordsAndShortWords(t *testing.T) {
	builder := NewEntityBuilder(entityTestConfig())
	classifier := &fakeClassifier{available: true}

	words := []models.OCRWord{
		{Text: "The", OriginIndex: 0},
		{Text: "ab", OriginIndex: 1},
		{Text: "FILE", OriginIndex: 2},
		{Text: "something", OriginIndex: 3},
	}
	builder.Build(context.Background(), words, make(map[int]bool), classifier)

	if len(classifier.calls) != 1 || classifier.calls[0] != "something" {
		t.Errorf("classifier calls = %v, want only %q", classifier.calls, "something")
	}
}

func TestEntityBuilderSkipsConsumed(t *testing.T) {
	builder := NewEntityBuilder(entityTestConfig())
	classifier := &fakeClassifier{
		available: true,
		matches: map[string][]models.EntityMatch{
			"bob@example.com": {{Kind: "EMAIL_ADDRESS", Confidence: 0.9}},
		},
	}
	words := []models.OCRWord{
		{Text: "bob@example.com", OriginIndex: 0},
	}
	consumed := map[int]bool{0: true}

	if got := builder.Build(context.Background(), words, consumed, classifier); len(got) != 0 {
		t.Errorf("Build() used a consumed word: %+v", got)
	}
	if len(classifier.calls) != 0 {
		t.Errorf("classifier should not be called for consumed words: %v", classifier.calls)
	}
}

func TestEntityBuilderUnavailableClassifier(t *testing.T) {
	builder := NewEntityBuilder(entityTestConfig())
	classifier := &fakeClassifier{available: false}

	words := []models.OCRWord{{Text: "bob@example.com", OriginIndex: 0}}
	if got := builder.Build(context.Background(), words, make(map[int]bool), classifier); got != nil {
		t.Errorf("Build() with unavailable classifier = %+v, want nil", got)
	}
	if got := builder.Build(context.Background(), words, make(map[int]bool), nil); got != nil {
		t.Errorf("Build() with nil classifier = %+v, want nil", got)
	}
}

func TestEntityBuilderClassifierErrorsAreSkipped(t *testing.T) {
	builder := NewEntityBuilder(entityTestConfig())
	classifier := &fakeClassifier{
		available: true,
		errOn:     map[string]bool{"flaky-word": true},
		matches: map[string][]models.EntityMatch{
			"555-0100-call": {{Kind: "PHONE_NUMBER", Confidence: 0.8}},
		},
	}
	words := []models.OCRWord{
		{Text: "flaky-word", OriginIndex: 0},
		{Text: "555-0100-call", OriginIndex: 1},
	}

	got := builder.Build(context.Background(), words, make(map[int]bool), classifier)
	if len(got) != 1 {
		t.Fatalf("Build() returned %d regions, want 1 despite a per-word error", len(got))
	}
}
