package detect

import (
	"testing"

	"redaction-worker-go/internal/models"
)

func TestFilterWords(t *testing.T) {
	words := []models.OCRWord{
		{Text: "password", Confidence: 91, OriginIndex: 0},
		{Text: "  hunter2secret  ", Confidence: 88, OriginIndex: 1},
		{Text: "x", Confidence: 95, OriginIndex: 2},
		{Text: "   ", Confidence: 99, OriginIndex: 3},
		{Text: "blurry", Confidence: 42, OriginIndex: 4},
		{Text: "ok", Confidence: 60, OriginIndex: 5},
	}

	got := FilterWords(words, 60)

	want := []string{"password", "hunter2secret", "ok"}
	if len(got) != len(want) {
		t.Fatalf("FilterWords() kept %d words, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range got {
		if w.Text != want[i] {
			t.Errorf("word %d = %q, want %q", i, w.Text, want[i])
		}
	}

	// Origin indices survive filtering so the matcher can track consumption.
	if got[0].OriginIndex != 0 || got[1].OriginIndex != 1 || got[2].OriginIndex != 5 {
		t.Errorf("origin indices not preserved: %+v", got)
	}
}

func TestFilterWordsEmptyInput(t *testing.T) {
	if got := FilterWords(nil, 60); len(got) != 0 {
		t.Errorf("FilterWords(nil) = %+v, want empty", got)
	}
}
