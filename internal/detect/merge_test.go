package detect

import (
	"reflect"
	"testing"

	"redaction-worker-go/internal/models"
)

func TestMergeRegions(t *testing.T) {
	tests := []struct {
		name      string
		boxes     []models.Rect
		threshold float64
		want      []models.Rect
	}{
		{
			name: "disjoint boxes pass through",
			boxes: []models.Rect{
				{X: 0, Y: 0, W: 10, H: 10},
				{X: 100, Y: 100, W: 10, H: 10},
			},
			threshold: 0.2,
			want: []models.Rect{
				{X: 0, Y: 0, W: 10, H: 10},
				{X: 100, Y: 100, W: 10, H: 10},
			},
		},
		{
			name: "heavily overlapping boxes unioned",
			boxes: []models.Rect{
				{X: 0, Y: 0, W: 100, H: 50},
				{X: 10, Y: 5, W: 100, H: 50},
			},
			threshold: 0.2,
			want:      []models.Rect{{X: 0, Y: 0, W: 110, H: 55}},
		},
		{
			name: "slight overlap below threshold kept separate",
			boxes: []models.Rect{
				{X: 0, Y: 0, W: 100, H: 100},
				{X: 95, Y: 95, W: 100, H: 100},
			},
			threshold: 0.2,
			want: []models.Rect{
				{X: 0, Y: 0, W: 100, H: 100},
				{X: 95, Y: 95, W: 100, H: 100},
			},
		},
		{
			name: "empty boxes dropped",
			boxes: []models.Rect{
				{X: 5, Y: 5, W: 0, H: 10},
				{X: 10, Y: 10, W: 20, H: 20},
			},
			threshold: 0.2,
			want:      []models.Rect{{X: 10, Y: 10, W: 20, H: 20}},
		},
		{
			name:      "nil input",
			boxes:     nil,
			threshold: 0.2,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeRegions(tt.boxes, tt.threshold)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeRegions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMergeRegionsChainFolds(t *testing.T) {
	// Each neighbor pair overlaps heavily; the union must keep folding
	// until one box covers the whole chain.
	boxes := []models.Rect{
		{X: 0, Y: 0, W: 60, H: 20},
		{X: 30, Y: 0, W: 60, H: 20},
		{X: 60, Y: 0, W: 60, H: 20},
	}
	got := MergeRegions(boxes, 0.2)
	want := []models.Rect{{X: 0, Y: 0, W: 120, H: 20}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeRegions() = %+v, want %+v", got, want)
	}
}

func TestMergeRegionsIdempotent(t *testing.T) {
	boxes := []models.Rect{
		{X: 0, Y: 0, W: 50, H: 30},
		{X: 10, Y: 5, W: 60, H: 30},
		{X: 200, Y: 200, W: 40, H: 40},
		{X: 210, Y: 205, W: 40, H: 40},
		{X: 500, Y: 10, W: 20, H: 20},
	}

	once := MergeRegions(boxes, 0.2)
	twice := MergeRegions(once, 0.2)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent: first %+v, second %+v", once, twice)
	}
	if len(once) > len(boxes) {
		t.Errorf("merge grew the set: %d > %d", len(once), len(boxes))
	}
}

func TestMergeRegionsDeterministic(t *testing.T) {
	a := []models.Rect{
		{X: 30, Y: 0, W: 50, H: 20},
		{X: 0, Y: 0, W: 50, H: 20},
	}
	b := []models.Rect{
		{X: 0, Y: 0, W: 50, H: 20},
		{X: 30, Y: 0, W: 50, H: 20},
	}
	if !reflect.DeepEqual(MergeRegions(a, 0.2), MergeRegions(b, 0.2)) {
		t.Error("merge result depends on input order")
	}
}
