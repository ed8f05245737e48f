package detect

import (
	"testing"

	"redaction-worker-go/internal/models"
)

func TestScaleToWidth(t *testing.T) {
	tests := []struct {
		name         string
		target       int
		original     int
		wantFactor   float64
		wantIdentity bool
	}{
		{name: "half downscale", target: 960, original: 1920, wantFactor: 0.5},
		{name: "target above original", target: 1920, original: 1280, wantFactor: 1, wantIdentity: true},
		{name: "target equals original", target: 1280, original: 1280, wantFactor: 1, wantIdentity: true},
		{name: "zero target", target: 0, original: 1280, wantFactor: 1, wantIdentity: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := ScaleToWidth(tt.target, tt.original)
			if sc.Factor() != tt.wantFactor {
				t.Errorf("Factor() = %v, want %v", sc.Factor(), tt.wantFactor)
			}
			if sc.Identity() != tt.wantIdentity {
				t.Errorf("Identity() = %v, want %v", sc.Identity(), tt.wantIdentity)
			}
		})
	}
}

func TestUpscaleHalfFactor(t *testing.T) {
	sc := ScaleByFactor(0.5)

	got := sc.Upscale(models.Rect{X: 10, Y: 20, W: 100, H: 50})
	want := models.Rect{X: 20, Y: 40, W: 200, H: 100}
	if got != want {
		t.Errorf("Upscale() = %+v, want %+v", got, want)
	}
}

func TestUpscaleRounds(t *testing.T) {
	sc := ScaleByFactor(0.75)

	// 10 / 0.75 = 13.33 rounds to 13, 11 / 0.75 = 14.67 rounds to 15.
	got := sc.Upscale(models.Rect{X: 10, Y: 11, W: 30, H: 30})
	want := models.Rect{X: 13, Y: 15, W: 40, H: 40}
	if got != want {
		t.Errorf("Upscale() = %+v, want %+v", got, want)
	}
}

func TestScaleByFactorRejectsInvalid(t *testing.T) {
	for _, f := range []float64{0, -0.5, 1.5} {
		if sc := ScaleByFactor(f); !sc.Identity() {
			t.Errorf("ScaleByFactor(%v) should be identity, got factor %v", f, sc.Factor())
		}
	}
}

func TestUpscaleIdentityUnchanged(t *testing.T) {
	sc := ScaleByFactor(1)
	r := models.Rect{X: 3, Y: 7, W: 11, H: 13}
	if got := sc.Upscale(r); got != r {
		t.Errorf("identity Upscale() = %+v, want %+v", got, r)
	}
}
