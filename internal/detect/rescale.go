package detect

import (
	"math"

	"redaction-worker-go/internal/models"
)

// ScaleContext carries the downscale factor applied to a raster before
// detection, for one run only. Regions computed on the downsampled raster
// are mapped back to full-frame coordinates through it; the factor never
// mixes across runs.
type ScaleContext struct {
	factor float64
}

// ScaleToWidth derives the context for a raster downscaled to targetWidth.
// When no downscaling applies (target at or above the original) the context
// is the identity.
func ScaleToWidth(targetWidth, originalWidth int) ScaleContext {
	if targetWidth <= 0 || originalWidth <= 0 || targetWidth >= originalWidth {
		return ScaleContext{factor: 1}
	}
	return ScaleContext{factor: float64(targetWidth) / float64(originalWidth)}
}

// ScaleByFactor builds a context from an explicit downscale factor in (0, 1].
func ScaleByFactor(factor float64) ScaleContext {
	if factor <= 0 || factor > 1 {
		return ScaleContext{factor: 1}
	}
	return ScaleContext{factor: factor}
}

// Factor returns the downscale factor (1 means identity).
func (s ScaleContext) Factor() float64 {
	if s.factor == 0 {
		return 1
	}
	return s.factor
}

// Identity reports whether no rescaling is needed.
func (s ScaleContext) Identity() bool {
	return s.Factor() == 1
}

// Upscale maps a region from downsampled to full-frame coordinates with
// rounding.
func (s ScaleContext) Upscale(r models.Rect) models.Rect {
	f := s.Factor()
	if f == 1 {
		return r
	}
	return models.Rect{
		X: int(math.Round(float64(r.X) / f)),
		Y: int(math.Round(float64(r.Y) / f)),
		W: int(math.Round(float64(r.W) / f)),
		H: int(math.Round(float64(r.H) / f)),
	}
}
