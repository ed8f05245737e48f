package detect

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// Redactor applies the blur operator to frame pixels in place. It runs
// synchronously on the render/encode path and holds no state beyond its
// kernel configuration.
type Redactor struct {
	kernel     int
	sigma      float64
	fullKernel int
	fullSigma  float64
}

func NewRedactor(cfg *config.Config) *Redactor {
	return &Redactor{
		kernel:     oddKernel(cfg.BlurKernel),
		sigma:      cfg.BlurSigma,
		fullKernel: oddKernel(cfg.FullScreenBlurKernel),
		fullSigma:  cfg.FullScreenBlurSigma,
	}
}

// BlurRegions obscures each region of the frame buffer. Regions must already
// be clamped to frame bounds.
func (r *Redactor) BlurRegions(frame *models.Frame, regions []models.Rect) error {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	defer mat.Close()

	for _, reg := range regions {
		if reg.Empty() {
			continue
		}
		roi := mat.Region(image.Rect(reg.X, reg.Y, reg.X+reg.W, reg.Y+reg.H))
		gocv.GaussianBlur(roi, &roi, image.Pt(r.kernel, r.kernel), r.sigma, r.sigma, gocv.BorderDefault)
		roi.Close()
	}

	copy(frame.Data, mat.ToBytes())
	return nil
}

// BlurAll obscures the entire frame, the degenerate case used when the
// full-screen signal is asserted.
func (r *Redactor) BlurAll(frame *models.Frame) error {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	defer mat.Close()

	gocv.GaussianBlur(mat, &mat, image.Pt(r.fullKernel, r.fullKernel), r.fullSigma, r.fullSigma, gocv.BorderDefault)
	copy(frame.Data, mat.ToBytes())
	return nil
}

// oddKernel rounds a kernel size up to the next odd value; Gaussian kernels
// must be odd.
func oddKernel(k int) int {
	if k < 1 {
		return 1
	}
	if k%2 == 0 {
		return k + 1
	}
	return k
}
