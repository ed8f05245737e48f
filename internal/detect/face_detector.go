package detect

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// FaceDetector runs a Haar cascade on a downscaled grayscale copy of the
// frame and maps hits back to full resolution. An optional exclusion
// rectangle drops boxes from a region the operator wants left visible,
// such as a presenter webcam overlay.
type FaceDetector struct {
	cfg       *config.Config
	cascade   gocv.CascadeClassifier
	exclusion models.Rect
}

func NewFaceDetector(cfg *config.Config) (*FaceDetector, error) {
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(cfg.FaceCascadeFile) {
		cascade.Close()
		return nil, fmt.Errorf("failed to load face cascade from %s", cfg.FaceCascadeFile)
	}

	exclusion, err := parseExclusionRect(cfg.FaceExclusionRect)
	if err != nil {
		cascade.Close()
		return nil, err
	}

	return &FaceDetector{
		cfg:       cfg,
		cascade:   cascade,
		exclusion: exclusion,
	}, nil
}

func (d *FaceDetector) Name() string {
	return "face"
}

func (d *FaceDetector) Cadence() int {
	return d.cfg.FaceDetectEvery
}

func (d *FaceDetector) Detect(_ context.Context, frame *models.Frame) ([]models.Rect, error) {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	scale := ScaleByFactor(d.cfg.FaceDownscale)
	work := gray
	if !scale.Identity() {
		resized := gocv.NewMat()
		defer resized.Close()
		target := image.Point{
			X: int(float64(frame.Width) * scale.Factor()),
			Y: int(float64(frame.Height) * scale.Factor()),
		}
		gocv.Resize(gray, &resized, target, 0, 0, gocv.InterpolationLinear)
		work = resized
	}

	minSize := image.Point{X: d.cfg.FaceMinSize, Y: d.cfg.FaceMinSize}
	hits := d.cascade.DetectMultiScaleWithParams(
		work,
		d.cfg.FaceScaleFactor,
		d.cfg.FaceMinNeighbors,
		0,
		minSize,
		image.Point{},
	)

	out := make([]models.Rect, 0, len(hits))
	for _, h := range hits {
		r := scale.Upscale(models.Rect{X: h.Min.X, Y: h.Min.Y, W: h.Dx(), H: h.Dy()})
		r = r.Clamp(frame.Width, frame.Height)
		if r.Empty() {
			continue
		}
		if !d.exclusion.Empty() && r.Overlaps(d.exclusion) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (d *FaceDetector) Close() {
	d.cascade.Close()
}

// parseExclusionRect parses "x,y,w,h". Empty input means no exclusion.
func parseExclusionRect(s string) (models.Rect, error) {
	if strings.TrimSpace(s) == "" {
		return models.Rect{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.Rect{}, fmt.Errorf("invalid exclusion rect %q, expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return models.Rect{}, fmt.Errorf("invalid exclusion rect %q: %w", s, err)
		}
		vals[i] = v
	}
	return models.Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}
