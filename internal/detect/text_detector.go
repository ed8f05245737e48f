package detect

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// TextDetector finds confidential on-screen text: OCR extracts words from a
// downscaled grayscale raster, then three passes (geometric label/value
// matcher, pattern scanner, entity classifier) produce candidate regions
// that are merged, rescaled to full resolution, and merged again.
type TextDetector struct {
	cfg        *config.Config
	ocr        WordReader
	classifier Classifier
	matcher    *Matcher
	entities   *EntityBuilder
}

func NewTextDetector(cfg *config.Config, ocr WordReader, classifier Classifier) *TextDetector {
	return &TextDetector{
		cfg:        cfg,
		ocr:        ocr,
		classifier: classifier,
		matcher:    NewMatcher(cfg),
		entities:   NewEntityBuilder(cfg),
	}
}

func (d *TextDetector) Name() string {
	return "confidential-text"
}

func (d *TextDetector) Cadence() int {
	return d.cfg.TextDetectEvery
}

func (d *TextDetector) Detect(ctx context.Context, frame *models.Frame) ([]models.Rect, error) {
	raster, scale, err := d.preprocess(frame)
	if err != nil {
		return nil, err
	}

	raw, err := d.ocr.Words(raster)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	words := FilterWords(raw, d.cfg.MinOCRConfidence)
	if len(words) == 0 {
		return nil, nil
	}

	consumed := make(map[int]bool)
	candidates := d.matcher.Match(words, consumed)
	candidates = append(candidates, ScanPatterns(words, consumed, d.cfg.EntityPadPX)...)
	candidates = append(candidates, d.entities.Build(ctx, words, consumed, d.classifier)...)
	if len(candidates) == 0 {
		return nil, nil
	}

	boxes := make([]models.Rect, 0, len(candidates))
	for _, c := range candidates {
		boxes = append(boxes, c.Box.Expand(d.cfg.MergeMargin, d.cfg.MergeMargin))
	}
	merged := MergeRegions(boxes, d.cfg.MergeIoUThreshold)

	// Rescale to full resolution, then merge again: boxes that were apart on
	// the downsampled raster may touch at full size.
	full := make([]models.Rect, 0, len(merged))
	for _, r := range merged {
		clamped := scale.Upscale(r).Clamp(frame.Width, frame.Height)
		if clamped.Empty() {
			continue
		}
		full = append(full, clamped)
	}
	return MergeRegions(full, d.cfg.MergeIoUThreshold), nil
}

// preprocess converts the frame to a grayscale raster tuned for OCR on
// rendered UI text: downscale to the configured target width, then an
// adaptive threshold to lift text contrast. Returns the PNG-encoded raster
// and the scale context for this run.
func (d *TextDetector) preprocess(frame *models.Frame) ([]byte, ScaleContext, error) {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return nil, ScaleContext{}, fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	scale := ScaleToWidth(d.cfg.DownscaleTargetWidth, frame.Width)
	work := gray
	if !scale.Identity() {
		resized := gocv.NewMat()
		defer resized.Close()
		target := image.Point{
			X: d.cfg.DownscaleTargetWidth,
			Y: int(float64(frame.Height) * scale.Factor()),
		}
		gocv.Resize(gray, &resized, target, 0, 0, gocv.InterpolationLinear)
		work = resized
	}

	thresholded := gocv.NewMat()
	defer thresholded.Close()
	gocv.AdaptiveThreshold(work, &thresholded, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, 11, 2)

	buf, err := gocv.IMEncode(".png", thresholded)
	if err != nil {
		return nil, ScaleContext{}, fmt.Errorf("failed to encode OCR raster: %w", err)
	}
	defer buf.Close()

	b := buf.GetBytes()
	raster := make([]byte, len(b))
	copy(raster, b)
	return raster, scale, nil
}
