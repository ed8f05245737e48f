package models

import (
	"time"
)

// RegionSource identifies which detection pass produced a candidate region.
type RegionSource string

const (
	SourceLabelValuePair RegionSource = "label_value_pair"
	SourcePatternMatch   RegionSource = "pattern_match"
	SourceEntityMatch    RegionSource = "entity_match"
	SourceFaceBox        RegionSource = "face_box"
)

// OCRWord is a single recognized word with its bounding box.
// Confidence is the OCR engine's word confidence in [0, 100]. OriginIndex is
// the position in the OCR result list, used for forward scanning and
// consumed-word bookkeeping.
type OCRWord struct {
	Text        string
	Box         Rect
	Confidence  float64
	OriginIndex int
}

// CandidateRegion is a transient region proposal consumed by the merger.
type CandidateRegion struct {
	Box        Rect
	Source     RegionSource
	Confidence float64
}

// DetectionResult is one completed detection run: the merged region set and
// the time it was produced.
type DetectionResult struct {
	Regions    []Rect    `json:"regions"`
	ProducedAt time.Time `json:"produced_at"`
}

// EntityMatch is a single hit from the entity classifier.
type EntityMatch struct {
	Kind       string  `json:"entity_type"`
	Confidence float64 `json:"score"`
}
