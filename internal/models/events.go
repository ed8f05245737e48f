package models

import (
	"time"
)

// RedactionEvent is published over NATS whenever redaction state changes
// (new regions applied, full-screen blur asserted or cleared).
type RedactionEvent struct {
	EventID     string    `json:"event_id"`
	WorkerID    string    `json:"worker_id"`
	SessionID   string    `json:"session_id"`
	FrameIndex  int64     `json:"frame_index"`
	Regions     []Rect    `json:"regions"`
	FaceRegions int       `json:"face_regions"`
	TextRegions int       `json:"text_regions"`
	FullScreen  bool      `json:"full_screen"`
	Timestamp   time.Time `json:"timestamp"`
}

// WindowFocusEvent is consumed from the external window-title sniffer.
// An empty title means no window has focus.
type WindowFocusEvent struct {
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// ChunkMetadata describes one recorded video chunk of the redacted stream.
type ChunkMetadata struct {
	ChunkID    string    `json:"chunk_id"`
	ChunkPath  string    `json:"chunk_path"`
	StartTime  time.Time `json:"start_time"`
	Duration   float64   `json:"duration"`
	FileSize   int64     `json:"file_size"`
	FrameCount int64     `json:"frame_count"`
}
