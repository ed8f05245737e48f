package models

import (
	"time"
)

// Frame is a single captured video frame. The buffer is interleaved BGR,
// 3 bytes per pixel, owned by the capture/redact loop for its lifetime.
type Frame struct {
	Data      []byte    `json:"-"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Index     int64     `json:"index"`
	Timestamp time.Time `json:"timestamp"`
}

// Clone returns a private copy of the frame for a detection task so the
// render loop can keep mutating the original buffer.
func (f *Frame) Clone() *Frame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	return &Frame{
		Data:      data,
		Width:     f.Width,
		Height:    f.Height,
		Index:     f.Index,
		Timestamp: f.Timestamp,
	}
}

// Bounds returns the full-frame rectangle.
func (f *Frame) Bounds() Rect {
	return Rect{X: 0, Y: 0, W: f.Width, H: f.Height}
}
