package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-lanes/images"
)

// Frame is one captured image travelling through the runner.
type Frame struct {
	// ID uniquely identifies the frame across runs.
	ID uuid.UUID
	// Seq is the capture order within one run, starting at 1.
	Seq uint64
	// Captured is when the source produced the frame.
	Captured time.Time
	// Image is the pixel buffer.
	Image images.Frame
}

// NewFrame stamps an image with a fresh ID and the current time.
func NewFrame(seq uint64, img images.Frame) Frame {
	return Frame{
		ID:       uuid.New(),
		Seq:      seq,
		Captured: time.Now(),
		Image:    img,
	}
}
