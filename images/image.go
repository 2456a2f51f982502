// Package images - Frame definition and conversions for the lane pipeline.
package images

import (
	"github.com/pkg/errors"
)

// ErrInvalidFrame is returned when a frame has zero area, an unsupported channel
// count, or a pixel buffer that does not match its declared geometry.
var ErrInvalidFrame = errors.New("invalid frame")

// Frame represents an 8-bit pixel buffer with explicit geometry.
//
// Color frames are stored interleaved in BGR order (the OpenCV native layout),
// grayscale frames hold a single intensity byte per pixel. Frames are values:
// every pipeline stage consumes one Frame and returns a new one.
type Frame struct {
	// The width of the frame in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the frame in pixels.
	Height int `json:"height" yaml:"height"`
	// The number of interleaved channels (1 or 3).
	Channels int `json:"channels" yaml:"channels"`
	// The pixel data, row-major, Width*Height*Channels bytes.
	Data []byte `json:"data" yaml:"data"`
}

// NewFrame allocates a zeroed frame with the given geometry.
//
// Arguments:
//   - width: The width of the frame in pixels.
//   - height: The height of the frame in pixels.
//   - channels: The number of channels (ChannelsGray or ChannelsColor).
//
// Returns:
//   - Frame: A zero-initialized frame.
//
// @example
// frame := NewFrame(640, 480, ChannelsColor)
func NewFrame(width, height, channels int) Frame {
	size := width * height * channels
	if size < 0 {
		size = 0
	}
	return Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]byte, size),
	}
}

// Validate checks that the frame can be processed.
//
// Returns:
//   - error: ErrInvalidFrame (wrapped with the reason) if the frame is malformed.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Wrapf(ErrInvalidFrame, "zero area %dx%d", f.Width, f.Height)
	}
	if f.Channels != ChannelsGray && f.Channels != ChannelsColor {
		return errors.Wrapf(ErrInvalidFrame, "unsupported channel count %d", f.Channels)
	}
	if want := f.Width * f.Height * f.Channels; len(f.Data) != want {
		return errors.Wrapf(ErrInvalidFrame, "data length %d, expected %d", len(f.Data), want)
	}
	return nil
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Data) == 0
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	f.Data = data
	return f
}

// At returns the channel values of the pixel at (x, y).
// The returned slice aliases the frame buffer.
func (f Frame) At(x, y int) []byte {
	off := (y*f.Width + x) * f.Channels
	return f.Data[off : off+f.Channels]
}
