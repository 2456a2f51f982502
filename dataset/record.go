// Package dataset reads the packed steering dataset: a .npy array of uint8
// records, each holding a steer label byte, a speed label byte and a
// depth-major image.
//
//	┌───────┬───────┬──────────────────────────────┐
//	│ steer │ speed │ image [depth][height][width] │
//	│ 1 B   │ 1 B   │ height*width*depth B         │
//	└───────┴───────┴──────────────────────────────┘
package dataset

import (
	"github.com/nvr-ai/go-lanes/images"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// LabelBytes is the number of label bytes at the start of each record.
const LabelBytes = 2

// Classes is the length of the steer and speed one-hot vectors.
const Classes = 180

// ErrInvalidRecord is returned for records that are too short or carry a
// label outside [0, Classes).
var ErrInvalidRecord = errors.New("invalid dataset record")

// Layout is the image geometry of a record.
type Layout struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	Depth  int `json:"depth" yaml:"depth"`
}

// DefaultLayout is the 160×60 single-channel layout of the recorded runs.
func DefaultLayout() Layout {
	return Layout{Width: 160, Height: 60, Depth: 1}
}

// ImageBytes is height*width*depth.
func (l Layout) ImageBytes() int {
	return l.Width * l.Height * l.Depth
}

// RecordBytes is LabelBytes + ImageBytes.
func (l Layout) RecordBytes() int {
	return LabelBytes + l.ImageBytes()
}

// Validate rejects non-positive dimensions.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 || l.Depth <= 0 {
		return errors.Errorf("layout %dx%dx%d must be positive", l.Width, l.Height, l.Depth)
	}
	return nil
}

// Record is one decoded sample.
type Record struct {
	// Steer and Speed are the raw label bytes.
	Steer int
	Speed int
	// SteerOneHot and SpeedOneHot have length Classes with a single 1.
	SteerOneHot []float32
	SpeedOneHot []float32
	// Image is a float32 tensor of shape (height, width, depth). Pixel bytes
	// are read as signed, so values lie in [-128, 127].
	Image *tensor.Dense
	// Layout is the geometry the record was decoded with.
	Layout Layout
}

// DecodeRecord decodes one raw record. Bytes past RecordBytes are ignored.
//
// Arguments:
//   - raw: The record bytes.
//   - layout: The image geometry.
//
// Returns:
//   - *Record: The decoded sample.
//   - error: ErrInvalidRecord if raw is too short or a label is out of range.
func DecodeRecord(raw []byte, layout Layout) (*Record, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if len(raw) < layout.RecordBytes() {
		return nil, errors.Wrapf(ErrInvalidRecord, "record has %d bytes, need %d", len(raw), layout.RecordBytes())
	}

	steer, speed := int(raw[0]), int(raw[1])
	if steer >= Classes || speed >= Classes {
		return nil, errors.Wrapf(ErrInvalidRecord, "label steer=%d speed=%d out of range", steer, speed)
	}

	w, h, d := layout.Width, layout.Height, layout.Depth
	src := raw[LabelBytes : LabelBytes+layout.ImageBytes()]
	hwc := make([]float32, len(src))
	for c := 0; c < d; c++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				hwc[(y*w+x)*d+c] = float32(int8(src[(c*h+y)*w+x]))
			}
		}
	}

	return &Record{
		Steer:       steer,
		Speed:       speed,
		SteerOneHot: oneHot(steer),
		SpeedOneHot: oneHot(speed),
		Image:       tensor.New(tensor.WithShape(h, w, d), tensor.WithBacking(hwc)),
		Layout:      layout,
	}, nil
}

func oneHot(i int) []float32 {
	v := make([]float32, Classes)
	v[i] = 1
	return v
}

// Frame converts a single-channel record image back to an 8-bit frame,
// wrapping negative values the way an unsigned cast does.
func (r *Record) Frame() (images.Frame, error) {
	if r.Layout.Depth != images.ChannelsGray && r.Layout.Depth != images.ChannelsColor {
		return images.Frame{}, errors.Wrapf(images.ErrInvalidFrame, "depth %d has no frame representation", r.Layout.Depth)
	}
	data, ok := r.Image.Data().([]float32)
	if !ok {
		return images.Frame{}, errors.Errorf("unexpected image dtype %v", r.Image.Dtype())
	}

	f := images.NewFrame(r.Layout.Width, r.Layout.Height, r.Layout.Depth)
	for i, v := range data {
		f.Data[i] = byte(int8(v))
	}
	return f, nil
}
