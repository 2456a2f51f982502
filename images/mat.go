package images

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ToMat copies the frame into a newly allocated gocv.Mat.
//
// The returned Mat owns its memory and must be closed by the caller.
//
// Returns:
//   - gocv.Mat: An 8-bit Mat with the frame's geometry.
//   - error: ErrInvalidFrame if the frame is malformed.
//
// @example
// mat, err := frame.ToMat()
//
//	if err != nil {
//	    return err
//	}
//
// defer mat.Close()
func (f Frame) ToMat() (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	view, err := gocv.NewMatFromBytes(f.Height, f.Width, MatType(f.Channels), f.Data)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to wrap frame data")
	}
	defer view.Close()

	// Clone so the Mat does not alias the Go-managed frame buffer.
	return view.Clone(), nil
}

// FrameFromMat copies an 8-bit 1- or 3-channel Mat into a Frame.
//
// Arguments:
//   - mat: The source Mat. It is not modified or closed.
//
// Returns:
//   - Frame: A frame holding a copy of the Mat data.
//   - error: ErrInvalidFrame if the Mat is empty or has an unsupported type.
func FrameFromMat(mat gocv.Mat) (Frame, error) {
	if mat.Empty() {
		return Frame{}, errors.Wrap(ErrInvalidFrame, "empty mat")
	}

	mt := mat.Type()
	if mt != gocv.MatTypeCV8UC1 && mt != gocv.MatTypeCV8UC3 {
		return Frame{}, errors.Wrapf(ErrInvalidFrame, "unsupported mat type %v", mt)
	}

	src := mat
	if !mat.IsContinuous() {
		src = mat.Clone()
		defer src.Close()
	}

	frame := Frame{
		Width:    src.Cols(),
		Height:   src.Rows(),
		Channels: src.Channels(),
		Data:     src.ToBytes(),
	}
	return frame, frame.Validate()
}

// Display returns a color-compatible copy of the frame.
//
// Single-channel frames are promoted to three channels by channel replication,
// color frames are copied unchanged.
//
// Arguments:
//   - f: The frame to promote.
//
// Returns:
//   - Frame: A 3-channel frame with the same geometry.
//   - error: ErrInvalidFrame if the frame is malformed.
func Display(f Frame) (Frame, error) {
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	if f.Channels == ChannelsColor {
		return f.Clone(), nil
	}

	out := NewFrame(f.Width, f.Height, ChannelsColor)
	for i, v := range f.Data {
		out.Data[i*3+0] = v
		out.Data[i*3+1] = v
		out.Data[i*3+2] = v
	}
	return out, nil
}

// FromImage converts a Go image into a frame.
//
// *image.Gray sources produce a single-channel frame, every other color model
// is converted to 3-channel BGR.
func FromImage(img image.Image) Frame {
	b := img.Bounds()

	if gray, ok := img.(*image.Gray); ok {
		f := NewFrame(b.Dx(), b.Dy(), ChannelsGray)
		for y := 0; y < b.Dy(); y++ {
			start := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(f.Data[y*b.Dx():], gray.Pix[start:start+b.Dx()])
		}
		return f
	}

	f := NewFrame(b.Dx(), b.Dy(), ChannelsColor)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			off := ((y-b.Min.Y)*f.Width + (x - b.Min.X)) * 3
			f.Data[off+0] = c.B
			f.Data[off+1] = c.G
			f.Data[off+2] = c.R
		}
	}
	return f
}

// ToImage converts the frame into a Go image.
//
// Returns:
//   - image.Image: *image.Gray for single-channel frames, *image.RGBA otherwise.
//   - error: ErrInvalidFrame if the frame is malformed.
func (f Frame) ToImage() (image.Image, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	rect := image.Rect(0, 0, f.Width, f.Height)
	if f.Channels == ChannelsGray {
		img := image.NewGray(rect)
		copy(img.Pix, f.Data)
		return img, nil
	}

	img := image.NewRGBA(rect)
	for i := 0; i < f.Width*f.Height; i++ {
		img.Pix[i*4+0] = f.Data[i*3+2]
		img.Pix[i*4+1] = f.Data[i*3+1]
		img.Pix[i*4+2] = f.Data[i*3+0]
		img.Pix[i*4+3] = 0xff
	}
	return img, nil
}
