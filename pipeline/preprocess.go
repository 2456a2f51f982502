package pipeline

import (
	"image"

	"github.com/nvr-ai/go-lanes/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Grayscale converts a BGR frame to single-channel intensity.
// A frame that is already single-channel is returned as an unchanged copy.
//
// Arguments:
//   - f: A 1- or 3-channel frame.
//
// Returns:
//   - images.Frame: A single-channel frame with the same geometry.
//   - error: images.ErrInvalidFrame if f is malformed.
func Grayscale(f images.Frame) (images.Frame, error) {
	if err := f.Validate(); err != nil {
		return images.Frame{}, err
	}
	if f.Channels == images.ChannelsGray {
		return f.Clone(), nil
	}

	src, err := f.ToMat()
	if err != nil {
		return images.Frame{}, err
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(src, &gray, gocv.ColorBGRToGray); err != nil {
		return images.Frame{}, errors.Wrap(err, "grayscale conversion failed")
	}

	return images.FrameFromMat(gray)
}

// Blur smooths the frame with a square Gaussian kernel (sigma derived from the
// kernel size, default border handling).
//
// Arguments:
//   - f: The frame to smooth.
//   - kernelSize: Odd kernel side length, e.g. 5.
//
// Returns:
//   - images.Frame: The smoothed frame.
//   - error: images.ErrInvalidFrame if f is malformed.
func Blur(f images.Frame, kernelSize int) (images.Frame, error) {
	src, err := f.ToMat()
	if err != nil {
		return images.Frame{}, err
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	if err := gocv.GaussianBlur(src, &blurred, image.Pt(kernelSize, kernelSize), 0, 0, gocv.BorderDefault); err != nil {
		return images.Frame{}, errors.Wrap(err, "gaussian blur failed")
	}

	return images.FrameFromMat(blurred)
}

// Edges runs the dual-threshold gradient edge detector.
// Color input is converted to grayscale first.
//
// Returns:
//   - images.Frame: A single-channel binary edge map with values in {0, 255}.
//   - error: images.ErrInvalidFrame if f is malformed.
func Edges(f images.Frame, cfg EdgeConfig) (images.Frame, error) {
	gray, err := Grayscale(f)
	if err != nil {
		return images.Frame{}, err
	}

	src, err := gray.ToMat()
	if err != nil {
		return images.Frame{}, err
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	if err := gocv.Canny(src, &edges, cfg.Low, cfg.High); err != nil {
		return images.Frame{}, errors.Wrap(err, "edge detection failed")
	}

	return images.FrameFromMat(edges)
}

// Preprocess runs grayscale conversion, blur and edge extraction.
//
// Arguments:
//   - f: A color or grayscale frame.
//   - cfg: The pipeline configuration (blur and edge sections are used).
//
// Returns:
//   - images.Frame: The binary edge map, same width and height as f.
//   - error: images.ErrInvalidFrame if f is malformed.
//
// @example
// edges, err := Preprocess(frame, DefaultConfig())
func Preprocess(f images.Frame, cfg Config) (images.Frame, error) {
	gray, err := Grayscale(f)
	if err != nil {
		return images.Frame{}, err
	}
	blurred, err := Blur(gray, cfg.Blur.KernelSize)
	if err != nil {
		return images.Frame{}, err
	}
	return Edges(blurred, cfg.Edges)
}
