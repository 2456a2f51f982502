package pipeline

import (
	"github.com/nvr-ai/go-lanes/images"
	"github.com/nvr-ai/go-lanes/lane"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DrawSegments renders raw segments and extrapolated lines onto a zeroed
// 3-channel canvas. Raw segments are drawn first so the final lines paint
// over them where they overlap.
//
// Arguments:
//   - width, height: Canvas size in pixels.
//   - raw: Detected segments, drawn with the raw color and thickness.
//   - lines: Extrapolated lines, drawn with the final color and thickness.
//   - cfg: Overlay colors and thicknesses.
//
// Returns:
//   - images.Frame: The canvas.
//   - error: images.ErrInvalidFrame if the size has zero area.
func DrawSegments(width, height int, raw []lane.Segment, lines []lane.Line, cfg OverlayConfig) (images.Frame, error) {
	if width <= 0 || height <= 0 {
		return images.Frame{}, errors.Wrapf(images.ErrInvalidFrame, "zero area canvas %dx%d", width, height)
	}

	canvas := gocv.Zeros(height, width, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	for _, s := range raw {
		p1, p2 := s.Points()
		if err := gocv.Line(&canvas, p1, p2, cfg.RawColor, cfg.RawThickness); err != nil {
			return images.Frame{}, errors.Wrap(err, "failed to draw segment")
		}
	}
	for _, l := range lines {
		p1, p2 := l.Points()
		if err := gocv.Line(&canvas, p1, p2, cfg.FinalColor, cfg.FinalThickness); err != nil {
			return images.Frame{}, errors.Wrap(err, "failed to draw lane line")
		}
	}

	return images.FrameFromMat(canvas)
}

// Blend computes Alpha*base + Beta*canvas + Gamma per channel, saturated to
// [0, 255]. A grayscale base is promoted to three channels first.
//
// With an all-zero canvas the result is the base shifted by Gamma; with the
// default Gamma of 1.8 a no-detection frame comes out slightly brighter than
// its input.
//
// Arguments:
//   - base: The frame to overlay onto.
//   - canvas: A 3-channel canvas with the same size as base.
//   - cfg: Blend coefficients.
//
// Returns:
//   - images.Frame: The 3-channel composite.
//   - error: images.ErrInvalidFrame if either frame is malformed or sizes differ.
func Blend(base, canvas images.Frame, cfg BlendConfig) (images.Frame, error) {
	colored, err := images.Display(base)
	if err != nil {
		return images.Frame{}, err
	}
	if canvas.Width != base.Width || canvas.Height != base.Height {
		return images.Frame{}, errors.Wrapf(images.ErrInvalidFrame, "canvas %dx%d does not match base %dx%d",
			canvas.Width, canvas.Height, base.Width, base.Height)
	}
	overlay, err := images.Display(canvas)
	if err != nil {
		return images.Frame{}, err
	}

	baseMat, err := colored.ToMat()
	if err != nil {
		return images.Frame{}, err
	}
	defer baseMat.Close()

	canvasMat, err := overlay.ToMat()
	if err != nil {
		return images.Frame{}, err
	}
	defer canvasMat.Close()

	out := gocv.NewMat()
	defer out.Close()
	if err := gocv.AddWeighted(baseMat, cfg.Alpha, canvasMat, cfg.Beta, cfg.Gamma, &out); err != nil {
		return images.Frame{}, errors.Wrap(err, "blend failed")
	}

	return images.FrameFromMat(out)
}

// Composite draws the segments and lines and blends them onto base.
//
// Returns:
//   - images.Frame: The composite frame.
//   - error: images.ErrInvalidFrame if base is malformed.
func Composite(base images.Frame, raw []lane.Segment, lines []lane.Line, overlay OverlayConfig, blend BlendConfig) (images.Frame, error) {
	if err := base.Validate(); err != nil {
		return images.Frame{}, err
	}
	canvas, err := DrawSegments(base.Width, base.Height, raw, lines, overlay)
	if err != nil {
		return images.Frame{}, err
	}
	return Blend(base, canvas, blend)
}
