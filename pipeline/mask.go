package pipeline

import (
	"image"
	"image/color"

	"github.com/nvr-ai/go-lanes/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// maskFill sets every channel of the fill mask, so the AND is well defined
// for any channel depth.
var maskFill = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ScalePolygons converts normalized polygons to pixel vertices for a frame of
// the given size. Coordinates are truncated toward zero.
func ScalePolygons(polygons []Polygon, width, height int) [][]image.Point {
	out := make([][]image.Point, 0, len(polygons))
	for _, poly := range polygons {
		pts := make([]image.Point, len(poly))
		for i, v := range poly {
			pts[i] = image.Pt(int(v.X*float64(width)), int(v.Y*float64(height)))
		}
		out = append(out, pts)
	}
	return out
}

// Mask zeroes every pixel outside the union of the polygons.
//
// A polygon lying entirely outside the frame produces an all-zero frame.
//
// Arguments:
//   - f: The frame to mask (any supported channel depth).
//   - polygons: Normalized polygons, each with at least three vertices.
//
// Returns:
//   - images.Frame: The masked frame.
//   - error: images.ErrInvalidFrame for malformed frames, ErrInvalidConfig for degenerate polygons.
func Mask(f images.Frame, polygons []Polygon) (images.Frame, error) {
	if err := f.Validate(); err != nil {
		return images.Frame{}, err
	}
	if err := validatePolygons(polygons); err != nil {
		return images.Frame{}, err
	}

	src, err := f.ToMat()
	if err != nil {
		return images.Frame{}, err
	}
	defer src.Close()

	mask := gocv.Zeros(f.Height, f.Width, images.MatType(f.Channels))
	defer mask.Close()

	pts := gocv.NewPointsVectorFromPoints(ScalePolygons(polygons, f.Width, f.Height))
	defer pts.Close()

	if err := gocv.FillPoly(&mask, pts, maskFill); err != nil {
		return images.Frame{}, errors.Wrap(err, "failed to rasterize region of interest")
	}

	masked := gocv.NewMat()
	defer masked.Close()
	if err := gocv.BitwiseAnd(src, mask, &masked); err != nil {
		return images.Frame{}, errors.Wrap(err, "failed to apply region of interest")
	}

	return images.FrameFromMat(masked)
}
