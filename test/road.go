// Package test holds synthetic scene generators and end-to-end tests that run
// the full lane pipeline with its transport and debug adapters.
package test

import (
	"image"
	"image/color"

	"github.com/nvr-ai/go-lanes/images"
	"gocv.io/x/gocv"
)

// Marking is a painted lane line in 640×480 reference coordinates.
type Marking struct {
	From image.Point
	To   image.Point
}

// DefaultMarkings are two converging lane lines. The left marking rises to
// the right (negative image slope), the right marking rises to the left.
var DefaultMarkings = []Marking{
	{From: image.Pt(60, 460), To: image.Pt(300, 300)},
	{From: image.Pt(580, 460), To: image.Pt(340, 300)},
}

// RoadFrameGenerator draws deterministic road scenes.
//
// Arguments:
//   - width, height: Frame size; markings are scaled from 640×480.
//
// @example
// gen := NewRoadFrameGenerator(640, 480)
// frame, err := gen.Road()
type RoadFrameGenerator struct {
	width     int
	height    int
	asphalt   uint8
	paint     color.RGBA
	thickness int
}

// NewRoadFrameGenerator creates a generator with dark asphalt and white paint.
func NewRoadFrameGenerator(width, height int) *RoadFrameGenerator {
	return &RoadFrameGenerator{
		width:     width,
		height:    height,
		asphalt:   40,
		paint:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
		thickness: 8 * width / 640,
	}
}

// Blank returns an empty road surface.
func (g *RoadFrameGenerator) Blank() images.Frame {
	f := images.NewFrame(g.width, g.height, images.ChannelsColor)
	for i := range f.Data {
		f.Data[i] = g.asphalt
	}
	return f
}

// Road returns a frame with DefaultMarkings painted on it.
func (g *RoadFrameGenerator) Road() (images.Frame, error) {
	return g.Paint(DefaultMarkings...)
}

// Horizontal returns a frame with a single stop line across the lane, which
// the detector finds but no slope range accepts.
func (g *RoadFrameGenerator) Horizontal() (images.Frame, error) {
	return g.Paint(Marking{From: image.Pt(100, 400), To: image.Pt(540, 400)})
}

// Paint draws markings onto a blank surface.
func (g *RoadFrameGenerator) Paint(markings ...Marking) (images.Frame, error) {
	mat, err := g.Blank().ToMat()
	if err != nil {
		return images.Frame{}, err
	}
	defer mat.Close()

	for _, m := range markings {
		if err := gocv.Line(&mat, g.scale(m.From), g.scale(m.To), g.paint, g.thickness); err != nil {
			return images.Frame{}, err
		}
	}
	return images.FrameFromMat(mat)
}

// Scale maps a 640×480 reference point into the generator's frame.
func (g *RoadFrameGenerator) scale(p image.Point) image.Point {
	return image.Pt(p.X*g.width/640, p.Y*g.height/480)
}
