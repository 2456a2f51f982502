package lane

import "image"

// Segment is a raw line segment as reported by the segment detector.
type Segment struct {
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
	X2 float64 `json:"x2" yaml:"x2"`
	Y2 float64 `json:"y2" yaml:"y2"`
}

// Seg is shorthand for building a Segment.
func Seg(x1, y1, x2, y2 float64) Segment {
	return Segment{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Points returns the endpoints rounded to pixel coordinates.
func (s Segment) Points() (image.Point, image.Point) {
	return image.Pt(round(s.X1), round(s.Y1)), image.Pt(round(s.X2), round(s.Y2))
}

// Normalize orders the endpoints so the top point (smaller y) comes first and
// the bottom point second.
//
// The order is kept only when Y2 > Y1; segments with equal y are swapped.
//
// Arguments:
//   - s: The segment in detector order.
//
// Returns:
//   - Segment: The same segment with the bottom point last.
//
// @example
// n := Normalize(Seg(0, 400, 150, 300)) // {150 300 0 400}
func Normalize(s Segment) Segment {
	if s.Y2 > s.Y1 {
		return s
	}
	return Segment{X1: s.X2, Y1: s.Y2, X2: s.X1, Y2: s.Y1}
}

// SlopeIntercept returns the slope m and intercept b of the line through s,
// using the first point for the intercept.
//
// A vertical segment (X1 == X2) has slope 0, which no default rule accepts.
func SlopeIntercept(s Segment) (m, b float64) {
	dx := s.X2 - s.X1
	if dx != 0 {
		m = (s.Y2 - s.Y1) / dx
	}
	b = s.Y1 - m*s.X1
	return m, b
}

// XAt solves y = m*x + b for x.
func XAt(m, b, y float64) float64 {
	return (y - b) / m
}
