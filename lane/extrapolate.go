package lane

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Estimate aggregates one side's cluster of classified segments.
type Estimate struct {
	Side Side `json:"side" yaml:"side"`
	// Slope is the arithmetic mean slope of the cluster.
	Slope float64 `json:"slope" yaml:"slope"`
	// Intercept is the arithmetic mean intercept of the cluster.
	Intercept float64 `json:"intercept" yaml:"intercept"`
	// MinY is the smallest top-point y in the cluster.
	MinY float64 `json:"min_y" yaml:"min_y"`
	// MaxY is the largest bottom-point y in the cluster.
	MaxY float64 `json:"max_y" yaml:"max_y"`
	// Count is the number of segments in the cluster.
	Count int `json:"count" yaml:"count"`
}

// Line is an extrapolated lane boundary in pixel coordinates, top point first.
type Line struct {
	Side Side `json:"side" yaml:"side"`
	X1   int  `json:"x1" yaml:"x1"`
	Y1   int  `json:"y1" yaml:"y1"`
	X2   int  `json:"x2" yaml:"x2"`
	Y2   int  `json:"y2" yaml:"y2"`
}

// Points returns the line endpoints.
func (l Line) Points() (image.Point, image.Point) {
	return image.Pt(l.X1, l.Y1), image.Pt(l.X2, l.Y2)
}

// Cluster aggregates the members of one side.
//
// The mean is unweighted, so a single outlier segment pulls the estimate.
//
// Arguments:
//   - segments: Classified segments of any side.
//   - side: The side to aggregate.
//
// Returns:
//   - Estimate: The cluster aggregate.
//   - bool: false if no segment belongs to side.
func Cluster(segments []Classified, side Side) (Estimate, bool) {
	var slopes, intercepts, tops, bottoms []float64
	for _, s := range segments {
		if s.Side != side {
			continue
		}
		slopes = append(slopes, s.Slope)
		intercepts = append(intercepts, s.Intercept)
		tops = append(tops, s.Y1)
		bottoms = append(bottoms, s.Y2)
	}
	if len(slopes) == 0 {
		return Estimate{}, false
	}

	return Estimate{
		Side:      side,
		Slope:     stat.Mean(slopes, nil),
		Intercept: stat.Mean(intercepts, nil),
		MinY:      floats.Min(tops),
		MaxY:      floats.Max(bottoms),
		Count:     len(slopes),
	}, true
}

// Project solves the mean line at the cluster's vertical extent.
//
// Returns:
//   - Line: Endpoints at MinY and MaxY, rounded to the nearest pixel.
//   - bool: false if the mean slope is zero and the line cannot be solved for x.
func (e Estimate) Project() (Line, bool) {
	if e.Slope == 0 {
		return Line{}, false
	}
	return Line{
		Side: e.Side,
		X1:   round(XAt(e.Slope, e.Intercept, e.MinY)),
		Y1:   round(e.MinY),
		X2:   round(XAt(e.Slope, e.Intercept, e.MaxY)),
		Y2:   round(e.MaxY),
	}, true
}

// Estimates classifies raw segments and aggregates each side in rule order.
// Sides without members are omitted.
func (r Rules) Estimates(raw []Segment) []Estimate {
	classified := r.ClassifyAll(raw)

	var out []Estimate
	for _, side := range r.Sides() {
		if est, ok := Cluster(classified, side); ok {
			out = append(out, est)
		}
	}
	return out
}

// Extrapolate produces at most one projected line per side.
//
// An empty result means no segment fell in any slope range, which is a normal
// outcome for frames without visible lane markings.
//
// Arguments:
//   - raw: Segments in detection order (possibly empty).
//
// Returns:
//   - []Line: One line per non-empty side, in rule order.
//
// @example
// lines := DefaultRules().Extrapolate([]Segment{Seg(0, 400, 150, 300)})
// // [{right 150 300 0 400}]
func (r Rules) Extrapolate(raw []Segment) []Line {
	var lines []Line
	for _, est := range r.Estimates(raw) {
		if line, ok := est.Project(); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func round(v float64) int {
	return int(math.Round(v))
}
