package lane

import "github.com/pkg/errors"

// Side tags which lane boundary a segment belongs to.
type Side string

const (
	// Left is the left lane boundary (positive slope in image coordinates).
	Left Side = "left"
	// Right is the right lane boundary (negative slope in image coordinates).
	Right Side = "right"
	// Discarded marks segments outside every slope range.
	Discarded Side = "discarded"
)

// SlopeRule assigns a side to slopes strictly inside (Min, Max).
type SlopeRule struct {
	// Min is the exclusive lower slope bound.
	Min float64 `json:"min" yaml:"min"`
	// Max is the exclusive upper slope bound.
	Max float64 `json:"max" yaml:"max"`
	// Side is the tag for segments inside the range.
	Side Side `json:"side" yaml:"side"`
}

// Contains reports whether m lies in the open interval (Min, Max).
func (r SlopeRule) Contains(m float64) bool {
	return r.Min < m && m < r.Max
}

// Rules is an ordered slope range table. The first matching rule wins.
type Rules []SlopeRule

// DefaultRules returns the calibrated two-cluster table.
//
// Returns:
//   - Rules: (-0.8, -0.4) → Right, (0.4, 0.8) → Left.
func DefaultRules() Rules {
	return Rules{
		{Min: -0.8, Max: -0.4, Side: Right},
		{Min: 0.4, Max: 0.8, Side: Left},
	}
}

// Side returns the side of the first rule containing m, or Discarded.
func (r Rules) Side(m float64) Side {
	for _, rule := range r {
		if rule.Contains(m) {
			return rule.Side
		}
	}
	return Discarded
}

// Sides returns the distinct sides in rule order.
func (r Rules) Sides() []Side {
	seen := make(map[Side]bool, len(r))
	sides := make([]Side, 0, len(r))
	for _, rule := range r {
		if !seen[rule.Side] {
			seen[rule.Side] = true
			sides = append(sides, rule.Side)
		}
	}
	return sides
}

// Validate checks that every rule is a non-empty range that excludes zero.
//
// A range containing zero would accept vertical segments and allow a zero mean
// slope, which cannot be projected.
func (r Rules) Validate() error {
	if len(r) == 0 {
		return errors.New("no slope rules")
	}
	for i, rule := range r {
		switch {
		case rule.Min >= rule.Max:
			return errors.Errorf("rule %d: min %v must be below max %v", i, rule.Min, rule.Max)
		case rule.Min < 0 && rule.Max > 0:
			return errors.Errorf("rule %d: range (%v, %v) contains zero", i, rule.Min, rule.Max)
		case rule.Side == "" || rule.Side == Discarded:
			return errors.Errorf("rule %d: side %q is not assignable", i, rule.Side)
		}
	}
	return nil
}

// Classified is a normalized segment annotated with its line parameters and side.
type Classified struct {
	Segment
	Slope     float64 `json:"slope" yaml:"slope"`
	Intercept float64 `json:"intercept" yaml:"intercept"`
	Side      Side    `json:"side" yaml:"side"`
}

// Classify normalizes s and tags it with the side of its slope.
//
// Arguments:
//   - s: The raw segment.
//
// Returns:
//   - Classified: The normalized segment with slope, intercept and side.
//
// @example
// c := DefaultRules().Classify(Seg(0, 400, 150, 300)) // c.Side == Right, c.Slope ≈ -0.667
func (r Rules) Classify(s Segment) Classified {
	n := Normalize(s)
	m, b := SlopeIntercept(n)
	return Classified{
		Segment:   n,
		Slope:     m,
		Intercept: b,
		Side:      r.Side(m),
	}
}

// ClassifyAll classifies every segment in detection order.
func (r Rules) ClassifyAll(segments []Segment) []Classified {
	out := make([]Classified, len(segments))
	for i, s := range segments {
		out[i] = r.Classify(s)
	}
	return out
}
