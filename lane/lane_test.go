package lane

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOrdersTopFirst(t *testing.T) {
	tests := []struct {
		name string
		in   Segment
		want Segment
	}{
		{name: "already ordered", in: Seg(0, 100, 50, 200), want: Seg(0, 100, 50, 200)},
		{name: "reversed", in: Seg(50, 200, 0, 100), want: Seg(0, 100, 50, 200)},
		{name: "equal y swaps", in: Seg(0, 100, 50, 100), want: Seg(50, 100, 0, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSlopeIntercept(t *testing.T) {
	m, b := SlopeIntercept(Seg(150, 300, 0, 400))
	assert.InDelta(t, -2.0/3.0, m, 1e-12)
	assert.InDelta(t, 400.0, b, 1e-9)

	// Vertical segments have zero slope by convention.
	m, b = SlopeIntercept(Seg(50, 100, 50, 300))
	assert.Equal(t, 0.0, m)
	assert.Equal(t, 100.0, b)
}

func TestClassifyOpenIntervals(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name  string
		seg   Segment
		slope float64
		want  Side
	}{
		{name: "exact -0.4", seg: Seg(0, 104, 10, 100), slope: -0.4, want: Discarded},
		{name: "exact -0.8", seg: Seg(0, 108, 10, 100), slope: -0.8, want: Discarded},
		{name: "exact 0.4", seg: Seg(0, 100, 10, 104), slope: 0.4, want: Discarded},
		{name: "exact 0.8", seg: Seg(0, 100, 10, 108), slope: 0.8, want: Discarded},
		{name: "inside right", seg: Seg(0, 106, 10, 100), slope: -0.6, want: Right},
		{name: "inside left", seg: Seg(0, 100, 10, 106), slope: 0.6, want: Left},
		{name: "vertical", seg: Seg(50, 100, 50, 300), slope: 0, want: Discarded},
		{name: "horizontal", seg: Seg(0, 100, 300, 100), slope: 0, want: Discarded},
		{name: "too steep", seg: Seg(0, 400, 100, 300), slope: -1.0, want: Discarded},
		{name: "calibration right", seg: Seg(0, 400, 150, 300), slope: -2.0 / 3.0, want: Right},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := rules.Classify(tt.seg)
			assert.InDelta(t, tt.slope, c.Slope, 1e-12)
			assert.Equal(t, tt.want, c.Side)
			assert.LessOrEqual(t, c.Y1, c.Y2, "top point must come first")
		})
	}
}

func TestClassifyIgnoresDetectorOrder(t *testing.T) {
	rules := DefaultRules()
	a := rules.Classify(Seg(0, 400, 150, 300))
	b := rules.Classify(Seg(150, 300, 0, 400))
	assert.Equal(t, a, b)
}

func TestExtrapolateEmpty(t *testing.T) {
	assert.Empty(t, DefaultRules().Extrapolate(nil))
	assert.Empty(t, DefaultRules().Extrapolate([]Segment{Seg(0, 400, 100, 300), Seg(5, 0, 5, 100)}))
}

func TestExtrapolateSingleSide(t *testing.T) {
	lines := DefaultRules().Extrapolate([]Segment{Seg(0, 400, 150, 300)})
	want := []Line{{Side: Right, X1: 150, Y1: 300, X2: 0, Y2: 400}}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("Extrapolate() mismatch (-want +got):\n%s", diff)
	}
}

func TestClusterUsesArithmeticMean(t *testing.T) {
	rules := DefaultRules()
	classified := rules.ClassifyAll([]Segment{
		Seg(0, 100, 100, 50),  // m = -0.5
		Seg(0, 170, 100, 100), // m = -0.7
		Seg(0, 0, 0, 10),      // vertical, discarded
	})

	est, ok := Cluster(classified, Right)
	require.True(t, ok)

	want := Estimate{Side: Right, Slope: -0.6, Intercept: 135, MinY: 50, MaxY: 170, Count: 2}
	if diff := cmp.Diff(want, est, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Cluster() mismatch (-want +got):\n%s", diff)
	}

	_, ok = Cluster(classified, Left)
	assert.False(t, ok)
}

func TestOutlierPullsAverage(t *testing.T) {
	rules := DefaultRules()
	clean, ok := Cluster(rules.ClassifyAll([]Segment{Seg(0, 150, 100, 100)}), Right)
	require.True(t, ok)

	pulled, ok := Cluster(rules.ClassifyAll([]Segment{
		Seg(0, 150, 100, 100), // m = -0.5
		Seg(0, 179, 100, 100), // m = -0.79
	}), Right)
	require.True(t, ok)

	assert.InDelta(t, -0.5, clean.Slope, 1e-12)
	assert.InDelta(t, -0.645, pulled.Slope, 1e-12)
}

func TestExtrapolateBothSides(t *testing.T) {
	raw := []Segment{
		Seg(300, 300, 60, 460),  // right, m = -2/3
		Seg(280, 310, 120, 420), // right, parallel offset
		Seg(340, 300, 580, 460), // left, m = 2/3
	}

	lines := DefaultRules().Extrapolate(raw)
	require.Len(t, lines, 2)

	assert.Equal(t, Right, lines[0].Side, "rule order puts right first")
	assert.Equal(t, Left, lines[1].Side)

	assert.Equal(t, 300, lines[0].Y1)
	assert.Equal(t, 460, lines[0].Y2)
	assert.Equal(t, Line{Side: Left, X1: 340, Y1: 300, X2: 580, Y2: 460}, lines[1])
}

func TestProjectRejectsZeroSlope(t *testing.T) {
	_, ok := Estimate{Side: Left, Slope: 0, MinY: 1, MaxY: 2}.Project()
	assert.False(t, ok)
}

func TestProjectRoundsToNearestPixel(t *testing.T) {
	// x = (y - b) / m = (100 - 0.3) / 0.5 = 199.4 and (201 - 0.3) / 0.5 = 401.4
	line, ok := Estimate{Side: Left, Slope: 0.5, Intercept: 0.3, MinY: 100, MaxY: 201}.Project()
	require.True(t, ok)
	assert.Equal(t, Line{Side: Left, X1: 199, Y1: 100, X2: 401, Y2: 201}, line)
}

func TestRulesValidate(t *testing.T) {
	tests := []struct {
		name    string
		rules   Rules
		wantErr bool
	}{
		{name: "default", rules: DefaultRules()},
		{name: "empty", rules: Rules{}, wantErr: true},
		{name: "inverted", rules: Rules{{Min: 0.8, Max: 0.4, Side: Left}}, wantErr: true},
		{name: "spans zero", rules: Rules{{Min: -0.2, Max: 0.2, Side: Left}}, wantErr: true},
		{name: "discarded side", rules: Rules{{Min: 0.4, Max: 0.8, Side: Discarded}}, wantErr: true},
		{name: "touches zero", rules: Rules{{Min: 0, Max: 0.8, Side: Left}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCustomRuleTable(t *testing.T) {
	rules := Rules{
		{Min: -2.0, Max: -0.9, Side: Right},
		{Min: 0.9, Max: 2.0, Side: Left},
	}
	c := rules.Classify(Seg(0, 400, 100, 300))
	assert.Equal(t, Right, c.Side)
	assert.Equal(t, []Side{Right, Left}, rules.Sides())
}
