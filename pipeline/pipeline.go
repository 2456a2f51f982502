// Package pipeline - This file contains the per-frame lane estimation pipeline.
//
// Pipeline Overview:
//
// ┌──────────────┐
// │ Input Frame  │
// └──────┬───────┘
// ┌────────────────────────────────────────┐
// │ Grayscale → Gaussian Blur → Canny      │
// └──────┬─────────────────────────────────┘
// ┌────────────────────────────┐
// │ Region of Interest Mask    │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Probabilistic Hough        │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Classify & Extrapolate     │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Draw & Blend (composite)   │
// └────────────────────────────┘
//
// Every stage consumes one frame and returns a new one; a Pipeline holds only
// its immutable configuration, so it may be shared by concurrent callers.
package pipeline

import (
	"github.com/nvr-ai/go-lanes/images"
	"github.com/nvr-ai/go-lanes/lane"
)

// Stage names used for timing and debug snapshots.
const (
	StageGray      = "gray"
	StageBlur      = "blur"
	StageEdges     = "edges"
	StageMasked    = "masked"
	StageSegments  = "segments"
	StageLanes     = "lanes"
	StageComposite = "composite"
)

// Status describes the detection outcome of one frame. None of the outcomes is
// an error: a frame without lanes still yields a valid composite.
type Status int

const (
	// StatusLanesFound means at least one lane line was extrapolated.
	StatusLanesFound Status = iota
	// StatusNoSegments means the segment detector returned nothing.
	StatusNoSegments
	// StatusNoLanes means segments were found but none fell in a slope range.
	StatusNoLanes
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusLanesFound:
		return "lanes_found"
	case StatusNoSegments:
		return "no_segments"
	case StatusNoLanes:
		return "no_lanes"
	default:
		return "unknown"
	}
}

// Timer times named operations. *profiler.RuntimeProfiler satisfies it.
type Timer interface {
	StartOperation(name string) func()
}

type nopTimer struct{}

func (nopTimer) StartOperation(string) func() { return func() {} }

// Stage is an intermediate frame kept for inspection.
type Stage struct {
	Name  string
	Frame images.Frame
}

// Result is the full output of one pipeline run.
type Result struct {
	// Composite is the 3-channel output frame.
	Composite images.Frame
	// Segments are the raw detector segments in detection order.
	Segments []lane.Segment
	// Lanes are the per-side cluster aggregates.
	Lanes []lane.Estimate
	// Lines are the extrapolated lane lines, at most one per side.
	Lines []lane.Line
	// Status is the detection outcome.
	Status Status
	// Stages holds intermediate single-channel frames when enabled with WithStages.
	Stages []Stage
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProfiler times every stage with t.
func WithProfiler(t Timer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.timer = t
		}
	}
}

// WithStages keeps the intermediate gray, blur, edge and masked frames in Result.Stages.
func WithStages(keep bool) Option {
	return func(p *Pipeline) {
		p.keepStages = keep
	}
}

// Pipeline runs the lane estimation stages over one frame at a time.
type Pipeline struct {
	config     Config
	timer      Timer
	keepStages bool
}

// New creates a pipeline with a validated configuration.
//
// Arguments:
//   - config: The pipeline configuration, usually DefaultConfig() or LoadConfig().
//   - opts: Optional profiler and stage retention.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: ErrInvalidConfig if the configuration is invalid.
//
// @example
// p, err := New(DefaultConfig())
//
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// out, err := p.Process(frame)
func New(config Config, opts ...Option) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config: config,
		timer:  nopTimer{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Process runs the pipeline and returns only the composite frame.
//
// Arguments:
//   - frame: A 3-channel BGR frame (single-channel frames are accepted too).
//
// Returns:
//   - images.Frame: The composite frame, same size as the input.
//   - error: images.ErrInvalidFrame if the input is malformed; no partial output is produced.
func (p *Pipeline) Process(frame images.Frame) (images.Frame, error) {
	res, err := p.Run(frame)
	if err != nil {
		return images.Frame{}, err
	}
	return res.Composite, nil
}

// Run executes every stage and returns the composite together with the
// detected segments, lane estimates and status.
//
// Returns:
//   - *Result: The pipeline output.
//   - error: images.ErrInvalidFrame if the input is malformed.
func (p *Pipeline) Run(frame images.Frame) (*Result, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	keep := func(name string, f images.Frame) {
		if p.keepStages {
			res.Stages = append(res.Stages, Stage{Name: name, Frame: f})
		}
	}

	stop := p.timer.StartOperation(StageGray)
	gray, err := Grayscale(frame)
	stop()
	if err != nil {
		return nil, err
	}
	keep(StageGray, gray)

	stop = p.timer.StartOperation(StageBlur)
	blurred, err := Blur(gray, p.config.Blur.KernelSize)
	stop()
	if err != nil {
		return nil, err
	}
	keep(StageBlur, blurred)

	stop = p.timer.StartOperation(StageEdges)
	edges, err := Edges(blurred, p.config.Edges)
	stop()
	if err != nil {
		return nil, err
	}
	keep(StageEdges, edges)

	stop = p.timer.StartOperation(StageMasked)
	masked, err := Mask(edges, p.config.ROI)
	stop()
	if err != nil {
		return nil, err
	}
	keep(StageMasked, masked)

	stop = p.timer.StartOperation(StageSegments)
	res.Segments, err = DetectSegments(masked, p.config.Hough)
	stop()
	if err != nil {
		return nil, err
	}

	stop = p.timer.StartOperation(StageLanes)
	res.Lanes = p.config.Slopes.Estimates(res.Segments)
	for _, est := range res.Lanes {
		if line, ok := est.Project(); ok {
			res.Lines = append(res.Lines, line)
		}
	}
	stop()

	switch {
	case len(res.Segments) == 0:
		res.Status = StatusNoSegments
	case len(res.Lines) == 0:
		res.Status = StatusNoLanes
	default:
		res.Status = StatusLanesFound
	}

	base := frame
	if p.config.Overlay.Base == BaseEdges {
		base = edges
	}

	stop = p.timer.StartOperation(StageComposite)
	res.Composite, err = Composite(base, res.Segments, res.Lines, p.config.Overlay, p.config.Blend)
	stop()
	if err != nil {
		return nil, err
	}

	return res, nil
}
