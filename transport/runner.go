package transport

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/nvr-ai/go-lanes/images"
	"github.com/pkg/errors"
)

// Processor turns an input frame into a composite. *pipeline.Pipeline satisfies it.
type Processor interface {
	Process(frame images.Frame) (images.Frame, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(images.Frame) (images.Frame, error)

// Process calls f.
func (f ProcessorFunc) Process(frame images.Frame) (images.Frame, error) {
	return f(frame)
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Workers is the number of concurrent processors (default 1).
	Workers int
	// DropFrames lets the source overwrite frames the workers have not taken
	// yet. Use it for live cameras; file sources should leave it off so every
	// frame is processed.
	DropFrames bool
	// Logger receives skip warnings (default log.Default()).
	Logger *log.Logger
}

// RunnerStats holds lifetime counters of a Runner.
type RunnerStats struct {
	Received  uint64 `json:"received"`
	Processed uint64 `json:"processed"`
	Skipped   uint64 `json:"skipped"`
	Dropped   uint64 `json:"dropped"`
}

// Runner drives frames from a Source through a Processor into Sinks.
type Runner struct {
	source    Source
	processor Processor
	sinks     []Sink
	opts      RunnerOptions

	mailbox  *Mailbox
	sinkMu   sync.Mutex
	received atomic.Uint64
	done     atomic.Uint64
	skipped  atomic.Uint64
}

// NewRunner wires a source, a processor and any number of sinks.
//
// Arguments:
//   - source: Where frames come from; the caller closes it.
//   - processor: Usually a *pipeline.Pipeline.
//   - sinks: Receive every composite; the caller closes them.
//   - opts: Worker count, drop policy and logger.
//
// Returns:
//   - *Runner: A runner ready for Run.
func NewRunner(source Source, processor Processor, sinks []Sink, opts RunnerOptions) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Runner{
		source:    source,
		processor: processor,
		sinks:     sinks,
		opts:      opts,
		mailbox:   NewMailbox(),
	}
}

// Run blocks until the source is exhausted, ctx is cancelled, or a source,
// processor or sink fails. Invalid frames are logged and skipped.
//
// Returns:
//   - error: The first failure, ctx.Err() on cancellation, or nil at end of input.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	go func() {
		<-ctx.Done()
		r.mailbox.Close()
	}()

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(fail)
		}()
	}

	if err := r.produce(ctx); err != nil {
		fail(err)
	}
	r.mailbox.Close()
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (r *Runner) produce(ctx context.Context) error {
	var seq uint64
	for ctx.Err() == nil {
		img, err := r.source.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, images.ErrInvalidFrame) {
			r.skipped.Add(1)
			r.opts.Logger.Printf("transport: skipping unreadable frame: %v", err)
			continue
		}
		if err != nil {
			return errors.Wrap(err, "source failed")
		}

		seq++
		frame := NewFrame(seq, img)
		if r.opts.DropFrames {
			err = r.mailbox.Put(frame)
		} else {
			err = r.mailbox.PutWait(frame)
		}
		if errors.Is(err, ErrClosed) {
			return nil
		}
		r.received.Add(1)
	}
	return nil
}

func (r *Runner) work(fail func(error)) {
	for {
		frame, ok := r.mailbox.Take()
		if !ok {
			return
		}

		composite, err := r.processor.Process(frame.Image)
		if errors.Is(err, images.ErrInvalidFrame) {
			r.skipped.Add(1)
			r.opts.Logger.Printf("transport: skipping frame %d: %v", frame.Seq, err)
			continue
		}
		if err != nil {
			fail(errors.Wrapf(err, "processing frame %d", frame.Seq))
			return
		}

		if err := r.publish(frame, composite); err != nil {
			fail(err)
			return
		}
		r.done.Add(1)
	}
}

func (r *Runner) publish(frame Frame, composite images.Frame) error {
	r.sinkMu.Lock()
	defer r.sinkMu.Unlock()

	for _, sink := range r.sinks {
		if err := sink.Write(frame, composite); err != nil {
			return errors.Wrapf(err, "writing frame %d", frame.Seq)
		}
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Received:  r.received.Load(),
		Processed: r.done.Load(),
		Skipped:   r.skipped.Load(),
		Dropped:   r.mailbox.Stats().Dropped,
	}
}

// CollectMetrics implements profiler.MetricsCollector.
func (r *Runner) CollectMetrics() map[string]float64 {
	s := r.Stats()
	return map[string]float64{
		"frames_received":  float64(s.Received),
		"frames_processed": float64(s.Processed),
		"frames_skipped":   float64(s.Skipped),
		"frames_dropped":   float64(s.Dropped),
	}
}
