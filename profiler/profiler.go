// Package profiler times pipeline stages and aggregates frame counters.
//
// A RuntimeProfiler satisfies pipeline.Timer, so it can be handed to
// pipeline.WithProfiler; counters from the transport runner are pulled in
// through MetricsCollector on every sample tick.
package profiler

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MetricsCollector defines the interface for collecting custom metrics.
type MetricsCollector interface {
	CollectMetrics() map[string]float64
}

// RuntimeProfiler records per-stage latencies and custom metrics over a
// bounded window and optionally logs a periodic report.
type RuntimeProfiler struct {
	reportInterval time.Duration
	sampleInterval time.Duration
	window         int
	logger         *log.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started time.Time
	running bool

	memStats   runtime.MemStats
	collectors []MetricsCollector
	metrics    map[string]*series
	stages     map[string]*series
}

// series is a bounded window of samples plus lifetime extremes.
type series struct {
	values []float64
	min    float64
	max    float64
	count  int64
	last   float64
}

func (s *series) add(v float64, window int) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.values = append(s.values, v)
	if len(s.values) > window {
		s.values = s.values[len(s.values)-window:]
	}
	s.count++
	s.last = v
}

// Summary describes one series.
type Summary struct {
	Name  string
	Count int64
	Last  float64
	Mean  float64
	Min   float64
	Max   float64
	P50   float64
	P95   float64
}

func (s *series) summary(name string) Summary {
	sum := Summary{Name: name, Count: s.count, Last: s.last, Min: s.min, Max: s.max}
	if len(s.values) == 0 {
		return sum
	}
	sorted := append([]float64(nil), s.values...)
	sort.Float64s(sorted)
	sum.Mean = stat.Mean(sorted, nil)
	sum.P50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	sum.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return sum
}

// Snapshot is a point-in-time copy of the profiler state.
type Snapshot struct {
	Uptime     time.Duration
	Goroutines int
	HeapAlloc  uint64
	NumGC      uint32
	// Stages holds latencies in milliseconds, sorted by name.
	Stages []Summary
	// Metrics holds recorded and collected metrics, sorted by name.
	Metrics []Summary
}

// ProfilingOptions configures the runtime profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often to log a report (default: 5s).
	ReportInterval time.Duration
	// SampleInterval specifies how often collectors are polled (default: 500ms).
	SampleInterval time.Duration
	// Window is the number of samples kept per series (default: 300).
	Window int
	// Logger receives reports (default: log.Default()).
	Logger *log.Logger
}

// NewRuntimeProfiler creates a new runtime profiler with the specified options.
//
// Arguments:
//   - opts: Configuration options for the profiler.
//
// Returns:
//   - *RuntimeProfiler: A profiler ready for StartOperation; Start enables reports.
func NewRuntimeProfiler(opts ProfilingOptions) *RuntimeProfiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 5 * time.Second
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 500 * time.Millisecond
	}
	if opts.Window <= 0 {
		opts.Window = 300
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RuntimeProfiler{
		reportInterval: opts.ReportInterval,
		sampleInterval: opts.SampleInterval,
		window:         opts.Window,
		logger:         opts.Logger,
		ctx:            ctx,
		cancel:         cancel,
		started:        time.Now(),
		metrics:        make(map[string]*series),
		stages:         make(map[string]*series),
	}
}

// Start begins background sampling and reporting. Calling it twice is a no-op.
func (rp *RuntimeProfiler) Start() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.running {
		return
	}
	rp.running = true
	rp.started = time.Now()

	rp.wg.Add(1)
	go rp.loop()
}

// Stop stops the background goroutine and waits for it to exit.
func (rp *RuntimeProfiler) Stop() {
	rp.mu.Lock()
	if !rp.running {
		rp.mu.Unlock()
		return
	}
	rp.running = false
	rp.mu.Unlock()

	rp.cancel()
	rp.wg.Wait()
}

// AddMetricsCollector registers a collector polled on every sample tick.
func (rp *RuntimeProfiler) AddMetricsCollector(collector MetricsCollector) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.collectors = append(rp.collectors, collector)
}

// RecordMetric records a custom metric value.
func (rp *RuntimeProfiler) RecordMetric(name string, value float64) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.record(rp.metrics, name, value)
}

// StartOperation begins timing a stage.
//
// Arguments:
//   - name: The stage name.
//
// Returns:
//   - func(): Call when the stage completes.
//
// @example
// stop := rp.StartOperation("edges")
// edges, err := pipeline.Edges(blurred, cfg.Edges)
// stop()
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		elapsed := time.Since(start)
		rp.mu.Lock()
		defer rp.mu.Unlock()
		rp.record(rp.stages, name, float64(elapsed)/float64(time.Millisecond))
	}
}

func (rp *RuntimeProfiler) record(into map[string]*series, name string, value float64) {
	s, ok := into[name]
	if !ok {
		s = &series{}
		into[name] = s
	}
	s.add(value, rp.window)
}

func (rp *RuntimeProfiler) loop() {
	defer rp.wg.Done()

	sample := time.NewTicker(rp.sampleInterval)
	defer sample.Stop()
	report := time.NewTicker(rp.reportInterval)
	defer report.Stop()

	for {
		select {
		case <-rp.ctx.Done():
			return
		case <-sample.C:
			rp.Sample()
		case <-report.C:
			rp.Report()
		}
	}
}

// Sample polls every registered collector and refreshes memory statistics.
func (rp *RuntimeProfiler) Sample() {
	rp.mu.RLock()
	collectors := append([]MetricsCollector(nil), rp.collectors...)
	rp.mu.RUnlock()

	// Collectors take their own locks, so they are called outside rp.mu.
	collected := make([]map[string]float64, 0, len(collectors))
	for _, c := range collectors {
		collected = append(collected, c.CollectMetrics())
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()
	runtime.ReadMemStats(&rp.memStats)
	for _, metrics := range collected {
		for name, value := range metrics {
			rp.record(rp.metrics, name, value)
		}
	}
}

// Snapshot returns the current statistics.
func (rp *RuntimeProfiler) Snapshot() Snapshot {
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	snap := Snapshot{
		Uptime:     time.Since(rp.started),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  rp.memStats.HeapAlloc,
		NumGC:      rp.memStats.NumGC,
		Stages:     summarize(rp.stages),
		Metrics:    summarize(rp.metrics),
	}
	return snap
}

func summarize(m map[string]*series) []Summary {
	out := make([]Summary, 0, len(m))
	for name, s := range m {
		out = append(out, s.summary(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Report logs the current snapshot.
func (rp *RuntimeProfiler) Report() {
	snap := rp.Snapshot()

	rp.logger.Printf("profiler: uptime=%v goroutines=%d heap=%s gc=%d",
		snap.Uptime.Truncate(time.Millisecond), snap.Goroutines, formatBytes(snap.HeapAlloc), snap.NumGC)
	for _, s := range snap.Stages {
		rp.logger.Printf("profiler: stage %-10s n=%d mean=%.2fms p50=%.2fms p95=%.2fms max=%.2fms",
			s.Name, s.Count, s.Mean, s.P50, s.P95, s.Max)
	}
	for _, s := range snap.Metrics {
		rp.logger.Printf("profiler: metric %s last=%.2f mean=%.2f min=%.2f max=%.2f", s.Name, s.Last, s.Mean, s.Min, s.Max)
	}
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
