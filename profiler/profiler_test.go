package profiler

import (
	"bytes"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCollector map[string]float64

func (c staticCollector) CollectMetrics() map[string]float64 { return c }

func TestStartOperationRecordsStage(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})

	for i := 0; i < 3; i++ {
		stop := rp.StartOperation("edges")
		time.Sleep(time.Millisecond)
		stop()
	}

	snap := rp.Snapshot()
	require.Len(t, snap.Stages, 1)
	s := snap.Stages[0]
	assert.Equal(t, "edges", s.Name)
	assert.Equal(t, int64(3), s.Count)
	assert.GreaterOrEqual(t, s.Min, 1.0)
	assert.GreaterOrEqual(t, s.P95, s.P50)
	assert.GreaterOrEqual(t, s.Max, s.P95)
}

func TestRecordMetricWindow(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{Window: 4})
	for _, v := range []float64{100, 1, 2, 3, 4} {
		rp.RecordMetric("frames", v)
	}

	snap := rp.Snapshot()
	require.Len(t, snap.Metrics, 1)
	m := snap.Metrics[0]
	assert.Equal(t, int64(5), m.Count)
	assert.Equal(t, 4.0, m.Last)
	// Mean covers the window only; extremes are lifetime.
	assert.InDelta(t, 2.5, m.Mean, 1e-9)
	assert.Equal(t, 1.0, m.Min)
	assert.Equal(t, 100.0, m.Max)
}

func TestSamplePollsCollectors(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})
	rp.AddMetricsCollector(staticCollector{"frames_dropped": 7, "frames_processed": 11})

	rp.Sample()
	rp.Sample()

	snap := rp.Snapshot()
	require.Len(t, snap.Metrics, 2)
	assert.Equal(t, "frames_dropped", snap.Metrics[0].Name)
	assert.Equal(t, int64(2), snap.Metrics[0].Count)
	assert.Equal(t, 11.0, snap.Metrics[1].Last)
}

func TestReportWritesStages(t *testing.T) {
	var buf bytes.Buffer
	rp := NewRuntimeProfiler(ProfilingOptions{Logger: log.New(&buf, "", 0)})
	rp.StartOperation("hough")()

	rp.Report()
	assert.Contains(t, buf.String(), "stage hough")
}

func TestStartStopIsIdempotent(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{
		SampleInterval: time.Millisecond,
		ReportInterval: time.Hour,
	})
	rp.AddMetricsCollector(staticCollector{"x": 1})

	rp.Start()
	rp.Start()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rp.StartOperation("blur")()
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return len(rp.Snapshot().Metrics) == 1
	}, time.Second, 5*time.Millisecond)

	rp.Stop()
	rp.Stop()
	assert.Equal(t, int64(4), rp.Snapshot().Stages[0].Count)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
