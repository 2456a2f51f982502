package transport

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/nvr-ai/go-lanes/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectSink struct {
	mu     sync.Mutex
	seqs   []uint64
	frames []images.Frame
	err    error
}

func (s *collectSink) Write(src Frame, composite images.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.seqs = append(s.seqs, src.Seq)
	s.frames = append(s.frames, composite)
	return nil
}

func (s *collectSink) Close() error { return nil }

// invert is a stand-in processor that validates like the real pipeline.
var invert = ProcessorFunc(func(f images.Frame) (images.Frame, error) {
	if err := f.Validate(); err != nil {
		return images.Frame{}, err
	}
	out := f.Clone()
	for i, v := range out.Data {
		out.Data[i] = 255 - v
	}
	return out, nil
})

func frames(n int) []images.Frame {
	out := make([]images.Frame, n)
	for i := range out {
		out[i] = images.NewFrame(4, 4, images.ChannelsColor)
		out[i].Data[0] = byte(i)
	}
	return out
}

func TestRunnerProcessesEveryFrame(t *testing.T) {
	sink := &collectSink{}
	r := NewRunner(NewSliceSource(frames(20)...), invert, []Sink{sink}, RunnerOptions{Workers: 3})

	require.NoError(t, r.Run(context.Background()))

	sort.Slice(sink.seqs, func(i, j int) bool { return sink.seqs[i] < sink.seqs[j] })
	require.Len(t, sink.seqs, 20)
	assert.Equal(t, uint64(1), sink.seqs[0])
	assert.Equal(t, uint64(20), sink.seqs[19])
	assert.Equal(t, RunnerStats{Received: 20, Processed: 20}, r.Stats())
}

func TestRunnerSkipsInvalidFrames(t *testing.T) {
	var logs bytes.Buffer
	input := frames(3)
	input[1] = images.Frame{Width: 4, Height: 4, Channels: 3}

	sink := &collectSink{}
	r := NewRunner(NewSliceSource(input...), invert, []Sink{sink}, RunnerOptions{
		Logger: log.New(&logs, "", 0),
	})

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []uint64{1, 3}, sink.seqs)
	assert.Equal(t, uint64(1), r.Stats().Skipped)
	assert.Contains(t, logs.String(), "skipping frame 2")
}

func TestRunnerStopsOnProcessorError(t *testing.T) {
	boom := errors.New("boom")
	failing := ProcessorFunc(func(images.Frame) (images.Frame, error) { return images.Frame{}, boom })

	r := NewRunner(NewSliceSource(frames(5)...), failing, nil, RunnerOptions{})
	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, boom))
}

func TestRunnerStopsOnSinkError(t *testing.T) {
	boom := errors.New("disk full")
	r := NewRunner(NewSliceSource(frames(5)...), invert, []Sink{&collectSink{err: boom}}, RunnerOptions{})
	assert.True(t, errors.Is(r.Run(context.Background()), boom))
}

// endlessSource produces frames until closed, like a camera.
type endlessSource struct{}

func (endlessSource) Next() (images.Frame, error) {
	time.Sleep(time.Millisecond)
	return images.NewFrame(2, 2, images.ChannelsGray), nil
}

func (endlessSource) Close() error { return nil }

func TestRunnerCancellation(t *testing.T) {
	slow := ProcessorFunc(func(f images.Frame) (images.Frame, error) {
		time.Sleep(5 * time.Millisecond)
		return f, nil
	})
	r := NewRunner(endlessSource{}, slow, nil, RunnerOptions{DropFrames: true})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	stats := r.Stats()
	assert.Greater(t, stats.Processed, uint64(0))
	assert.Greater(t, stats.Dropped, uint64(0), "a slow worker must drop stale frames")
	assert.Equal(t, stats.Received, stats.Processed+stats.Dropped+stats.Skipped+pending(r))

	m := r.CollectMetrics()
	assert.Equal(t, float64(stats.Dropped), m["frames_dropped"])
}

// pending is 1 if a frame was left in the mailbox at shutdown.
func pending(r *Runner) uint64 {
	s := r.mailbox.Stats()
	return s.Published - s.Consumed - s.Dropped
}

type errSource struct{ err error }

func (s errSource) Next() (images.Frame, error) { return images.Frame{}, s.err }
func (errSource) Close() error                  { return nil }

func TestRunnerSourceErrors(t *testing.T) {
	r := NewRunner(errSource{err: io.EOF}, invert, nil, RunnerOptions{})
	assert.NoError(t, r.Run(context.Background()))

	boom := errors.New("device unplugged")
	r = NewRunner(errSource{err: boom}, invert, nil, RunnerOptions{})
	assert.True(t, errors.Is(r.Run(context.Background()), boom))
}

func TestDirectorySinkAndSource(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirectorySink(dir)
	require.NoError(t, err)

	img := images.NewFrame(8, 6, images.ChannelsColor)
	copy(img.At(2, 3), []byte{10, 20, 30})
	require.NoError(t, sink.Write(Frame{Seq: 2}, img))
	require.NoError(t, sink.Write(Frame{Seq: 1}, images.NewFrame(8, 6, images.ChannelsColor)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o600))

	src, err := OpenDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Len())

	first, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, byte(0), first.At(2, 3)[0])

	second, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30}, second.At(2, 3))

	_, err = src.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestImageSourceReadsOnce(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirectorySink(dir)
	require.NoError(t, err)
	require.NoError(t, sink.Write(Frame{Seq: 1}, images.NewFrame(5, 5, images.ChannelsColor)))

	src := OpenImage(sink.Path(1))
	f, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 5, f.Width)

	_, err = src.Next()
	assert.True(t, errors.Is(err, io.EOF))

	_, err = OpenImage(filepath.Join(dir, "missing.png")).Next()
	assert.Error(t, err)
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}
