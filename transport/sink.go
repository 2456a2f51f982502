package transport

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nvr-ai/go-lanes/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Sink consumes composite frames.
type Sink interface {
	Write(src Frame, composite images.Frame) error
	Close() error
}

// DirectorySink writes each composite as a PNG named after the frame sequence.
type DirectorySink struct {
	dir string
}

// NewDirectorySink creates dir if needed.
func NewDirectorySink(dir string) (*DirectorySink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}
	return &DirectorySink{dir: dir}, nil
}

// Path returns the file a frame with sequence seq is written to.
func (s *DirectorySink) Path(seq uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame-%06d.png", seq))
}

// Write encodes the composite to disk.
func (s *DirectorySink) Write(src Frame, composite images.Frame) error {
	mat, err := composite.ToMat()
	if err != nil {
		return err
	}
	defer mat.Close()

	path := s.Path(src.Seq)
	if ok := gocv.IMWrite(path, mat); !ok {
		return errors.Errorf("failed to write %s", path)
	}
	return nil
}

// Close is a no-op.
func (s *DirectorySink) Close() error {
	return nil
}

// VideoSink encodes composites into a video file. The writer is opened on the
// first frame, whose size every later frame must match.
type VideoSink struct {
	path   string
	codec  string
	fps    float64
	mu     sync.Mutex
	writer *gocv.VideoWriter
	width  int
	height int
	closed bool
}

// NewVideoSink prepares a video sink. Codec is a FourCC such as "MJPG" or "mp4v".
func NewVideoSink(path, codec string, fps float64) *VideoSink {
	if codec == "" {
		codec = "MJPG"
	}
	if fps <= 0 {
		fps = 30
	}
	return &VideoSink{path: path, codec: codec, fps: fps}
}

// Write appends a composite to the video.
func (s *VideoSink) Write(_ Frame, composite images.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.writer == nil {
		w, err := gocv.VideoWriterFile(s.path, s.codec, s.fps, composite.Width, composite.Height, true)
		if err != nil {
			return errors.Wrapf(err, "failed to open video writer %s", s.path)
		}
		s.writer, s.width, s.height = w, composite.Width, composite.Height
	}
	if composite.Width != s.width || composite.Height != s.height {
		return errors.Wrapf(images.ErrInvalidFrame, "frame %dx%d does not match video %dx%d",
			composite.Width, composite.Height, s.width, s.height)
	}

	colored, err := images.Display(composite)
	if err != nil {
		return err
	}
	mat, err := colored.ToMat()
	if err != nil {
		return err
	}
	defer mat.Close()
	return s.writer.Write(mat)
}

// Close flushes and closes the video file.
func (s *VideoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// WindowSink shows composites in a desktop window.
type WindowSink struct {
	window *gocv.Window
}

// NewWindowSink opens a named window.
func NewWindowSink(title string) *WindowSink {
	return &WindowSink{window: gocv.NewWindow(title)}
}

// Write displays the composite and pumps the window event loop.
func (s *WindowSink) Write(_ Frame, composite images.Frame) error {
	mat, err := composite.ToMat()
	if err != nil {
		return err
	}
	defer mat.Close()

	s.window.IMShow(mat)
	s.window.WaitKey(1)
	return nil
}

// Close destroys the window.
func (s *WindowSink) Close() error {
	return s.window.Close()
}
