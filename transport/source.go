package transport

import (
	"io"
	"sync"

	"github.com/nvr-ai/go-lanes/images"
	"github.com/nvr-ai/go-lanes/util"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Source produces input images. Next returns io.EOF when exhausted.
type Source interface {
	Next() (images.Frame, error)
	Close() error
}

// CaptureSource reads frames from a camera device or a video file.
type CaptureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// OpenCapture opens a camera by device ID (int) or a video file or stream URL (string).
//
// Arguments:
//   - device: A device index or a path understood by OpenCV.
//
// Returns:
//   - *CaptureSource: The source, to be closed by the caller.
//   - error: An error if the device cannot be opened.
func OpenCapture(device interface{}) (*CaptureSource, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open video capture %v", device)
	}
	return &CaptureSource{
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

// Next reads the next frame. Empty reads at the end of a file yield io.EOF.
func (s *CaptureSource) Next() (images.Frame, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return images.Frame{}, io.EOF
	}
	return images.FrameFromMat(s.mat)
}

// Size reports the capture width and height.
func (s *CaptureSource) Size() (int, int) {
	return int(s.capture.Get(gocv.VideoCaptureFrameWidth)), int(s.capture.Get(gocv.VideoCaptureFrameHeight))
}

// FPS reports the capture frame rate, or 0 if unknown.
func (s *CaptureSource) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// Close releases the device.
func (s *CaptureSource) Close() error {
	if err := s.mat.Close(); err != nil {
		return err
	}
	return s.capture.Close()
}

// DirectorySource replays the images of a directory in frame-number order.
type DirectorySource struct {
	files []util.ImageFile
	next  int
}

// OpenDirectory lists and reads every image in dir.
func OpenDirectory(dir string) (*DirectorySource, error) {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no images found in %s", dir)
	}
	return &DirectorySource{files: files}, nil
}

// Len returns the number of images in the directory.
func (s *DirectorySource) Len() int {
	return len(s.files)
}

// Next decodes the next image.
func (s *DirectorySource) Next() (images.Frame, error) {
	if s.next >= len(s.files) {
		return images.Frame{}, io.EOF
	}
	file := s.files[s.next]
	s.next++
	return DecodeImage(file.Data)
}

// Close is a no-op.
func (s *DirectorySource) Close() error {
	return nil
}

// ImageSource yields one image file once.
type ImageSource struct {
	path string
	once sync.Once
}

// OpenImage returns a source for a single image file.
func OpenImage(path string) *ImageSource {
	return &ImageSource{path: path}
}

// Next reads the image on the first call and returns io.EOF afterwards.
func (s *ImageSource) Next() (images.Frame, error) {
	var (
		frame images.Frame
		err   = io.EOF
	)
	s.once.Do(func() {
		mat := gocv.IMRead(s.path, gocv.IMReadColor)
		defer mat.Close()
		if mat.Empty() {
			err = errors.Errorf("failed to read image %s", s.path)
			return
		}
		frame, err = images.FrameFromMat(mat)
	})
	return frame, err
}

// Close is a no-op.
func (s *ImageSource) Close() error {
	return nil
}

// DecodeImage decodes encoded image bytes into a 3-channel BGR frame.
func DecodeImage(data []byte) (images.Frame, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return images.Frame{}, errors.Wrap(err, "failed to decode image")
	}
	defer mat.Close()
	if mat.Empty() {
		return images.Frame{}, errors.Wrap(images.ErrInvalidFrame, "decoded image is empty")
	}
	return images.FrameFromMat(mat)
}

// SliceSource yields in-memory frames in order.
type SliceSource struct {
	frames []images.Frame
	next   int
}

// NewSliceSource wraps frames as a Source.
func NewSliceSource(frames ...images.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame.
func (s *SliceSource) Next() (images.Frame, error) {
	if s.next >= len(s.frames) {
		return images.Frame{}, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// Close is a no-op.
func (s *SliceSource) Close() error {
	return nil
}
