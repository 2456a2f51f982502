package pipeline

import (
	"github.com/nvr-ai/go-lanes/images"
	"github.com/nvr-ai/go-lanes/lane"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DetectSegments runs the probabilistic Hough transform over an edge map.
//
// Segments are returned in detection order. An empty slice is the normal
// result for frames without visible lane markings.
//
// Arguments:
//   - edges: A binary edge map. Color frames are converted to grayscale first.
//   - cfg: Accumulator resolution, vote threshold, minimum length and maximum gap.
//
// Returns:
//   - []lane.Segment: The detected segments.
//   - error: images.ErrInvalidFrame if edges is malformed.
func DetectSegments(edges images.Frame, cfg HoughConfig) ([]lane.Segment, error) {
	gray, err := Grayscale(edges)
	if err != nil {
		return nil, err
	}

	src, err := gray.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	lines := gocv.NewMat()
	defer lines.Close()
	if err := gocv.HoughLinesPWithParams(src, &lines, cfg.Rho, cfg.Theta, cfg.Threshold,
		cfg.MinLineLength, cfg.MaxLineGap); err != nil {
		return nil, errors.Wrap(err, "segment detection failed")
	}

	segments := make([]lane.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segments = append(segments, lane.Seg(float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])))
	}
	return segments, nil
}
