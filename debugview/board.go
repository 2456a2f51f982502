// Package debugview arranges labelled intermediate frames into a grid for
// on-screen inspection of the pipeline stages.
package debugview

import (
	"image"
	"image/color"
	"log"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-lanes/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Board is a rows×cols grid of labelled panels, filled in insertion order.
type Board struct {
	rows   int
	cols   int
	labels []string
	panels map[string]images.Frame
	logger *log.Logger
}

// NewBoard creates an empty board. Non-positive dimensions default to 2×3.
func NewBoard(rows, cols int) *Board {
	if rows <= 0 || cols <= 0 {
		rows, cols = 2, 3
	}
	return &Board{
		rows:   rows,
		cols:   cols,
		panels: make(map[string]images.Frame),
		logger: log.Default(),
	}
}

// SetLogger replaces the logger used for overflow warnings.
func (b *Board) SetLogger(l *log.Logger) {
	if l != nil {
		b.logger = l
	}
}

// Capacity is rows*cols.
func (b *Board) Capacity() int {
	return b.rows * b.cols
}

// Add places a frame under label. An existing label keeps its slot and is
// overwritten. A new label beyond capacity is logged and dropped.
//
// Returns:
//   - bool: false if the panel did not fit.
func (b *Board) Add(label string, f images.Frame) bool {
	if _, ok := b.panels[label]; ok {
		b.panels[label] = f
		return true
	}
	if len(b.labels) >= b.Capacity() {
		b.logger.Printf("debugview: show space is overflow, dropping %q (%dx%d board)", label, b.rows, b.cols)
		return false
	}
	b.labels = append(b.labels, label)
	b.panels[label] = f
	return true
}

// Labels returns the labels in slot order.
func (b *Board) Labels() []string {
	return append([]string(nil), b.labels...)
}

// Panel returns the frame stored under label.
func (b *Board) Panel(label string) (images.Frame, bool) {
	f, ok := b.panels[label]
	return f, ok
}

// Reset empties the board.
func (b *Board) Reset() {
	b.labels = b.labels[:0]
	b.panels = make(map[string]images.Frame)
}

// Mosaic renders every panel scaled to tileW×tileH into one 3-channel frame.
// Empty slots stay black.
//
// Arguments:
//   - tileW: Width of each panel in pixels.
//   - tileH: Height of each panel in pixels.
//   - caption: Draw each label in the top-left corner of its tile.
//
// Returns:
//   - images.Frame: A (cols*tileW)×(rows*tileH) BGR frame.
//   - error: An error if a panel is malformed or the tile size is not positive.
func (b *Board) Mosaic(tileW, tileH int, caption bool) (images.Frame, error) {
	if tileW <= 0 || tileH <= 0 {
		return images.Frame{}, errors.Errorf("tile size %dx%d must be positive", tileW, tileH)
	}

	out := images.NewFrame(b.cols*tileW, b.rows*tileH, images.ChannelsColor)
	for i, label := range b.labels {
		tile, err := scale(b.panels[label], tileW, tileH)
		if err != nil {
			return images.Frame{}, errors.Wrapf(err, "panel %q", label)
		}

		ox, oy := (i%b.cols)*tileW, (i/b.cols)*tileH
		rowBytes := tileW * images.ChannelsColor
		for y := 0; y < tileH; y++ {
			dst := ((oy+y)*out.Width + ox) * images.ChannelsColor
			copy(out.Data[dst:dst+rowBytes], tile.Data[y*rowBytes:(y+1)*rowBytes])
		}
	}

	if !caption || len(b.labels) == 0 {
		return out, nil
	}

	mat, err := out.ToMat()
	if err != nil {
		return images.Frame{}, err
	}
	defer mat.Close()
	for i, label := range b.labels {
		org := image.Pt((i%b.cols)*tileW+6, (i/b.cols)*tileH+18)
		gocv.PutText(&mat, label, org, gocv.FontHersheySimplex, 0.5, color.RGBA{R: 255, G: 255, A: 255}, 1)
	}
	return images.FrameFromMat(mat)
}

// scale resizes a panel and promotes it to three channels.
func scale(f images.Frame, w, h int) (images.Frame, error) {
	if err := f.Validate(); err != nil {
		return images.Frame{}, err
	}
	if f.Width != w || f.Height != h {
		img, err := f.ToImage()
		if err != nil {
			return images.Frame{}, err
		}
		f = images.FromImage(resize.Resize(uint(w), uint(h), img, resize.Bilinear))
	}
	return images.Display(f)
}

// Show renders the mosaic into a window and pumps its event loop.
//
// Returns:
//   - int: The key pressed during the wait, or -1.
//   - error: An error if the mosaic cannot be built.
func (b *Board) Show(window *gocv.Window, tileW, tileH int) (int, error) {
	mosaic, err := b.Mosaic(tileW, tileH, true)
	if err != nil {
		return -1, err
	}
	mat, err := mosaic.ToMat()
	if err != nil {
		return -1, err
	}
	defer mat.Close()

	window.IMShow(mat)
	return window.WaitKey(1), nil
}
