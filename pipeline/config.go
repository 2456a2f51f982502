// Package pipeline - Configuration for the per-frame lane estimation pipeline.
package pipeline

import (
	"image/color"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-lanes/lane"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid pipeline config")

// BaseMode selects which frame the overlay canvas is blended onto.
type BaseMode string

const (
	// BaseSource blends onto the caller's input frame.
	BaseSource BaseMode = "source"
	// BaseEdges blends onto the color promotion of the edge map.
	BaseEdges BaseMode = "edges"
)

// Point is a vertex in normalized [0,1] image coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Polygon is an implicitly closed sequence of normalized vertices.
type Polygon []Point

// BlurConfig controls the noise suppressor.
type BlurConfig struct {
	// KernelSize is the side of the square Gaussian kernel, must be odd.
	KernelSize int `json:"kernel_size" yaml:"kernel_size"`
}

// EdgeConfig controls the dual-threshold edge detector.
type EdgeConfig struct {
	Low  float32 `json:"low" yaml:"low"`
	High float32 `json:"high" yaml:"high"`
}

// HoughConfig controls the probabilistic segment transform.
type HoughConfig struct {
	// Rho is the distance resolution of the accumulator in pixels.
	Rho float32 `json:"rho" yaml:"rho"`
	// Theta is the angle resolution of the accumulator in radians.
	Theta float32 `json:"theta" yaml:"theta"`
	// Threshold is the minimum number of votes for a segment.
	Threshold int `json:"threshold" yaml:"threshold"`
	// MinLineLength is the minimum segment length in pixels.
	MinLineLength float32 `json:"min_line_length" yaml:"min_line_length"`
	// MaxLineGap is the maximum gap between points joined into one segment.
	MaxLineGap float32 `json:"max_line_gap" yaml:"max_line_gap"`
}

// OverlayConfig controls how segments are drawn.
type OverlayConfig struct {
	RawColor       color.RGBA `json:"raw_color" yaml:"raw_color"`
	FinalColor     color.RGBA `json:"final_color" yaml:"final_color"`
	RawThickness   int        `json:"raw_thickness" yaml:"raw_thickness"`
	FinalThickness int        `json:"final_thickness" yaml:"final_thickness"`
	Base           BaseMode   `json:"base" yaml:"base"`
}

// BlendConfig holds the linear blend output = Alpha*base + Beta*canvas + Gamma.
type BlendConfig struct {
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
}

// Config represents the complete, overridable pipeline configuration.
type Config struct {
	Blur    BlurConfig    `json:"blur" yaml:"blur"`
	Edges   EdgeConfig    `json:"edges" yaml:"edges"`
	ROI     []Polygon     `json:"roi" yaml:"roi"`
	Hough   HoughConfig   `json:"hough" yaml:"hough"`
	Slopes  lane.Rules    `json:"slopes" yaml:"slopes"`
	Overlay OverlayConfig `json:"overlay" yaml:"overlay"`
	Blend   BlendConfig   `json:"blend" yaml:"blend"`
}

// DefaultROI returns the calibrated trapezoid: full width at the bottom row,
// narrowing to x in [100/640, 540/640] at y = 200/480.
func DefaultROI() []Polygon {
	return []Polygon{{
		{X: 0. / 640., Y: 479. / 480.},
		{X: 100. / 640., Y: 200. / 480.},
		{X: 540. / 640., Y: 200. / 480.},
		{X: 640. / 640., Y: 479. / 480.},
	}}
}

// DefaultConfig returns the calibrated configuration.
//
// Returns:
//   - Config: Defaults matching the reference lane detector.
//
// @example
// cfg := DefaultConfig()
// cfg.Hough.Threshold = 80
// p, err := New(cfg)
func DefaultConfig() Config {
	return Config{
		Blur:  BlurConfig{KernelSize: 5},
		Edges: EdgeConfig{Low: 50, High: 150},
		ROI:   DefaultROI(),
		Hough: HoughConfig{
			Rho:           1,
			Theta:         math32.Pi / 180,
			Threshold:     100,
			MinLineLength: 100.0,
			MaxLineGap:    10.0,
		},
		Slopes: lane.DefaultRules(),
		Overlay: OverlayConfig{
			RawColor:       color.RGBA{R: 0, G: 255, B: 0, A: 255},
			FinalColor:     color.RGBA{R: 255, G: 0, B: 0, A: 255},
			RawThickness:   2,
			FinalThickness: 4,
			Base:           BaseSource,
		},
		Blend: BlendConfig{Alpha: 1.0, Beta: 0.8, Gamma: 1.8},
	}
}

// Validate checks the configuration.
//
// Returns:
//   - error: ErrInvalidConfig wrapped with the first problem found.
func (c Config) Validate() error {
	if c.Blur.KernelSize <= 0 || c.Blur.KernelSize%2 == 0 {
		return errors.Wrapf(ErrInvalidConfig, "blur kernel size %d must be odd and positive", c.Blur.KernelSize)
	}
	if c.Edges.Low < 0 || c.Edges.High < c.Edges.Low {
		return errors.Wrapf(ErrInvalidConfig, "edge thresholds low=%v high=%v", c.Edges.Low, c.Edges.High)
	}
	if err := validatePolygons(c.ROI); err != nil {
		return err
	}
	if c.Hough.Rho <= 0 || c.Hough.Theta <= 0 || c.Hough.Threshold <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "hough rho=%v theta=%v threshold=%d must be positive",
			c.Hough.Rho, c.Hough.Theta, c.Hough.Threshold)
	}
	if c.Hough.MinLineLength < 0 || c.Hough.MaxLineGap < 0 {
		return errors.Wrapf(ErrInvalidConfig, "hough min length %v and max gap %v must not be negative",
			c.Hough.MinLineLength, c.Hough.MaxLineGap)
	}
	if err := c.Slopes.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "slopes: %v", err)
	}
	if c.Overlay.RawThickness <= 0 || c.Overlay.FinalThickness <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "overlay thickness raw=%d final=%d must be positive",
			c.Overlay.RawThickness, c.Overlay.FinalThickness)
	}
	if c.Overlay.Base != BaseSource && c.Overlay.Base != BaseEdges {
		return errors.Wrapf(ErrInvalidConfig, "unknown overlay base %q", c.Overlay.Base)
	}
	return nil
}

func validatePolygons(polygons []Polygon) error {
	if len(polygons) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no region of interest polygons")
	}
	for i, poly := range polygons {
		if len(poly) < 3 {
			return errors.Wrapf(ErrInvalidConfig, "roi polygon %d has %d vertices, need at least 3", i, len(poly))
		}
	}
	return nil
}

// LoadConfig reads a YAML configuration file.
//
// Fields omitted from the file keep their default values. List fields (roi,
// slopes) are replaced as a whole when present.
//
// Arguments:
//   - path: Path to a .yaml or .yml file.
//
// Returns:
//   - Config: The validated configuration.
//   - error: An error if the file cannot be read, parsed, or validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".yaml" && ext != ".yml" {
		return cfg, errors.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config file %s", clean)
	}

	return cfg, cfg.Validate()
}
