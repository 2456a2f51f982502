package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvr-ai/go-lanes/pipeline"
	"github.com/nvr-ai/go-lanes/profiler"
	"github.com/nvr-ai/go-lanes/transport"
	"github.com/pkg/errors"
)

const (
	// deviceID is the default video capture device.
	deviceID = 0
	// DefaultOutputDir is where composites are written when no sink is chosen.
	DefaultOutputDir = "lane_frames"
)

// Supported file extensions
var (
	supportedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}
	supportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}
)

// InputType represents the type of input being processed
type InputType int

const (
	InputCamera InputType = iota
	InputVideo
	InputImage
	InputDirectory
)

// String returns a human readable input description.
func (t InputType) String() string {
	switch t {
	case InputCamera:
		return "camera"
	case InputVideo:
		return "video"
	case InputImage:
		return "image"
	case InputDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// InputConfig holds the input configuration
type InputConfig struct {
	Type     InputType
	Path     string
	DeviceID int
}

func main() {
	var (
		videoPath      string
		imagePath      string
		dirPath        string
		device         int
		configPath     string
		outputDir      string
		outputVideo    string
		codec          string
		fps            float64
		showWindow     bool
		workers        int
		reportInterval time.Duration
	)
	flag.StringVar(&videoPath, "video", "", "Path to video file (.mp4, .avi, .mov, .mkv)")
	flag.StringVar(&imagePath, "image", "", "Path to image file (.jpg, .jpeg, .png, .bmp)")
	flag.StringVar(&dirPath, "dir", "", "Directory of numbered image frames")
	flag.IntVar(&device, "device", deviceID, "Video capture device when no file input is given")
	flag.StringVar(&configPath, "config", "", "Pipeline YAML configuration (defaults if empty)")
	flag.StringVar(&outputDir, "output-dir", "", "Directory for composite PNG frames")
	flag.StringVar(&outputVideo, "output-video", "", "Video file for composites")
	flag.StringVar(&codec, "codec", "MJPG", "FourCC codec for -output-video")
	flag.Float64Var(&fps, "fps", 0, "Frame rate for -output-video (source rate if 0)")
	flag.BoolVar(&showWindow, "show-window", false, "Show composites in a window")
	flag.IntVar(&workers, "workers", 1, "Number of concurrent pipeline workers")
	flag.DurationVar(&reportInterval, "report-interval", 5*time.Second, "Profiler report interval (0 disables)")
	flag.Parse()

	input, err := validateInputFlags(videoPath, imagePath, dirPath, device)
	if err != nil {
		log.Fatal(err)
	}

	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		if cfg, err = pipeline.LoadConfig(configPath); err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}

	source, sourceFPS, err := openSource(input)
	if err != nil {
		log.Fatalf("Error opening %s input: %v", input.Type, err)
	}
	defer source.Close()

	if outputDir == "" && outputVideo == "" && !showWindow {
		outputDir = DefaultOutputDir
	}
	if fps <= 0 {
		fps = sourceFPS
	}
	sinks, err := openSinks(outputDir, outputVideo, codec, fps, showWindow)
	if err != nil {
		log.Fatalf("Error opening output: %v", err)
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				log.Printf("Error closing output: %v", err)
			}
		}
	}()

	rp := profiler.NewRuntimeProfiler(profiler.ProfilingOptions{ReportInterval: reportInterval})
	p, err := pipeline.New(cfg, pipeline.WithProfiler(rp))
	if err != nil {
		log.Fatalf("Error creating pipeline: %v", err)
	}

	runner := transport.NewRunner(source, p, sinks, transport.RunnerOptions{
		Workers:    workers,
		DropFrames: input.Type == InputCamera,
	})
	rp.AddMetricsCollector(runner)
	if reportInterval > 0 {
		rp.Start()
		defer rp.Stop()
	}

	fmt.Printf("Lane detection started\n")
	fmt.Printf("  Input: %s %s\n", input.Type, describe(input))
	fmt.Printf("  Workers: %d\n", workers)
	fmt.Printf("  Edges: low=%v high=%v  Hough: threshold=%d min_len=%v max_gap=%v\n",
		cfg.Edges.Low, cfg.Edges.High, cfg.Hough.Threshold, cfg.Hough.MinLineLength, cfg.Hough.MaxLineGap)
	if outputDir != "" {
		fmt.Printf("  Output directory: %s\n", outputDir)
	}
	if outputVideo != "" {
		fmt.Printf("  Output video: %s (%s @ %.1f fps)\n", outputVideo, codec, fps)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	err = runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Lane detection stopped: %v", err)
	}

	stats := runner.Stats()
	fmt.Printf("Processed %d/%d frames in %v (skipped=%d dropped=%d)\n",
		stats.Processed, stats.Received, time.Since(start).Truncate(time.Millisecond), stats.Skipped, stats.Dropped)
	rp.Report()
}

// validateInputFlags picks exactly one input. With no file input the camera is used.
func validateInputFlags(videoPath, imagePath, dirPath string, device int) (*InputConfig, error) {
	given := 0
	for _, p := range []string{videoPath, imagePath, dirPath} {
		if p != "" {
			given++
		}
	}
	if given > 1 {
		return nil, errors.New("only one of -video, -image and -dir may be given")
	}

	switch {
	case videoPath != "":
		if err := validateFile(videoPath, supportedVideoExtensions); err != nil {
			return nil, errors.Wrap(err, "video validation error")
		}
		return &InputConfig{Type: InputVideo, Path: videoPath}, nil
	case imagePath != "":
		if err := validateFile(imagePath, supportedImageExtensions); err != nil {
			return nil, errors.Wrap(err, "image validation error")
		}
		return &InputConfig{Type: InputImage, Path: imagePath}, nil
	case dirPath != "":
		info, err := os.Stat(dirPath)
		if err != nil {
			return nil, errors.Wrap(err, "directory validation error")
		}
		if !info.IsDir() {
			return nil, errors.Errorf("not a directory: %s", dirPath)
		}
		return &InputConfig{Type: InputDirectory, Path: dirPath}, nil
	default:
		if device < 0 {
			return nil, errors.Errorf("invalid device id %d", device)
		}
		return &InputConfig{Type: InputCamera, DeviceID: device}, nil
	}
}

func validateFile(filePath string, supportedExtensions []string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return errors.Errorf("file not found: %s", filePath)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	for _, supportedExt := range supportedExtensions {
		if ext == supportedExt {
			return nil
		}
	}

	return errors.Errorf("unsupported file extension: %s. Supported extensions: %v", ext, supportedExtensions)
}

func describe(input *InputConfig) string {
	if input.Type == InputCamera {
		return fmt.Sprintf("(device %d)", input.DeviceID)
	}
	return input.Path
}

// openSource returns the frame source and its frame rate, 0 if unknown.
func openSource(input *InputConfig) (transport.Source, float64, error) {
	switch input.Type {
	case InputCamera:
		src, err := transport.OpenCapture(input.DeviceID)
		if err != nil {
			return nil, 0, err
		}
		return src, src.FPS(), nil
	case InputVideo:
		src, err := transport.OpenCapture(input.Path)
		if err != nil {
			return nil, 0, err
		}
		return src, src.FPS(), nil
	case InputImage:
		return transport.OpenImage(input.Path), 0, nil
	case InputDirectory:
		src, err := transport.OpenDirectory(input.Path)
		if err != nil {
			return nil, 0, err
		}
		return src, 0, nil
	default:
		return nil, 0, errors.Errorf("unknown input type %d", input.Type)
	}
}

func openSinks(outputDir, outputVideo, codec string, fps float64, showWindow bool) ([]transport.Sink, error) {
	var sinks []transport.Sink
	if outputDir != "" {
		s, err := transport.NewDirectorySink(outputDir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if outputVideo != "" {
		sinks = append(sinks, transport.NewVideoSink(outputVideo, codec, fps))
	}
	if showWindow {
		sinks = append(sinks, transport.NewWindowSink("Lane Detection"))
	}
	return sinks, nil
}
