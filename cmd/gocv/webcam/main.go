package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/nvr-ai/go-lanes/debugview"
	"github.com/nvr-ai/go-lanes/pipeline"
	"github.com/nvr-ai/go-lanes/transport"
	"gocv.io/x/gocv"
)

func main() {
	var (
		device     int
		configPath string
		tileW      int
		tileH      int
	)
	flag.IntVar(&device, "device", 0, "Video capture device")
	flag.StringVar(&configPath, "config", "", "Pipeline YAML configuration")
	flag.IntVar(&tileW, "tile-width", 320, "Debug panel width")
	flag.IntVar(&tileH, "tile-height", 240, "Debug panel height")
	flag.Parse()

	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(configPath); err != nil {
			log.Fatal(err)
		}
	}
	p, err := pipeline.New(cfg, pipeline.WithStages(true))
	if err != nil {
		log.Fatal(err)
	}

	webcam, err := transport.OpenCapture(device)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer webcam.Close()

	window := gocv.NewWindow("Lane Debug")
	defer window.Close()

	board := debugview.NewBoard(2, 3)

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	fmt.Printf("start reading camera device: %v\n", device)
	for {
		frame, err := webcam.Next()
		if err != nil {
			fmt.Printf("cannot read device %v: %v\n", device, err)
			return
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		res, err := p.Run(frame)
		if err != nil {
			log.Printf("skipping frame: %v", err)
			continue
		}
		fmt.Printf("status=%s segments=%d lines=%d | FPS: %.2f\n", res.Status, len(res.Segments), len(res.Lines), fps)

		board.Add("source", frame)
		for _, st := range res.Stages {
			if st.Name == pipeline.StageBlur {
				continue
			}
			board.Add(st.Name, st.Frame)
		}
		board.Add("composite", res.Composite)

		key, err := board.Show(window, tileW, tileH)
		if err != nil {
			log.Printf("debug view: %v", err)
		}
		if key == 27 || key == 'q' {
			return
		}
	}
}
