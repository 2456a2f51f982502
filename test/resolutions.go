package test

import "fmt"

// Resolution is a camera output size the pipeline is exercised at.
type Resolution struct {
	Name   string
	Width  int
	Height int
}

// String returns e.g. "HD 720p (1280x720)".
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d)", r.Name, r.Width, r.Height)
}

// CameraResolutions are the dash and webcam sizes seen in the field, from the
// 4:3 calibration size upward.
var CameraResolutions = []Resolution{
	{Name: "VGA", Width: 640, Height: 480},
	{Name: "FWVGA", Width: 854, Height: 480},
	{Name: "HD 720p", Width: 1280, Height: 720},
	{Name: "Full HD 1080p", Width: 1920, Height: 1080},
}
