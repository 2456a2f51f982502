package images

import "gocv.io/x/gocv"

// Channel counts supported by Frame.
const (
	// ChannelsGray is a single-channel intensity frame.
	ChannelsGray = 1
	// ChannelsColor is a 3-channel BGR frame.
	ChannelsColor = 3
)

// MatType returns the 8-bit OpenCV matrix type for a channel count.
func MatType(channels int) gocv.MatType {
	if channels == ChannelsGray {
		return gocv.MatTypeCV8UC1
	}
	return gocv.MatTypeCV8UC3
}
