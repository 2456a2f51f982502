package images

import (
	"crypto/md5"
	"fmt"
)

// Checksum generates a deterministic checksum for a frame.
//
// Used to verify that stages do not mutate their inputs.
//
// Returns:
//   - A hex-encoded MD5 checksum string, or "empty" for frames without data.
//
// Example:
//
// ```go
//
//	before := frame.Checksum()
//	_, _ = pipeline.Grayscale(frame)
//	fmt.Println(before == frame.Checksum())
//
// ```
func (f Frame) Checksum() string {
	if f.Empty() {
		return "empty"
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%dx%d:", f.Width, f.Height, f.Channels)
	hash.Write(f.Data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
