package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the trailing frame number of the file name, or -1 if it has none.
	Frame int
}

// ImageExtensions lists the file extensions picked up by LoadDirectoryImageFiles.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Files are ordered by the number at the end of their base name
// ("frame-0012.png", "img_7.jpg"); files without a number come last in
// lexical order.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: The image files in playback order.
//   - error: Error if the directory or a file cannot be read.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read image directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		files = append(files, ImageFile{
			Path:  path,
			Data:  data,
			Frame: FrameNumber(entry.Name()),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Frame < 0 && b.Frame < 0:
			return a.Path < b.Path
		case a.Frame < 0:
			return false
		case b.Frame < 0:
			return true
		case a.Frame != b.Frame:
			return a.Frame < b.Frame
		default:
			return a.Path < b.Path
		}
	})

	return files, nil
}

// IsImageFile reports whether name has one of ImageExtensions (case-insensitive).
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FrameNumber returns the trailing integer of a file's base name, or -1.
func FrameNumber(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	end := len(base)
	start := end
	for start > 0 && unicode.IsDigit(rune(base[start-1])) {
		start--
	}
	if start == end {
		return -1
	}
	n, err := strconv.Atoi(base[start:end])
	if err != nil {
		return -1
	}
	return n
}
