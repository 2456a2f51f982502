package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFlags(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "drive.mp4")
	img := filepath.Join(dir, "frame.png")
	txt := filepath.Join(dir, "notes.txt")
	for _, p := range []string{video, img, txt} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}

	tests := []struct {
		name            string
		video, img, dir string
		device          int
		want            InputType
		wantErr         bool
	}{
		{name: "camera default", want: InputCamera},
		{name: "video", video: video, want: InputVideo},
		{name: "image", img: img, want: InputImage},
		{name: "directory", dir: dir, want: InputDirectory},
		{name: "two inputs", video: video, img: img, wantErr: true},
		{name: "missing video", video: filepath.Join(dir, "nope.mp4"), wantErr: true},
		{name: "wrong extension", img: txt, wantErr: true},
		{name: "dir is a file", dir: img, wantErr: true},
		{name: "negative device", device: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := validateInputFlags(tt.video, tt.img, tt.dir, tt.device)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Type)
		})
	}
}

func TestOpenSinksDefaults(t *testing.T) {
	sinks, err := openSinks(t.TempDir(), "", "", 0, false)
	require.NoError(t, err)
	assert.Len(t, sinks, 1)
}
