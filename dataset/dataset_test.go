package dataset

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nvr-ai/go-lanes/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

var small = Layout{Width: 3, Height: 2, Depth: 2}

// record builds raw bytes where channel c, row y, column x holds c*100+y*10+x.
func record(steer, speed byte, l Layout) []byte {
	raw := []byte{steer, speed}
	for c := 0; c < l.Depth; c++ {
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				raw = append(raw, byte(c*100+y*10+x))
			}
		}
	}
	return raw
}

func TestLayoutSizes(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 9600, l.ImageBytes())
	assert.Equal(t, 9602, l.RecordBytes())
	assert.Error(t, Layout{Width: 1, Height: 0, Depth: 1}.Validate())
}

func TestDecodeRecordLabels(t *testing.T) {
	rec, err := DecodeRecord(record(5, 179, small), small)
	require.NoError(t, err)

	assert.Equal(t, 5, rec.Steer)
	assert.Equal(t, 179, rec.Speed)
	require.Len(t, rec.SteerOneHot, Classes)
	var sum float32
	for _, v := range rec.SteerOneHot {
		sum += v
	}
	assert.Equal(t, float32(1), sum)
	assert.Equal(t, float32(1), rec.SteerOneHot[5])
	assert.Equal(t, float32(1), rec.SpeedOneHot[179])
}

func TestDecodeRecordTransposesToHWC(t *testing.T) {
	rec, err := DecodeRecord(record(0, 0, small), small)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 2}, rec.Image.Shape())

	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			for c := 0; c < 2; c++ {
				v, err := rec.Image.At(y, x, c)
				require.NoError(t, err)
				assert.Equal(t, float32(c*100+y*10+x), v, "y=%d x=%d c=%d", y, x, c)
			}
		}
	}
}

func TestDecodeRecordSignedPixels(t *testing.T) {
	l := Layout{Width: 2, Height: 1, Depth: 1}
	rec, err := DecodeRecord([]byte{0, 0, 200, 127}, l)
	require.NoError(t, err)
	assert.Equal(t, []float32{-56, 127}, rec.Image.Data())

	f, err := rec.Frame()
	require.NoError(t, err)
	assert.Equal(t, images.ChannelsGray, f.Channels)
	assert.Equal(t, []byte{200, 127}, f.Data)
}

func TestDecodeRecordErrors(t *testing.T) {
	_, err := DecodeRecord(record(0, 0, small)[:5], small)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	_, err = DecodeRecord(record(180, 0, small), small)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	_, err = DecodeRecord(record(0, 200, small), small)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func writeNpy(t *testing.T, shape []int, data []uint8) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.npy")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	arr := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
	require.NoError(t, arr.WriteNpy(f))
	return path
}

func TestOpenReadsRecords(t *testing.T) {
	var data []uint8
	for i := 0; i < 4; i++ {
		data = append(data, record(byte(i), byte(10+i), small)...)
	}
	path := writeNpy(t, []int{4, small.RecordBytes()}, data)

	r, err := Open(path, small)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, tensor.Shape{4, small.RecordBytes()}, r.Shape())

	rec, err := r.Read(2)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Steer)
	assert.Equal(t, 12, rec.Speed)

	_, err = r.Read(4)
	assert.Error(t, err)
}

func TestOpenFlatArray(t *testing.T) {
	data := append(record(1, 1, small), record(2, 2, small)...)
	path := writeNpy(t, []int{len(data)}, data)

	r, err := Open(path, small)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	_, err = Open(writeNpy(t, []int{len(data) - 1}, data[:len(data)-1]), small)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestOpenRejectsShortRows(t *testing.T) {
	path := writeNpy(t, []int{2, 4}, make([]uint8, 8))
	_, err := Open(path, small)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestShuffleIsPermutation(t *testing.T) {
	const n = 32
	var data []uint8
	for i := 0; i < n; i++ {
		data = append(data, record(byte(i), 0, small)...)
	}
	r, err := FromTensor(tensor.New(tensor.WithShape(n, small.RecordBytes()), tensor.WithBacking(data)), small)
	require.NoError(t, err)

	r.Shuffle(rand.New(rand.NewSource(7)))

	seen := make([]int, 0, n)
	moved := false
	for i := 0; i < n; i++ {
		rec, err := r.Read(i)
		require.NoError(t, err)
		seen = append(seen, rec.Steer)
		if rec.Steer != i {
			moved = true
		}
	}
	assert.True(t, moved)

	counts := make(map[int]int)
	for _, s := range seen {
		counts[s]++
	}
	want := make(map[int]int)
	for i := 0; i < n; i++ {
		want[i] = 1
	}
	assert.Empty(t, cmp.Diff(want, counts))
}

func TestFromTensorRejectsDtype(t *testing.T) {
	_, err := FromTensor(tensor.New(tensor.WithShape(2), tensor.WithBacking([]float64{1, 2})), small)
	assert.Error(t, err)
}
