package dataset

import (
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Reader gives indexed access to the records of a .npy file.
type Reader struct {
	layout  Layout
	data    []uint8
	stride  int
	records int
	order   []int
	shape   tensor.Shape
}

// Open loads a uint8 .npy array of shape (records, bytes) or a flat array
// whose length is a multiple of the record size.
//
// Arguments:
//   - path: The .npy file.
//   - layout: The image geometry of each record.
//
// Returns:
//   - *Reader: The reader, in file order.
//   - error: An error if the file cannot be read or does not fit the layout.
func Open(path string, layout Layout) (*Reader, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer f.Close()

	arr := new(tensor.Dense)
	if err := arr.ReadNpy(f); err != nil {
		return nil, errors.Wrapf(err, "failed to read npy %s", path)
	}
	return FromTensor(arr, layout)
}

// FromTensor wraps an already loaded uint8 array.
func FromTensor(arr *tensor.Dense, layout Layout) (*Reader, error) {
	data, ok := arr.Data().([]uint8)
	if !ok {
		return nil, errors.Errorf("dataset dtype %v, want uint8", arr.Dtype())
	}

	shape := arr.Shape().Clone()
	need := layout.RecordBytes()

	var stride, records int
	switch len(shape) {
	case 2:
		stride, records = shape[1], shape[0]
		if stride < need {
			return nil, errors.Wrapf(ErrInvalidRecord, "rows of %d bytes, need %d", stride, need)
		}
	case 1:
		if len(data)%need != 0 {
			return nil, errors.Wrapf(ErrInvalidRecord, "%d bytes is not a multiple of %d", len(data), need)
		}
		stride, records = need, len(data)/need
	default:
		return nil, errors.Errorf("dataset shape %v, want 1 or 2 dimensions", shape)
	}

	order := make([]int, records)
	for i := range order {
		order[i] = i
	}

	return &Reader{
		layout:  layout,
		data:    data,
		stride:  stride,
		records: records,
		order:   order,
		shape:   shape,
	}, nil
}

// Len returns the number of records.
func (r *Reader) Len() int {
	return r.records
}

// Shape returns the shape of the underlying array.
func (r *Reader) Shape() tensor.Shape {
	return r.shape.Clone()
}

// Layout returns the record geometry.
func (r *Reader) Layout() Layout {
	return r.layout
}

// Shuffle permutes the record order in place.
func (r *Reader) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(r.order), func(i, j int) {
		r.order[i], r.order[j] = r.order[j], r.order[i]
	})
}

// Raw returns the bytes of record index in the current order.
func (r *Reader) Raw(index int) ([]byte, error) {
	if index < 0 || index >= r.records {
		return nil, errors.Errorf("record %d out of range [0, %d)", index, r.records)
	}
	off := r.order[index] * r.stride
	return r.data[off : off+r.stride], nil
}

// Read decodes record index in the current order.
func (r *Reader) Read(index int) (*Record, error) {
	raw, err := r.Raw(index)
	if err != nil {
		return nil, err
	}
	rec, err := DecodeRecord(raw, r.layout)
	if err != nil {
		return nil, errors.Wrapf(err, "record %d", index)
	}
	return rec, nil
}
