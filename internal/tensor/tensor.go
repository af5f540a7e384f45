package tensor

import (
	"fmt"
)

// Device represents the compute device a tensor lives on.
//
// Conversion always happens on the host, so CPU is the only device; the type
// exists so reconstructed models record where their parameters were placed.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	default:
		return "unknown"
	}
}

// Tensor is a dense, row-major float32 tensor.
type Tensor struct {
	shape Shape
	data  []float32
}

// New creates a tensor that takes ownership of data.
//
// Returns an error if the number of elements does not match the shape.
func New(shape Shape, data []float32) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, shape.NumElements(), len(data))
	}
	return &Tensor{shape: shape.Clone(), data: data}, nil
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	buf := make([]float32, len(data))
	copy(buf, data)
	return New(shape, buf)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	return &Tensor{shape: shape.Clone(), data: make([]float32, shape.NumElements())}
}

// FromBytes builds a tensor from little-endian bytes of the given data type.
func FromBytes(dt DataType, shape Shape, raw []byte) (*Tensor, error) {
	values, err := DecodeFloat32(dt, raw)
	if err != nil {
		return nil, err
	}
	return New(shape, values)
}

// Shape returns the tensor dimensions.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying buffer. Mutations are visible to the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// NumElements returns the element count.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Len returns the size of the first dimension (1 for scalars).
func (t *Tensor) Len() int {
	if len(t.shape) == 0 {
		return 1
	}
	return t.shape[0]
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Bytes returns the data encoded as little-endian float32.
func (t *Tensor) Bytes() []byte {
	return EncodeFloat32(t.data)
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// CopyFrom overwrites the tensor's values with those of src.
// Shapes must match exactly.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("shape mismatch: %v vs %v", t.shape, src.shape)
	}
	copy(t.data, src.data)
	return nil
}

// At returns the element at the given row and column of a 2-D tensor.
func (t *Tensor) At(row, col int) float32 {
	return t.data[row*t.shape[1]+col]
}

// String summarises the tensor without printing its values.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(float32%v)", t.shape)
}
