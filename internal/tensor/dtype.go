// Package tensor provides the dense float32 tensor used to carry checkpoint parameters.
package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// DataType represents the element type of tensor data stored on disk.
//
// In memory every tensor is float32; DataType only describes how bytes are
// laid out in a file so they can be widened on read.
type DataType int

// Supported on-disk data types.
const (
	Float32 DataType = iota
	Float64
	Float16
	BFloat16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Float16, BFloat16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	default:
		return "unknown"
	}
}

// DecodeFloat32 widens little-endian bytes of the given data type into float32 values.
func DecodeFloat32(dt DataType, data []byte) ([]float32, error) {
	size := dt.Size()
	if len(data)%size != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of %s size %d", len(data), dt, size)
	}
	out := make([]float32, len(data)/size)
	switch dt {
	case Float32:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case Float64:
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:])))
		}
	case Float16:
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32()
		}
	case BFloat16:
		// bfloat16 is the upper half of an IEEE float32.
		for i := range out {
			out[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(data[i*2:])) << 16)
		}
	default:
		return nil, fmt.Errorf("unsupported data type: %s", dt)
	}
	return out, nil
}

// EncodeFloat32 writes values as little-endian float32 bytes.
func EncodeFloat32(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// EncodeFloat16 writes values as little-endian IEEE half-precision bytes.
// Values outside the float16 range saturate to infinity.
func EncodeFloat16(values []float32) []byte {
	out := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(v).Bits())
	}
	return out
}
