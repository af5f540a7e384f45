package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/rlconvert/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
func Xavier(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	t := tensor.Zeros(shape)
	if fanIn+fanOut == 0 {
		return t
	}
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	data := t.Data()
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
	return t
}
