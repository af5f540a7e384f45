package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// activation provides the parameter-free half of Module.
type activation struct{}

// Parameters returns nil (activations have no trainable parameters).
func (activation) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty dictionary.
func (activation) StateDict() *params.Dict {
	return params.NewDict()
}

// LoadStateDict accepts only an empty dictionary.
func (activation) LoadStateDict(d *params.Dict) error {
	return loadStrict(params.NewDict(), d)
}

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct{ activation }

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := input.Clone()
	data := out.Data()
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return out, nil
}

// Tanh is a hyperbolic tangent activation module.
type Tanh struct{ activation }

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Forward applies tanh element-wise.
func (t *Tanh) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := input.Clone()
	data := out.Data()
	for i, v := range data {
		data[i] = float32(math.Tanh(float64(v)))
	}
	return out, nil
}

// Softmax normalizes values along one dimension so they sum to one.
//
// Only the last dimension (Dim == -1) is supported, which is what the
// policy head uses.
type Softmax struct {
	activation
	Dim int
}

// NewSoftmax creates a softmax over dim.
func NewSoftmax(dim int) *Softmax {
	return &Softmax{Dim: dim}
}

// Forward applies a numerically stable softmax over the last dimension.
func (s *Softmax) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	shape := input.Shape()
	if len(shape) == 0 {
		return nil, fmt.Errorf("Softmax.Forward: scalar input")
	}
	if s.Dim != -1 && s.Dim != len(shape)-1 {
		return nil, fmt.Errorf("Softmax.Forward: only the last dimension is supported, got dim=%d for shape %v", s.Dim, shape)
	}
	out := input.Clone()
	SoftmaxLastDim(out.Data(), shape[len(shape)-1])
	return out, nil
}

// SoftmaxLastDim applies softmax in place to consecutive rows of width n.
func SoftmaxLastDim(data []float32, n int) {
	if n == 0 {
		return
	}
	for start := 0; start+n <= len(data); start += n {
		row := data[start : start+n]
		maxV := row[0]
		for _, v := range row[1:] {
			if v > maxV {
				maxV = v
			}
		}
		var sum float64
		for i, v := range row {
			e := math.Exp(float64(v - maxV))
			row[i] = float32(e)
			sum += e
		}
		for i := range row {
			row[i] = float32(float64(row[i]) / sum)
		}
	}
}
