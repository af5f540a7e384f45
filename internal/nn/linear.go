package nn

import (
	"fmt"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]
}

// NewLinear creates a new Linear layer.
func NewLinear(inFeatures, outFeatures int) *Linear {
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}))
	bias := NewParameter("bias", tensor.Zeros(tensor.Shape{outFeatures}))

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
	}
}

// Forward computes the output of the linear layer.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		return nil, fmt.Errorf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape)
	}
	if inputShape[1] != l.inFeatures {
		return nil, fmt.Errorf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1])
	}

	batch := inputShape[0]
	x := input.Data()
	w := l.weight.Tensor().Data()
	b := l.bias.Tensor().Data()
	out := tensor.Zeros(tensor.Shape{batch, l.outFeatures})
	y := out.Data()
	for n := 0; n < batch; n++ {
		row := x[n*l.inFeatures : (n+1)*l.inFeatures]
		for o := 0; o < l.outFeatures; o++ {
			wRow := w[o*l.inFeatures : (o+1)*l.inFeatures]
			sum := b[o]
			for i, v := range row {
				sum += v * wRow[i]
			}
			y[n*l.outFeatures+o] = sum
		}
	}
	return out, nil
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns {"weight", "bias"}.
func (l *Linear) StateDict() *params.Dict {
	d := params.NewDict()
	d.Set("weight", l.weight.Tensor())
	d.Set("bias", l.bias.Tensor())
	return d
}

// LoadStateDict loads parameters from a state dictionary.
func (l *Linear) LoadStateDict(d *params.Dict) error {
	return loadStrict(l.StateDict(), d)
}
