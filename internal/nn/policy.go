package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// ErrNoHiddenLayers is returned when a network is requested without hidden layers.
// The policy and value architectures always start with a Linear+ReLU block.
var ErrNoHiddenLayers = errors.New("at least one hidden layer is required")

// mlp builds Linear(in,h0), ReLU, Linear(h0,h1), ReLU, ..., Linear(hN,out).
func mlp(inputs, outputs int, hidden []int) (*Sequential, error) {
	if len(hidden) == 0 {
		return nil, ErrNoHiddenLayers
	}
	seq := NewSequential(NewLinear(inputs, hidden[0]), NewReLU())
	prev := hidden[0]
	for _, size := range hidden[1:] {
		seq.Add(NewLinear(prev, size))
		seq.Add(NewReLU())
		prev = size
	}
	seq.Add(NewLinear(prev, outputs))
	return seq, nil
}

// DiscreteFF is the feed-forward policy for discrete action spaces.
//
// Its "model" field is a Sequential ending in Softmax(dim=-1), so Forward
// returns action probabilities. Parameter names are "model.<index>.<param>".
type DiscreteFF struct {
	inputs  int
	outputs int
	hidden  []int
	device  tensor.Device
	model   *Sequential
}

// NewDiscreteFF creates a policy with the given observation width, action
// count and hidden layer widths.
func NewDiscreteFF(inputs, nActions int, hidden []int, device tensor.Device) (*DiscreteFF, error) {
	seq, err := mlp(inputs, nActions, hidden)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	seq.Add(NewSoftmax(-1))
	return &DiscreteFF{
		inputs:  inputs,
		outputs: nActions,
		hidden:  append([]int(nil), hidden...),
		device:  device,
		model:   seq,
	}, nil
}

// Model returns the inner Sequential.
func (p *DiscreteFF) Model() *Sequential { return p.model }

// Device returns the device the parameters were placed on.
func (p *DiscreteFF) Device() tensor.Device { return p.device }

// Shape returns the geometry the policy was built with.
func (p *DiscreteFF) Shape() params.ShapeDescriptor {
	return params.ShapeDescriptor{Inputs: p.inputs, Outputs: p.outputs, Hidden: append([]int(nil), p.hidden...)}
}

// Forward returns action probabilities for a batch of observations.
func (p *DiscreteFF) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return p.model.Forward(input)
}

// Parameters returns the parameters of the inner model.
func (p *DiscreteFF) Parameters() []*Parameter { return p.model.Parameters() }

// StateDict returns parameters named "model.<index>.<param>".
func (p *DiscreteFF) StateDict() *params.Dict {
	return withPrefix(p.model.StateDict(), params.ModelPrefix)
}

// LoadStateDict loads parameters named "model.<index>.<param>".
func (p *DiscreteFF) LoadStateDict(d *params.Dict) error {
	return loadStrict(p.StateDict(), d)
}

// ValueEstimator is the feed-forward value function. It always has a single output.
type ValueEstimator struct {
	inputs int
	hidden []int
	device tensor.Device
	model  *Sequential
}

// NewValueEstimator creates a value network with the given observation width
// and hidden layer widths.
func NewValueEstimator(inputs int, hidden []int, device tensor.Device) (*ValueEstimator, error) {
	seq, err := mlp(inputs, 1, hidden)
	if err != nil {
		return nil, fmt.Errorf("value estimator: %w", err)
	}
	return &ValueEstimator{
		inputs: inputs,
		hidden: append([]int(nil), hidden...),
		device: device,
		model:  seq,
	}, nil
}

// Model returns the inner Sequential.
func (v *ValueEstimator) Model() *Sequential { return v.model }

// Device returns the device the parameters were placed on.
func (v *ValueEstimator) Device() tensor.Device { return v.device }

// Shape returns the geometry the network was built with.
func (v *ValueEstimator) Shape() params.ShapeDescriptor {
	return params.ShapeDescriptor{Inputs: v.inputs, Outputs: 1, Hidden: append([]int(nil), v.hidden...)}
}

// Forward returns one value estimate per observation.
func (v *ValueEstimator) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return v.model.Forward(input)
}

// Parameters returns the parameters of the inner model.
func (v *ValueEstimator) Parameters() []*Parameter { return v.model.Parameters() }

// StateDict returns parameters named "model.<index>.<param>".
func (v *ValueEstimator) StateDict() *params.Dict {
	return withPrefix(v.model.StateDict(), params.ModelPrefix)
}

// LoadStateDict loads parameters named "model.<index>.<param>".
func (v *ValueEstimator) LoadStateDict(d *params.Dict) error {
	return loadStrict(v.StateDict(), d)
}
