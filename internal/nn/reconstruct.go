package nn

import (
	"fmt"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Models is a policy/value pair rebuilt from parameter dictionaries.
type Models struct {
	Policy      *DiscreteFF
	Value       *ValueEstimator
	PolicyShape params.ShapeDescriptor // As inferred from the policy dictionary
	ValueShape  params.ShapeDescriptor // As inferred from the value dictionary
}

// Reconstruct infers both network geometries, instantiates empty networks on
// the CPU and loads each dictionary into its network.
//
// The value network's width is fixed to one output; the inferred value output
// width is only reported, so a value dictionary with a wider last layer fails
// at load time with a size mismatch.
func Reconstruct(policy, value *params.Dict) (*Models, error) {
	policyShape, err := params.InferShape(policy)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	valueShape, err := params.InferShape(value)
	if err != nil {
		return nil, fmt.Errorf("value network: %w", err)
	}

	p, err := NewDiscreteFF(policyShape.Inputs, policyShape.Outputs, policyShape.Hidden, tensor.CPU)
	if err != nil {
		return nil, err
	}
	v, err := NewValueEstimator(valueShape.Inputs, valueShape.Hidden, tensor.CPU)
	if err != nil {
		return nil, err
	}

	if err := p.LoadStateDict(policy); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	if err := v.LoadStateDict(value); err != nil {
		return nil, fmt.Errorf("value network: %w", err)
	}

	return &Models{Policy: p, Value: v, PolicyShape: policyShape, ValueShape: valueShape}, nil
}
