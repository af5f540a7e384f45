// Package nn implements the feed-forward modules used by the PPO policy and
// value networks, and rebuilds them from bare parameter dictionaries.
//
// This package provides:
//   - Module interface: Forward, Parameters and state dict access
//   - Parameter: a named trainable tensor
//   - Linear, ReLU, Tanh, Softmax: the layers the fixed architecture uses
//   - Sequential: container whose children are addressed by index
//   - DiscreteFF and ValueEstimator: the policy and value-function networks
//   - Reconstruct: shape inference + instantiation + strict loading
//
// Parameter naming follows PyTorch's nn.Module convention so dictionaries
// written by training code load without renaming: a Sequential names its
// children by position ("0.weight", "2.bias"), and the policy and value
// networks hold that Sequential in a field called "model".
package nn

import (
	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Module is the base interface for all neural network components.
type Module interface {
	// Forward computes the output of the module given an input tensor
	// with shape [batch, features].
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)

	// Parameters returns all trainable parameters of this module, in the
	// same order as the keys of StateDict.
	//
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter

	// StateDict returns the module's parameters keyed by dotted name.
	// The tensors are the live parameter tensors, not copies.
	StateDict() *params.Dict

	// LoadStateDict copies values from d into the module's parameters.
	// Loading is strict: the key sets must match exactly and every shape
	// must agree.
	LoadStateDict(d *params.Dict) error
}

// ParameterNames returns the dotted names of m's parameters, aligned with
// m.Parameters().
func ParameterNames(m Module) []string {
	return m.StateDict().Keys()
}

// withPrefix returns d with every key prefixed by prefix + ".".
func withPrefix(d *params.Dict, prefix string) *params.Dict {
	out := params.NewDict()
	d.Range(func(name string, t *tensor.Tensor) bool {
		out.Set(prefix+"."+name, t)
		return true
	})
	return out
}
