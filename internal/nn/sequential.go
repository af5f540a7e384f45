package nn

import (
	"fmt"
	"strconv"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input. Parameters are named
// by the child's position, so a Linear/ReLU/Linear stack exposes
// "0.weight", "0.bias", "2.weight", "2.bias".
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	output := input
	for i, module := range s.modules {
		var err error
		output, err = module.Forward(output)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
	}
	return output, nil
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential) Parameters() []*Parameter {
	var ps []*Parameter
	for _, module := range s.modules {
		ps = append(ps, module.Parameters()...)
	}
	return ps
}

// Add appends a module to the sequence.
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// StateDict returns parameters prefixed with their module index.
func (s *Sequential) StateDict() *params.Dict {
	d := params.NewDict()
	for i, module := range s.modules {
		withPrefix(module.StateDict(), strconv.Itoa(i)).Range(func(name string, t *tensor.Tensor) bool {
			d.Set(name, t)
			return true
		})
	}
	return d
}

// LoadStateDict loads parameters prefixed with their module index.
func (s *Sequential) LoadStateDict(d *params.Dict) error {
	return loadStrict(s.StateDict(), d)
}
