package onnx

import (
	"fmt"

	"github.com/born-ml/rlconvert/internal/tensor"
)

// Session evaluates a decoded model on the CPU in float32.
// It supports the feed-forward operators compiled policies are built from.
type Session struct {
	model       *ModelProto
	weights     map[string]*tensor.Tensor
	inputNames  []string
	outputNames []string
	sortedNodes []NodeProto
}

// NewSession prepares m for evaluation.
//
// Every node's operator is checked up front, so an unsupported graph fails
// here rather than on the first Run.
func NewSession(m *ModelProto) (*Session, error) {
	graph := m.Graph
	if graph == nil {
		return nil, ErrNoGraph
	}

	s := &Session{model: m, weights: make(map[string]*tensor.Tensor, len(graph.Initializers))}
	for i := range graph.Initializers {
		init := &graph.Initializers[i]
		t, err := TensorFromProto(init)
		if err != nil {
			return nil, fmt.Errorf("failed to load initializer: %w", err)
		}
		s.weights[init.Name] = t
	}

	// Inputs are graph inputs minus initializers.
	for i := range graph.Inputs {
		if _, ok := s.weights[graph.Inputs[i].Name]; !ok {
			s.inputNames = append(s.inputNames, graph.Inputs[i].Name)
		}
	}
	for i := range graph.Outputs {
		s.outputNames = append(s.outputNames, graph.Outputs[i].Name)
	}

	for i := range graph.Nodes {
		if _, ok := operators[graph.Nodes[i].OpType]; !ok {
			return nil, fmt.Errorf("node %q: %w: %s", graph.Nodes[i].Name, ErrUnsupportedOperator, graph.Nodes[i].OpType)
		}
	}
	s.sortedNodes = topologicalSort(graph.Nodes)
	return s, nil
}

// InputNames returns the names of the graph inputs that are not initializers.
func (s *Session) InputNames() []string {
	return s.inputNames
}

// OutputNames returns the names of the graph outputs.
func (s *Session) OutputNames() []string {
	return s.outputNames
}

// Run evaluates a single-input, single-output model.
func (s *Session) Run(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(s.inputNames) != 1 {
		return nil, fmt.Errorf("model has %d inputs, use RunNamed", len(s.inputNames))
	}
	if len(s.outputNames) != 1 {
		return nil, fmt.Errorf("model has %d outputs, use RunNamed", len(s.outputNames))
	}
	outputs, err := s.RunNamed(map[string]*tensor.Tensor{s.inputNames[0]: input})
	if err != nil {
		return nil, err
	}
	return outputs[s.outputNames[0]], nil
}

// RunNamed evaluates the graph with named inputs and returns every graph output.
func (s *Session) RunNamed(inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
	values := make(map[string]*tensor.Tensor, len(s.weights)+len(inputs))
	for name, t := range s.weights {
		values[name] = t
	}
	for name, t := range inputs {
		values[name] = t
	}
	for _, name := range s.inputNames {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("missing input: %s", name)
		}
	}

	for i := range s.sortedNodes {
		node := &s.sortedNodes[i]
		args := make([]*tensor.Tensor, len(node.Inputs))
		for j, name := range node.Inputs {
			if name == "" {
				continue // optional input not provided
			}
			t, ok := values[name]
			if !ok {
				return nil, fmt.Errorf("node %s: missing input %s", node.Name, name)
			}
			args[j] = t
		}

		out, err := operators[node.OpType](node, args)
		if err != nil {
			return nil, fmt.Errorf("node %s (%s): %w", node.Name, node.OpType, err)
		}
		if len(node.Outputs) > 0 {
			values[node.Outputs[0]] = out
		}
	}

	result := make(map[string]*tensor.Tensor, len(s.outputNames))
	for _, name := range s.outputNames {
		t, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("missing output: %s", name)
		}
		result[name] = t
	}
	return result, nil
}

// topologicalSort sorts nodes so dependencies run before dependents.
func topologicalSort(nodes []NodeProto) []NodeProto {
	outputToNode := make(map[string]int)
	for i := range nodes {
		for _, output := range nodes[i].Outputs {
			outputToNode[output] = i
		}
	}

	visited := make([]bool, len(nodes))
	result := make([]NodeProto, 0, len(nodes))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, input := range nodes[i].Inputs {
			if dep, ok := outputToNode[input]; ok {
				visit(dep)
			}
		}
		result = append(result, nodes[i])
	}
	for i := range nodes {
		visit(i)
	}
	return result
}
