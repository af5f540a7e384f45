package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/rlconvert/internal/tensor"
)

// Parameter name suffixes used to classify tensors.
const (
	WeightSuffix = ".weight"
	BiasSuffix   = ".bias"
)

// ErrMalformedDict is returned when a dictionary's weight and bias tensors do
// not describe a feed-forward network.
var ErrMalformedDict = errors.New("malformed parameter dictionary")

// ShapeError describes why shape inference failed.
type ShapeError struct {
	Weights []int // Collected weight element counts
	Biases  []int // Collected bias lengths
	Details string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v: %s (weights=%v biases=%v)", ErrMalformedDict, e.Details, e.Weights, e.Biases)
}

// Unwrap allows errors.Is(err, ErrMalformedDict).
func (e *ShapeError) Unwrap() error {
	return ErrMalformedDict
}

// ShapeDescriptor is the geometry of a feed-forward network.
type ShapeDescriptor struct {
	Inputs  int   // Width of the observation fed to the first layer
	Outputs int   // Width of the last layer
	Hidden  []int // Widths of every layer but the last, in depth order
}

// String renders the descriptor as "in=32 hidden=[64 64] out=8".
func (s ShapeDescriptor) String() string {
	hidden := make([]string, len(s.Hidden))
	for i, h := range s.Hidden {
		hidden[i] = strconv.Itoa(h)
	}
	return fmt.Sprintf("in=%d hidden=[%s] out=%d", s.Inputs, strings.Join(hidden, " "), s.Outputs)
}

// InferShape derives the network geometry from tensor sizes alone.
//
// Entries are scanned in order: the element count of every ".weight" tensor
// and the first-dimension length of every ".bias" tensor are collected. Then
//
//	inputs  = weights[0] / biases[0]
//	outputs = biases[last]
//	hidden  = biases[:last]
//
// A dictionary with a single layer yields an empty hidden list and treats
// that layer as both first and last.
func InferShape(d *Dict) (ShapeDescriptor, error) {
	var weights, biases []int
	d.Range(func(name string, t *tensor.Tensor) bool {
		switch {
		case strings.HasSuffix(name, WeightSuffix):
			weights = append(weights, t.NumElements())
		case strings.HasSuffix(name, BiasSuffix):
			biases = append(biases, t.Len())
		}
		return true
	})

	if len(weights) == 0 || len(biases) == 0 {
		return ShapeDescriptor{}, &ShapeError{Weights: weights, Biases: biases,
			Details: "no weight/bias tensors found"}
	}
	if len(weights) != len(biases) {
		return ShapeDescriptor{}, &ShapeError{Weights: weights, Biases: biases,
			Details: fmt.Sprintf("%d weight tensors but %d bias tensors", len(weights), len(biases))}
	}
	if biases[0] == 0 {
		return ShapeDescriptor{}, &ShapeError{Weights: weights, Biases: biases,
			Details: "first bias is empty"}
	}
	if weights[0]%biases[0] != 0 {
		return ShapeDescriptor{}, &ShapeError{Weights: weights, Biases: biases,
			Details: fmt.Sprintf("first weight size %d is not a multiple of first bias length %d", weights[0], biases[0])}
	}

	last := len(biases) - 1
	hidden := make([]int, last)
	copy(hidden, biases[:last])
	return ShapeDescriptor{
		Inputs:  weights[0] / biases[0],
		Outputs: biases[last],
		Hidden:  hidden,
	}, nil
}
