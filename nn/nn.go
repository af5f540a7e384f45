// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the PPO networks stored in rlconvert checkpoints.
//
// # Overview
//
// This package contains:
//   - DiscreteFF: the policy, a feed-forward network ending in a softmax
//     over discrete actions
//   - ValueEstimator: the critic, the same layout ending in one linear output
//   - Reconstruct: rebuilds both networks from their parameter dictionaries
//
// Hidden layers use ReLU. Parameters are named "model.<i>.weight" and
// "model.<i>.bias", where i is the index of the layer in the network.
//
// # Basic Usage
//
//	policy, err := nn.NewDiscreteFF(107, 90, []int{256, 256}, tensor.CPU)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	probs, err := policy.Forward(obs)
package nn

import (
	"github.com/born-ml/rlconvert/internal/nn"
	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Module is the interface implemented by every network and layer.
type Module = nn.Module

// Parameter is a named trainable tensor.
type Parameter = nn.Parameter

// DiscreteFF is the policy network.
type DiscreteFF = nn.DiscreteFF

// ValueEstimator is the value (critic) network.
type ValueEstimator = nn.ValueEstimator

// ShapeDescriptor gives a network's input width, output width and hidden
// layer widths.
type ShapeDescriptor = params.ShapeDescriptor

// Models holds a rebuilt policy and value network.
type Models = nn.Models

// LoadError reports the parameters that did not match when loading a
// parameter dictionary strictly.
type LoadError = nn.LoadError

// ErrNoHiddenLayers is returned when a network is built without hidden layers.
var ErrNoHiddenLayers = nn.ErrNoHiddenLayers

// NewDiscreteFF builds a policy with freshly initialized weights.
func NewDiscreteFF(inputs, actions int, hidden []int, device tensor.Device) (*DiscreteFF, error) {
	return nn.NewDiscreteFF(inputs, actions, hidden, device)
}

// NewValueEstimator builds a value network with freshly initialized weights.
func NewValueEstimator(inputs int, hidden []int, device tensor.Device) (*ValueEstimator, error) {
	return nn.NewValueEstimator(inputs, hidden, device)
}

// Reconstruct infers both network shapes from their parameter dictionaries,
// builds matching networks and loads the parameters into them.
func Reconstruct(policy, value *params.Dict) (*Models, error) {
	return nn.Reconstruct(policy, value)
}

// ParameterNames returns the names of m's parameters in order.
func ParameterNames(m Module) []string {
	return nn.ParameterNames(m)
}
