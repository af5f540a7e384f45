// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the Adam optimizer and its checkpoint files.
//
// # Overview
//
// Optimizer files (PPO_POLICY_OPTIMIZER.pt, PPO_VALUE_NET_OPTIMIZER.pt) hold
// Adam's hyperparameters, the names of the parameters it updates, and its
// per-parameter state: step count and first and second moments. A freshly
// created Adam has no per-parameter state yet.
//
// # Basic Usage
//
//	opt := optim.NewAdam(policy, optim.DefaultAdamConfig())
//	if _, err := optim.SaveAdamState("PPO_POLICY_OPTIMIZER.pt", opt, nil); err != nil {
//	    log.Fatal(err)
//	}
package optim

import (
	"github.com/born-ml/rlconvert/internal/nn"
	"github.com/born-ml/rlconvert/internal/optim"
)

// Optimizer updates parameters from their gradients.
type Optimizer = optim.Optimizer

// Adam is the Adam optimizer.
type Adam = optim.Adam

// AdamConfig holds Adam's hyperparameters.
type AdamConfig = optim.AdamConfig

// State is a saved Adam state.
type State = optim.State

// DefaultAdamConfig returns lr 1e-3, betas (0.9, 0.999) and eps 1e-8.
func DefaultAdamConfig() AdamConfig {
	return optim.DefaultAdamConfig()
}

// NewAdam returns an Adam optimizer over m's parameters.
func NewAdam(m nn.Module, config AdamConfig) *Adam {
	return optim.NewAdam(m, config)
}

// SaveAdamState writes a's state to path and returns the file size.
func SaveAdamState(path string, a *Adam, metadata map[string]string) (int64, error) {
	return optim.SaveAdamState(path, a, metadata)
}

// LoadAdamState reads an optimizer file written by SaveAdamState.
func LoadAdamState(path string) (*State, error) {
	return optim.LoadAdamState(path)
}
