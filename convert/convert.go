// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package convert converts PPO checkpoints between the native training format
// and compiled inference graphs.
//
// A native checkpoint folder holds:
//
//   - PPO_POLICY.pt: policy network parameters
//   - PPO_VALUE_NET.pt: value network parameters
//   - PPO_POLICY_OPTIMIZER.pt, PPO_VALUE_NET_OPTIMIZER.pt: Adam optimizer states
//
// A compiled checkpoint folder holds POLICY.LT and CRITIC.LT, self-contained
// ONNX graphs that take a batch of observations and return action
// probabilities (policy) or state values (critic).
//
// Network shapes are never configured: they are inferred from the parameter
// tensors found in the input files.
//
// # Example Usage
//
//	c := &convert.Converter{Root: "/opt/checkpoints"}
//	res, err := c.Run(ctx, convert.ToCompiled, "/data/run-42")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Output folder:", res.OutputDir)
//
// Converting back with [ToNative] writes the two networks plus freshly
// initialized optimizer states: optimizer moments are not stored in compiled
// graphs, so training resumes with a new Adam state.
package convert

import (
	internalconvert "github.com/born-ml/rlconvert/internal/convert"
)

// Mode selects the conversion direction.
type Mode = internalconvert.Mode

// Conversion modes.
const (
	// ToCompiled converts a native checkpoint into POLICY.LT and CRITIC.LT.
	ToCompiled = internalconvert.ToCompiled
	// ToNative converts POLICY.LT and CRITIC.LT into a native checkpoint.
	ToNative = internalconvert.ToNative
)

// Fixed checkpoint file and folder names.
const (
	PolicyFile          = internalconvert.PolicyFile
	ValueFile           = internalconvert.ValueFile
	PolicyOptimizerFile = internalconvert.PolicyOptimizerFile
	ValueOptimizerFile  = internalconvert.ValueOptimizerFile
	CompiledPolicyFile  = internalconvert.CompiledPolicyFile
	CompiledValueFile   = internalconvert.CompiledValueFile
	CompiledOutputDir   = internalconvert.CompiledOutputDir
	NativeOutputDir     = internalconvert.NativeOutputDir
)

// Converter converts checkpoint folders.
//
// Root is the folder in which CPP_CHECKPOINT or PYTHON_CHECKPOINT is created.
// An optional Observer is told about every artifact written.
type Converter = internalconvert.Converter

// Result summarizes a successful conversion.
type Result = internalconvert.Result

// Artifact is one file written by a conversion.
type Artifact = internalconvert.Artifact

// Observer receives progress notifications from a Converter.
type Observer = internalconvert.Observer

// MissingInputsError is returned by a ToNative conversion when POLICY.LT or
// CRITIC.LT is absent. Nothing is written in that case.
type MissingInputsError = internalconvert.MissingInputsError

// Entry describes one checkpoint file found by [Inspect].
type Entry = internalconvert.Entry

// ParseMode parses "to_cpp" or "to_python", ignoring case and surrounding
// whitespace.
func ParseMode(s string) (Mode, error) {
	return internalconvert.ParseMode(s)
}

// OutputDir returns the folder a conversion in mode writes into under root.
func OutputDir(root string, mode Mode) string {
	return internalconvert.OutputDir(root, mode)
}

// Inspect reports which checkpoint files exist in dir along with their
// network shapes and parameter counts.
//
// Example:
//
//	entries, err := convert.Inspect("/data/run-42")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range entries {
//	    if e.Exists {
//	        fmt.Println(e.Name, e.Shape)
//	    }
//	}
func Inspect(dir string) ([]Entry, error) {
	return internalconvert.Inspect(dir)
}
