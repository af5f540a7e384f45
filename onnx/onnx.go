// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx runs compiled PPO networks (POLICY.LT and CRITIC.LT).
//
// Compiled networks are ONNX graphs with a single float32 input named "obs"
// of shape [batch, observations] and a single output. The policy outputs
// action probabilities, the critic one value per observation.
//
// # Supported Features
//
//   - ONNX format parsing (protobuf wire format)
//   - Float32, float64, float16 and bfloat16 initializers
//   - The feed-forward operators used by compiled policies
//   - Model metadata (network kind, layer sizes, conversion id)
//
// # Example Usage
//
//	model, err := onnx.Load("CPP_CHECKPOINT/POLICY.LT")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Two observations of three values each.
//	probs, err := model.Predict([]float32{0.1, 0.2, 0.3, 1, 0, -1}, 2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Use [ListSupportedOps] to get the complete list of supported operators.
package onnx

import (
	"fmt"

	internalonnx "github.com/born-ml/rlconvert/internal/onnx"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Model is a compiled network ready for inference.
type Model struct {
	proto   *internalonnx.ModelProto
	session *internalonnx.Session
}

// Load loads a compiled network from a file path.
//
// The graph is decoded and every operator is checked, so an unsupported
// graph fails here rather than at the first Predict.
func Load(path string) (*Model, error) {
	m, err := internalonnx.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newModel(m)
}

// LoadFromBytes loads a compiled network from raw bytes.
//
// Example:
//
//	data, _ := os.ReadFile("CRITIC.LT")
//	critic, err := onnx.LoadFromBytes(data)
func LoadFromBytes(data []byte) (*Model, error) {
	m, err := internalonnx.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return newModel(m)
}

func newModel(m *internalonnx.ModelProto) (*Model, error) {
	s, err := internalonnx.NewSession(m)
	if err != nil {
		return nil, err
	}
	return &Model{proto: m, session: s}, nil
}

// InputNames returns the names of the graph inputs.
func (m *Model) InputNames() []string { return m.session.InputNames() }

// OutputNames returns the names of the graph outputs.
func (m *Model) OutputNames() []string { return m.session.OutputNames() }

// OpsetVersion returns the default-domain opset the graph was written for.
func (m *Model) OpsetVersion() int64 { return m.proto.OpsetVersion() }

// Metadata returns the model's metadata_props.
//
// Graphs written by rlconvert carry "model_kind" ("policy" or "value_net"),
// "inputs", "outputs", "hidden_sizes" and "conversion_id".
func (m *Model) Metadata() map[string]string { return m.proto.Metadata() }

// Predict runs a batch of observations, laid out row by row, through the
// network and returns the outputs in the same layout.
func (m *Model) Predict(obs []float32, batch int) ([]float32, error) {
	if batch <= 0 || len(obs) == 0 || len(obs)%batch != 0 {
		return nil, fmt.Errorf("cannot split %d observation values into a batch of %d", len(obs), batch)
	}
	input, err := tensor.FromSlice(obs, tensor.Shape{batch, len(obs) / batch})
	if err != nil {
		return nil, err
	}
	out, err := m.session.Run(input)
	if err != nil {
		return nil, err
	}
	return out.Data(), nil
}

// ListSupportedOps returns the operators Predict can evaluate.
func ListSupportedOps() []string {
	return internalonnx.SupportedOps()
}
