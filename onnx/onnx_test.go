// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package onnx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/rlconvert/internal/export"
	"github.com/born-ml/rlconvert/internal/nn"
	internalonnx "github.com/born-ml/rlconvert/internal/onnx"
	"github.com/born-ml/rlconvert/internal/tensor"
	"github.com/born-ml/rlconvert/onnx"
)

func TestLoadAndPredict(t *testing.T) {
	policy := must.M1(nn.NewDiscreteFF(3, 2, []int{4}, tensor.CPU))
	path := filepath.Join(t.TempDir(), "POLICY.LT")
	must.M1(internalonnx.WriteFile(path, must.M1(export.TracePolicy(policy, "run-1"))))

	model, err := onnx.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{export.InputName}, model.InputNames())
	assert.Equal(t, []string{export.OutputName}, model.OutputNames())
	assert.Equal(t, int64(export.OpsetVersion), model.OpsetVersion())
	assert.Equal(t, "policy", model.Metadata()[export.MetaModelKind])
	assert.Equal(t, "run-1", model.Metadata()[export.MetaConversionID])

	obs := []float32{0.1, 0.2, 0.3, 1, 0, -1}
	got, err := model.Predict(obs, 2)
	require.NoError(t, err)
	want := must.M1(policy.Forward(must.M1(tensor.FromSlice(obs, tensor.Shape{2, 3}))))
	assert.InDeltaSlice(t, want.Data(), got, 1e-5)

	fromBytes, err := onnx.LoadFromBytes(must.M1(os.ReadFile(path)))
	require.NoError(t, err)
	again, err := fromBytes.Predict(obs, 2)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = model.Predict(obs, 4)
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := onnx.Load(filepath.Join(t.TempDir(), "missing.LT"))
	assert.Error(t, err)
	_, err = onnx.LoadFromBytes([]byte{0xFF, 0xFF})
	assert.Error(t, err)
}

func TestListSupportedOps(t *testing.T) {
	assert.Subset(t, onnx.ListSupportedOps(), []string{"Gemm", "Relu", "Tanh", "Softmax"})
}
