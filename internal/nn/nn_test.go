package nn

import (
	"errors"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

func TestLinearForward(t *testing.T) {
	l := NewLinear(3, 2)
	require.NoError(t, l.Weight().Tensor().CopyFrom(must.M1(tensor.FromSlice(
		[]float32{1, 0, -1, 0.5, 0.5, 0.5}, tensor.Shape{2, 3}))))
	require.NoError(t, l.Bias().Tensor().CopyFrom(must.M1(tensor.FromSlice(
		[]float32{0.1, -1}, tensor.Shape{2}))))

	x := must.M1(tensor.FromSlice([]float32{1, 2, 3, -1, 0, 1}, tensor.Shape{2, 3}))
	y, err := l.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	assert.InDeltaSlice(t, []float32{-1.9, 2, -1.9, -1}, y.Data(), 1e-6)

	_, err = l.Forward(must.M1(tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2})))
	assert.Error(t, err)
	_, err = l.Forward(must.M1(tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3})))
	assert.Error(t, err)
}

func TestActivations(t *testing.T) {
	x := must.M1(tensor.FromSlice([]float32{-2, 0, 3, 1, 1, 1}, tensor.Shape{2, 3}))

	relu := must.M1(NewReLU().Forward(x))
	assert.Equal(t, []float32{0, 0, 3, 1, 1, 1}, relu.Data())
	assert.Equal(t, float32(-2), x.Data()[0], "input must not be modified")

	th := must.M1(NewTanh().Forward(x))
	assert.InDelta(t, -0.9640276, th.Data()[0], 1e-6)

	sm := must.M1(NewSoftmax(-1).Forward(x))
	for row := 0; row < 2; row++ {
		var sum float32
		for col := 0; col < 3; col++ {
			sum += sm.At(row, col)
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
	assert.InDelta(t, 1.0/3.0, sm.At(1, 0), 1e-6)

	_, err := NewSoftmax(0).Forward(x)
	assert.Error(t, err)
}

func TestSequentialNaming(t *testing.T) {
	seq := NewSequential(NewLinear(4, 8), NewReLU(), NewLinear(8, 2))
	assert.Equal(t, []string{"0.weight", "0.bias", "2.weight", "2.bias"}, seq.StateDict().Keys())
	assert.Len(t, seq.Parameters(), 4)
	assert.Equal(t, 3, seq.Len())
	assert.IsType(t, &ReLU{}, seq.Module(1))
	assert.Panics(t, func() { seq.Module(3) })
}

func TestDiscreteFFNaming(t *testing.T) {
	p, err := NewDiscreteFF(10, 5, []int{64, 32}, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"model.0.weight", "model.0.bias",
		"model.2.weight", "model.2.bias",
		"model.4.weight", "model.4.bias",
	}, ParameterNames(p))
	assert.Equal(t, 7, p.Model().Len())
	assert.IsType(t, &Softmax{}, p.Model().Module(6))
	assert.Equal(t, tensor.CPU, p.Device())

	w, ok := p.StateDict().Get("model.4.weight")
	require.True(t, ok)
	assert.Equal(t, tensor.Shape{5, 32}, w.Shape())
}

func TestValueEstimatorHasSingleOutput(t *testing.T) {
	v, err := NewValueEstimator(10, []int{16}, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Shape().Outputs)
	out, err := v.Forward(tensor.Zeros(tensor.Shape{3, 10}))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 1}, out.Shape())
}

func TestNoHiddenLayers(t *testing.T) {
	_, err := NewDiscreteFF(4, 2, nil, tensor.CPU)
	assert.ErrorIs(t, err, ErrNoHiddenLayers)
	_, err = NewValueEstimator(4, []int{}, tensor.CPU)
	assert.ErrorIs(t, err, ErrNoHiddenLayers)
}

func TestLoadStateDict_Strict(t *testing.T) {
	p := must.M1(NewDiscreteFF(3, 2, []int{4}, tensor.CPU))
	before := p.StateDict().Clone()

	bad := p.StateDict().Clone()
	renamed := params.NewDict()
	bad.Range(func(name string, tt *tensor.Tensor) bool {
		switch name {
		case "model.0.bias":
			renamed.Set("model.0.bias_extra", tt)
		case "model.2.weight":
			renamed.Set(name, tensor.Zeros(tensor.Shape{2, 5}))
		default:
			renamed.Set(name, tt)
		}
		return true
	})

	err := p.LoadStateDict(renamed)
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, []string{"model.0.bias"}, loadErr.Missing)
	assert.Equal(t, []string{"model.0.bias_extra"}, loadErr.Unexpected)
	require.Len(t, loadErr.Mismatched, 1)
	assert.Equal(t, "model.2.weight", loadErr.Mismatched[0].Name)
	assert.Contains(t, err.Error(), "size mismatch for model.2.weight")

	// A failed load leaves the parameters untouched.
	after := p.StateDict()
	before.Range(func(name string, tt *tensor.Tensor) bool {
		got, _ := after.Get(name)
		assert.Equal(t, tt.Data(), got.Data(), name)
		return true
	})
}

func TestReconstruct(t *testing.T) {
	srcPolicy := must.M1(NewDiscreteFF(12, 6, []int{32, 16}, tensor.CPU))
	srcValue := must.M1(NewValueEstimator(12, []int{24}, tensor.CPU))

	models, err := Reconstruct(srcPolicy.StateDict().Clone(), srcValue.StateDict().Clone())
	require.NoError(t, err)
	assert.Equal(t, params.ShapeDescriptor{Inputs: 12, Outputs: 6, Hidden: []int{32, 16}}, models.PolicyShape)
	assert.Equal(t, params.ShapeDescriptor{Inputs: 12, Outputs: 1, Hidden: []int{24}}, models.ValueShape)
	assert.Equal(t, tensor.CPU, models.Policy.Device())

	obs := tensor.Zeros(tensor.Shape{4, 12})
	for i := range obs.Data() {
		obs.Data()[i] = float32(i%7) - 3
	}
	want := must.M1(srcPolicy.Forward(obs))
	got := must.M1(models.Policy.Forward(obs))
	assert.InDeltaSlice(t, want.Data(), got.Data(), 1e-6)

	wantV := must.M1(srcValue.Forward(obs))
	gotV := must.M1(models.Value.Forward(obs))
	assert.InDeltaSlice(t, wantV.Data(), gotV.Data(), 1e-6)
}

func TestReconstruct_Failures(t *testing.T) {
	policy := must.M1(NewDiscreteFF(4, 3, []int{8}, tensor.CPU)).StateDict()
	value := must.M1(NewValueEstimator(4, []int{8}, tensor.CPU)).StateDict()

	// Keys without the "model." namespace do not load.
	bare := params.NewDict()
	must.M1(NewDiscreteFF(4, 3, []int{8}, tensor.CPU)).Model().StateDict().Range(func(name string, tt *tensor.Tensor) bool {
		bare.Set(name, tt)
		return true
	})
	_, err := Reconstruct(bare, value)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)

	// Single-layer dictionaries infer fine but cannot be instantiated.
	single := params.NewDict()
	single.Set("model.0.weight", tensor.Zeros(tensor.Shape{3, 4}))
	single.Set("model.0.bias", tensor.Zeros(tensor.Shape{3}))
	_, err = Reconstruct(single, value)
	assert.ErrorIs(t, err, ErrNoHiddenLayers)

	// A value network with more than one output fails on load.
	wide := must.M1(NewDiscreteFF(4, 2, []int{8}, tensor.CPU)).StateDict()
	_, err = Reconstruct(policy, wide)
	assert.ErrorAs(t, err, &loadErr)

	_, err = Reconstruct(params.NewDict(), value)
	assert.ErrorIs(t, err, params.ErrMalformedDict)
}
