package params

import (
	"errors"
	"strconv"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/rlconvert/internal/tensor"
)

func zeros(shape ...int) *tensor.Tensor {
	return tensor.Zeros(tensor.Shape(shape))
}

// mlp builds a dictionary shaped like a Sequential of Linear layers.
func mlp(prefix string, inputs int, widths ...int) *Dict {
	d := NewDict()
	prev := inputs
	for i, w := range widths {
		idx := strconv.Itoa(2 * i)
		d.Set(prefix+idx+".weight", zeros(w, prev))
		d.Set(prefix+idx+".bias", zeros(w))
		prev = w
	}
	return d
}

func TestDictOrder(t *testing.T) {
	d := NewDict()
	d.Set("b", zeros(1))
	d.Set("a", zeros(2))
	d.Set("c", zeros(3))
	d.Set("b", zeros(4))

	assert.Equal(t, []string{"b", "a", "c"}, d.Keys())
	b, ok := d.Get("b")
	require.True(t, ok)
	assert.Equal(t, 4, b.NumElements())
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 9, d.NumParameters())
	assert.False(t, d.Has("z"))

	var seen []string
	d.Range(func(name string, _ *tensor.Tensor) bool {
		seen = append(seen, name)
		return len(seen) < 2
	})
	assert.Equal(t, []string{"b", "a"}, seen)
}

func TestDictClone(t *testing.T) {
	d := NewDict()
	d.Set("w", must.M1(tensor.FromSlice([]float32{1, 2}, tensor.Shape{2})))
	c := d.Clone()
	orig, _ := d.Get("w")
	orig.Data()[0] = 9
	cl, _ := c.Get("w")
	assert.Equal(t, float32(1), cl.Data()[0])
}

func TestInferShape_TwoLayerPolicy(t *testing.T) {
	const n = 8
	d := NewDict()
	d.Set("layer0.weight", zeros(64, 32))
	d.Set("layer0.bias", zeros(64))
	d.Set("layer1.weight", zeros(n, 64))
	d.Set("layer1.bias", zeros(n))

	shape, err := InferShape(d)
	require.NoError(t, err)
	assert.Equal(t, 32, shape.Inputs)
	assert.Equal(t, n, shape.Outputs)
	assert.Equal(t, []int{64}, shape.Hidden)
	assert.Equal(t, "in=32 hidden=[64] out=8", shape.String())
}

func TestInferShape_HiddenLength(t *testing.T) {
	cases := [][]int{
		{16},
		{64, 1},
		{256, 256, 90},
		{512, 512, 256, 128, 1},
	}
	for _, widths := range cases {
		d := mlp("model.", 107, widths...)
		shape, err := InferShape(d)
		require.NoError(t, err)
		assert.Len(t, shape.Hidden, len(widths)-1)
		assert.Equal(t, widths[len(widths)-1], shape.Outputs)
		assert.Equal(t, widths[:len(widths)-1], shape.Hidden)
		assert.Equal(t, 107, shape.Inputs)
	}
}

func TestInferShape_SingleLayer(t *testing.T) {
	d := NewDict()
	d.Set("0.weight", zeros(4, 10))
	d.Set("0.bias", zeros(4))
	shape, err := InferShape(d)
	require.NoError(t, err)
	assert.Empty(t, shape.Hidden)
	assert.Equal(t, 4, shape.Outputs)
	assert.Equal(t, 10, shape.Inputs)
}

func TestInferShape_IgnoresOtherKeys(t *testing.T) {
	d := mlp("", 3, 5, 2)
	d.Set("running_mean", zeros(100))
	shape, err := InferShape(d)
	require.NoError(t, err)
	assert.Equal(t, ShapeDescriptor{Inputs: 3, Outputs: 2, Hidden: []int{5}}, shape)
}

func TestInferShape_Malformed(t *testing.T) {
	empty := NewDict()

	unpaired := NewDict()
	unpaired.Set("0.weight", zeros(4, 3))
	unpaired.Set("0.bias", zeros(4))
	unpaired.Set("2.weight", zeros(2, 4))

	inexact := NewDict()
	inexact.Set("0.weight", zeros(10))
	inexact.Set("0.bias", zeros(3))

	emptyBias := NewDict()
	emptyBias.Set("0.weight", zeros(0, 3))
	emptyBias.Set("0.bias", zeros(0))

	for name, d := range map[string]*Dict{
		"empty": empty, "unpaired": unpaired, "inexact": inexact, "empty bias": emptyBias,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := InferShape(d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedDict))
			var shapeErr *ShapeError
			assert.ErrorAs(t, err, &shapeErr)
		})
	}
}

func TestNormalize_NoDoublePrefix(t *testing.T) {
	d := NewDict()
	d.Set("layers.0.weight", zeros(1))

	once := Normalize(d)
	twice := Normalize(once)
	assert.Equal(t, []string{"model.layers.0.weight"}, once.Keys())
	assert.Equal(t, []string{"model.layers.0.weight"}, twice.Keys())
}

func TestNormalize_IdempotentAndOrdered(t *testing.T) {
	d := NewDict()
	d.Set("0.weight", zeros(4, 3))
	d.Set("model.0.bias", zeros(4))
	d.Set("2.weight", zeros(2, 4))
	d.Set("2.bias", zeros(2))

	once := Normalize(d)
	assert.Equal(t, []string{"model.0.weight", "model.0.bias", "model.2.weight", "model.2.bias"}, once.Keys())
	assert.Equal(t, once.Keys(), Normalize(once).Keys())

	// Tensors are shared, not copied.
	src, _ := d.Get("0.weight")
	dst, _ := once.Get("model.0.weight")
	assert.Same(t, src, dst)
}

func TestNormalizeWithPrefix(t *testing.T) {
	d := NewDict()
	d.Set("modelx.w", zeros(1))
	out := NormalizeWithPrefix(d, "model")
	assert.Equal(t, []string{"model.modelx.w"}, out.Keys())
}
