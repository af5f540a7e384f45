package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

func sampleDict() *params.Dict {
	d := params.NewDict()
	// Deliberately not alphabetical: order must survive the round trip.
	d.Set("model.2.weight", must.M1(tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})))
	d.Set("model.2.bias", must.M1(tensor.FromSlice([]float32{-1, 1}, tensor.Shape{2})))
	d.Set("model.0.weight", must.M1(tensor.FromSlice([]float32{0.5}, tensor.Shape{1, 1})))
	d.Set("model.0.bias", tensor.Zeros(tensor.Shape{1}))
	return d
}

// rawFile assembles a SafeTensors file from a hand-written header.
func rawFile(t *testing.T, header map[string]any, body []byte) []byte {
	t.Helper()
	h, err := json.Marshal(header)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(h))))
	buf.Write(h)
	buf.Write(body)
	return buf.Bytes()
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PPO_POLICY.pt")
	d := sampleDict()

	n, err := WriteFile(path, d, map[string]string{MetaKind: KindPolicy, MetaFormat: FormatNative})
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), n)

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, d.Keys(), f.Tensors.Keys())
	assert.Equal(t, n, f.Size)
	assert.Equal(t, KindPolicy, f.Metadata[MetaKind])
	assert.Len(t, f.Metadata[MetaChecksum], 64)

	d.Range(func(name string, want *tensor.Tensor) bool {
		got, ok := f.Tensors.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, want.Shape(), got.Shape(), name)
		assert.Equal(t, want.Data(), got.Data(), name)
		return true
	})
}

func TestChecksumTamper(t *testing.T) {
	var buf bytes.Buffer
	_, err := Encode(&buf, sampleDict(), nil)
	require.NoError(t, err)

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF
	_, err = Decode(data)
	assert.True(t, errors.Is(err, ErrChecksumMismatch))
}

func TestDecodeWithoutChecksum(t *testing.T) {
	body := tensor.EncodeFloat16([]float32{1, 2, 3})
	data := rawFile(t, map[string]any{
		"w": SafeTensorInfo{DType: SafeTensorsF16, Shape: []int64{3}, DataOffsets: [2]int64{0, 6}},
	}, body)

	f, err := Decode(data)
	require.NoError(t, err)
	w, ok := f.Tensors.Get("w")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, w.Data())
	assert.NotNil(t, f.Metadata)
}

func TestDecodeOrdersByOffset(t *testing.T) {
	body := tensor.EncodeFloat32([]float32{1, 2, 3})
	data := rawFile(t, map[string]any{
		"z.weight": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int64{1}, DataOffsets: [2]int64{0, 4}},
		"a.weight": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int64{1}, DataOffsets: [2]int64{8, 12}},
		"m.weight": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int64{1}, DataOffsets: [2]int64{4, 8}},
	}, body)

	f, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"z.weight", "m.weight", "a.weight"}, f.Tensors.Keys())
}

func TestDecodeValidation(t *testing.T) {
	body := make([]byte, 16)
	cases := map[string]map[string]any{
		"out of bounds": {
			"w": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int64{8}, DataOffsets: [2]int64{0, 32}},
		},
		"overlap": {
			"a": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int64{2}, DataOffsets: [2]int64{0, 8}},
			"b": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int64{2}, DataOffsets: [2]int64{4, 12}},
		},
		"size mismatch": {
			"w": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int64{3}, DataOffsets: [2]int64{0, 8}},
		},
		"bad name": {
			"../w": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int64{1}, DataOffsets: [2]int64{0, 4}},
		},
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(rawFile(t, header, body))
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte{1, 2})
	assert.ErrorIs(t, err, ErrTruncated)

	huge := make([]byte, 8)
	binary.LittleEndian.PutUint64(huge, MaxHeaderSize+1)
	_, err = Decode(huge)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)

	short := make([]byte, 8)
	binary.LittleEndian.PutUint64(short, 100)
	_, err = Decode(short)
	assert.ErrorIs(t, err, ErrTruncated)

	notJSON := append(make([]byte, 8), []byte("{{")...)
	binary.LittleEndian.PutUint64(notJSON, 2)
	_, err = Decode(notJSON)
	assert.ErrorIs(t, err, ErrInvalidHeaderJSON)

	intData := rawFile(t, map[string]any{
		"step": map[string]any{"dtype": "I64", "shape": []int64{}, "data_offsets": []int64{0, 8}},
	}, make([]byte, 8))
	_, err = Decode(intData)
	assert.ErrorIs(t, err, ErrUnsupportedDType)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.pt"))
	assert.Error(t, err)
}

func TestEncodeRejectsBadNames(t *testing.T) {
	d := params.NewDict()
	d.Set("a/b", tensor.Zeros(tensor.Shape{1}))
	_, err := Encode(&bytes.Buffer{}, d, nil)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestEmptyDict(t *testing.T) {
	var buf bytes.Buffer
	_, err := Encode(&buf, params.NewDict(), map[string]string{MetaKind: KindOptimizer})
	require.NoError(t, err)
	f, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 0, f.Tensors.Len())
	assert.Equal(t, KindOptimizer, f.Metadata[MetaKind])
}
