package onnx

import (
	"fmt"
	"os"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// ReadFile reads and decodes an ONNX model from path.
func ReadFile(path string) (*ModelProto, error) {
	//nolint:gosec // G304: Path is provided by user, file inclusion is intentional for model loading
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	m, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile encodes m and writes it to path, returning the number of bytes written.
func WriteFile(path string, m *ModelProto) (int64, error) {
	data := Marshal(m)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: artifacts are meant to be shared
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return int64(len(data)), nil
}

// FloatTensor builds a FLOAT initializer holding t's values as raw_data.
func FloatTensor(name string, t *tensor.Tensor) TensorProto {
	dims := make([]int64, t.Rank())
	for i, d := range t.Shape() {
		dims[i] = int64(d)
	}
	return TensorProto{
		Name:     name,
		DataType: TensorProtoFloat,
		Dims:     dims,
		RawData:  t.Bytes(),
	}
}

// TensorFromProto widens an initializer to a float32 tensor.
// FLOAT, DOUBLE, FLOAT16 and BFLOAT16 element types are accepted.
func TensorFromProto(p *TensorProto) (*tensor.Tensor, error) {
	shape := make(tensor.Shape, len(p.Dims))
	for i, d := range p.Dims {
		shape[i] = int(d)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor %s: %w", p.Name, err)
	}

	var (
		dt   tensor.DataType
		raw  = p.RawData
		data []float32
	)
	switch p.DataType {
	case TensorProtoFloat:
		dt = tensor.Float32
		data = append([]float32(nil), p.FloatData...)
	case TensorProtoDouble:
		dt = tensor.Float64
		data = make([]float32, len(p.DoubleData))
		for i, v := range p.DoubleData {
			data[i] = float32(v)
		}
	case TensorProtoFloat16, TensorProtoBfloat16:
		dt = tensor.Float16
		if p.DataType == TensorProtoBfloat16 {
			dt = tensor.BFloat16
		}
		if len(raw) == 0 {
			// int32_data carries one 16-bit pattern per element.
			raw = make([]byte, 2*len(p.Int32Data))
			for i, v := range p.Int32Data {
				raw[2*i] = byte(v)
				raw[2*i+1] = byte(v >> 8)
			}
		}
	default:
		return nil, fmt.Errorf("tensor %s: %w: %d", p.Name, ErrUnsupportedDataType, p.DataType)
	}

	var (
		t   *tensor.Tensor
		err error
	)
	if len(raw) > 0 {
		t, err = tensor.FromBytes(dt, shape, raw)
	} else {
		t, err = tensor.New(shape, data)
	}
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", p.Name, err)
	}
	return t, nil
}

// Initializers returns the model's initializers as a parameter dictionary in
// graph order.
func Initializers(m *ModelProto) (*params.Dict, error) {
	if m.Graph == nil {
		return nil, ErrNoGraph
	}
	d := params.NewDict()
	for i := range m.Graph.Initializers {
		init := &m.Graph.Initializers[i]
		t, err := TensorFromProto(init)
		if err != nil {
			return nil, fmt.Errorf("failed to load initializer: %w", err)
		}
		d.Set(init.Name, t)
	}
	return d, nil
}
