package onnx

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Unmarshal decodes a ModelProto from protobuf wire format.
// Fields this package does not model are skipped.
func Unmarshal(data []byte) (*ModelProto, error) {
	m := &ModelProto{}
	if err := readModelProto(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return m, nil
}

// field is one decoded (tag, value) pair.
type field struct {
	num protowire.Number
	typ protowire.Type
	v   uint64 // Varint, Fixed32 and Fixed64 payloads
	b   []byte // Bytes payload
}

func (f field) wrongType(want string) error {
	return fmt.Errorf("%w: field %d has wire type %d, want %s", ErrMalformed, f.num, f.typ, want)
}

func (f field) bytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, f.wrongType("bytes")
	}
	return f.b, nil
}

func (f field) str() (string, error) {
	b, err := f.bytes()
	return string(b), err
}

func (f field) varint() (int64, error) {
	if f.typ != protowire.VarintType {
		return 0, f.wrongType("varint")
	}
	return int64(f.v), nil
}

// int64s accepts both packed and unpacked repeated varints.
func (f field) int64s(dst []int64) ([]int64, error) {
	switch f.typ {
	case protowire.VarintType:
		return append(dst, int64(f.v)), nil
	case protowire.BytesType:
		b := f.b
		for len(b) > 0 {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireError(n)
			}
			dst = append(dst, int64(v))
			b = b[n:]
		}
		return dst, nil
	default:
		return nil, f.wrongType("varint")
	}
}

// float32s accepts both packed and unpacked repeated floats.
func (f field) float32s(dst []float32) ([]float32, error) {
	switch f.typ {
	case protowire.Fixed32Type:
		return append(dst, math.Float32frombits(uint32(f.v))), nil
	case protowire.BytesType:
		if len(f.b)%4 != 0 {
			return nil, fmt.Errorf("%w: packed float field %d has %d bytes", ErrMalformed, f.num, len(f.b))
		}
		for b := f.b; len(b) > 0; b = b[4:] {
			v, _ := protowire.ConsumeFixed32(b)
			dst = append(dst, math.Float32frombits(v))
		}
		return dst, nil
	default:
		return nil, f.wrongType("fixed32")
	}
}

// float64s accepts both packed and unpacked repeated doubles.
func (f field) float64s(dst []float64) ([]float64, error) {
	switch f.typ {
	case protowire.Fixed64Type:
		return append(dst, math.Float64frombits(f.v)), nil
	case protowire.BytesType:
		if len(f.b)%8 != 0 {
			return nil, fmt.Errorf("%w: packed double field %d has %d bytes", ErrMalformed, f.num, len(f.b))
		}
		for b := f.b; len(b) > 0; b = b[8:] {
			v, _ := protowire.ConsumeFixed64(b)
			dst = append(dst, math.Float64frombits(v))
		}
		return dst, nil
	default:
		return nil, f.wrongType("fixed64")
	}
}

func wireError(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}

// readFields walks a message and calls fn for each field.
func readFields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.v = uint64(v)
		case protowire.Fixed64Type:
			f.v, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return wireError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func readModelProto(data []byte, m *ModelProto) error {
	return readFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1: // ir_version
			m.IRVersion, err = f.varint()
		case 2: // producer_name
			m.ProducerName, err = f.str()
		case 3: // producer_version
			m.ProducerVersion, err = f.str()
		case 4: // domain
			m.Domain, err = f.str()
		case 5: // model_version
			m.ModelVersion, err = f.varint()
		case 6: // doc_string
			m.DocString, err = f.str()
		case 7: // graph
			var b []byte
			if b, err = f.bytes(); err == nil {
				m.Graph = &GraphProto{}
				err = readGraphProto(b, m.Graph)
			}
		case 8: // opset_import
			var b []byte
			if b, err = f.bytes(); err == nil {
				var opset OperatorSetID
				err = readOperatorSetID(b, &opset)
				m.OpsetImport = append(m.OpsetImport, opset)
			}
		case 14: // metadata_props
			var b []byte
			if b, err = f.bytes(); err == nil {
				var entry StringStringEntry
				err = readStringStringEntry(b, &entry)
				m.MetadataProps = append(m.MetadataProps, entry)
			}
		}
		return err
	})
}

//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func readGraphProto(data []byte, g *GraphProto) error {
	return readFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1: // node
			var b []byte
			if b, err = f.bytes(); err == nil {
				var node NodeProto
				err = readNodeProto(b, &node)
				g.Nodes = append(g.Nodes, node)
			}
		case 2: // name
			g.Name, err = f.str()
		case 5: // initializer
			var b []byte
			if b, err = f.bytes(); err == nil {
				var t TensorProto
				err = readTensorProto(b, &t)
				g.Initializers = append(g.Initializers, t)
			}
		case 10: // doc_string
			g.DocString, err = f.str()
		case 11, 12, 13: // input, output, value_info
			var b []byte
			if b, err = f.bytes(); err == nil {
				var v ValueInfoProto
				err = readValueInfoProto(b, &v)
				switch f.num {
				case 11:
					g.Inputs = append(g.Inputs, v)
				case 12:
					g.Outputs = append(g.Outputs, v)
				default:
					g.ValueInfo = append(g.ValueInfo, v)
				}
			}
		}
		return err
	})
}

func readNodeProto(data []byte, n *NodeProto) error {
	return readFields(data, func(f field) error {
		var err error
		var s string
		switch f.num {
		case 1: // input
			if s, err = f.str(); err == nil {
				n.Inputs = append(n.Inputs, s)
			}
		case 2: // output
			if s, err = f.str(); err == nil {
				n.Outputs = append(n.Outputs, s)
			}
		case 3: // name
			n.Name, err = f.str()
		case 4: // op_type
			n.OpType, err = f.str()
		case 5: // attribute
			var b []byte
			if b, err = f.bytes(); err == nil {
				var a AttributeProto
				err = readAttributeProto(b, &a)
				n.Attributes = append(n.Attributes, a)
			}
		case 6: // doc_string
			n.DocString, err = f.str()
		case 7: // domain
			n.Domain, err = f.str()
		}
		return err
	})
}

//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func readAttributeProto(data []byte, a *AttributeProto) error {
	return readFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1: // name
			a.Name, err = f.str()
		case 2: // f
			if f.typ != protowire.Fixed32Type {
				return f.wrongType("fixed32")
			}
			a.F = math.Float32frombits(uint32(f.v))
		case 3: // i
			a.I, err = f.varint()
		case 4: // s
			a.S, err = f.bytes()
		case 5: // t
			var b []byte
			if b, err = f.bytes(); err == nil {
				a.T = &TensorProto{}
				err = readTensorProto(b, a.T)
			}
		case 7: // floats
			a.Floats, err = f.float32s(a.Floats)
		case 8: // ints
			a.Ints, err = f.int64s(a.Ints)
		case 9: // strings
			var b []byte
			if b, err = f.bytes(); err == nil {
				a.Strings = append(a.Strings, b)
			}
		case 13: // doc_string
			a.DocString, err = f.str()
		case 20: // type
			var v int64
			v, err = f.varint()
			a.Type = int32(v)
		}
		return err
	})
}

//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func readTensorProto(data []byte, t *TensorProto) error {
	return readFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1: // dims
			t.Dims, err = f.int64s(t.Dims)
		case 2: // data_type
			var v int64
			v, err = f.varint()
			t.DataType = int32(v)
		case 4: // float_data
			t.FloatData, err = f.float32s(t.FloatData)
		case 5: // int32_data
			var vs []int64
			if vs, err = f.int64s(nil); err == nil {
				for _, v := range vs {
					t.Int32Data = append(t.Int32Data, int32(v))
				}
			}
		case 7: // int64_data
			t.Int64Data, err = f.int64s(t.Int64Data)
		case 8: // name
			t.Name, err = f.str()
		case 9: // raw_data
			t.RawData, err = f.bytes()
		case 10: // double_data
			t.DoubleData, err = f.float64s(t.DoubleData)
		case 12: // doc_string
			t.DocString, err = f.str()
		}
		return err
	})
}

func readValueInfoProto(data []byte, v *ValueInfoProto) error {
	return readFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1: // name
			v.Name, err = f.str()
		case 2: // type
			var b []byte
			if b, err = f.bytes(); err == nil {
				v.Type = &TypeProto{}
				err = readTypeProto(b, v.Type)
			}
		case 3: // doc_string
			v.DocString, err = f.str()
		}
		return err
	})
}

func readTypeProto(data []byte, t *TypeProto) error {
	return readFields(data, func(f field) error {
		if f.num != 1 { // tensor_type
			return nil
		}
		b, err := f.bytes()
		if err != nil {
			return err
		}
		t.TensorType = &TensorTypeProto{}
		return readFields(b, func(f field) error {
			var err error
			switch f.num {
			case 1: // elem_type
				var v int64
				v, err = f.varint()
				t.TensorType.ElemType = int32(v)
			case 2: // shape
				var b []byte
				if b, err = f.bytes(); err == nil {
					t.TensorType.Shape = &TensorShapeProto{}
					err = readTensorShapeProto(b, t.TensorType.Shape)
				}
			}
			return err
		})
	})
}

func readTensorShapeProto(data []byte, s *TensorShapeProto) error {
	return readFields(data, func(f field) error {
		if f.num != 1 { // dim
			return nil
		}
		b, err := f.bytes()
		if err != nil {
			return err
		}
		var d DimensionProto
		err = readFields(b, func(f field) error {
			var err error
			switch f.num {
			case 1: // dim_value
				d.DimValue, err = f.varint()
			case 2: // dim_param
				d.DimParam, err = f.str()
			}
			return err
		})
		s.Dims = append(s.Dims, d)
		return err
	})
}

func readOperatorSetID(data []byte, o *OperatorSetID) error {
	return readFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1: // domain
			o.Domain, err = f.str()
		case 2: // version
			o.Version, err = f.varint()
		}
		return err
	})
}

func readStringStringEntry(data []byte, e *StringStringEntry) error {
	return readFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1: // key
			e.Key, err = f.str()
		case 2: // value
			e.Value, err = f.str()
		}
		return err
	})
}
