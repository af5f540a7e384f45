package onnx

// ONNX protobuf data structures. Only the fields this package reads or
// writes are modelled; unknown fields are skipped on decode.

// ModelProto represents an ONNX model.
type ModelProto struct {
	IRVersion       int64               // IR version (e.g., 7, 8, 9)
	OpsetImport     []OperatorSetID     // Opset version(s)
	ProducerName    string              // Framework name
	ProducerVersion string              // Framework version
	Domain          string              // Model domain
	ModelVersion    int64               // Model version number
	DocString       string              // Model description
	Graph           *GraphProto         // Computation graph
	MetadataProps   []StringStringEntry // Key-value metadata
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string           // Graph name
	Nodes        []NodeProto      // Operation nodes
	Inputs       []ValueInfoProto // Graph inputs
	Outputs      []ValueInfoProto // Graph outputs
	Initializers []TensorProto    // Weight tensors
	DocString    string           // Graph description
	ValueInfo    []ValueInfoProto // Intermediate tensor info
}

// NodeProto represents a single operation.
type NodeProto struct {
	Name       string           // Node name (optional)
	OpType     string           // Operation type (e.g., "Gemm", "Relu")
	Inputs     []string         // Input tensor names
	Outputs    []string         // Output tensor names
	Attributes []AttributeProto // Operation attributes
	Domain     string           // Custom domain (empty for default)
	DocString  string           // Node description
}

// TensorProto represents a tensor (weights/initializers).
type TensorProto struct {
	Name       string    // Tensor name
	DataType   int32     // Element data type
	Dims       []int64   // Tensor shape
	RawData    []byte    // Raw little-endian data
	FloatData  []float32 // FLOAT data when raw_data is absent
	Int32Data  []int32   // Also carries FLOAT16/BFLOAT16 bit patterns
	Int64Data  []int64   // INT64 data
	DoubleData []float64 // DOUBLE data when raw_data is absent
	DocString  string    // Tensor description
}

// ValueInfoProto describes input/output tensor specifications.
type ValueInfoProto struct {
	Name      string     // Tensor name
	Type      *TypeProto // Tensor type information
	DocString string     // Description
}

// TypeProto describes tensor type.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto describes tensor shape and element type.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto describes a single dimension. Exactly one of DimValue and
// DimParam is meaningful; a non-empty DimParam marks a symbolic dimension.
type DimensionProto struct {
	DimValue int64  // Static dimension value
	DimParam string // Symbolic dimension name (e.g., "batch")
}

// AttributeProto represents node attributes.
type AttributeProto struct {
	Name      string
	Type      int32
	F         float32
	I         int64
	S         []byte
	T         *TensorProto
	Floats    []float32
	Ints      []int64
	Strings   [][]byte
	DocString string
}

// OperatorSetID identifies opset version.
type OperatorSetID struct {
	Domain  string // Operator domain (empty for default)
	Version int64  // Opset version number
}

// StringStringEntry represents key-value metadata.
type StringStringEntry struct {
	Key   string
	Value string
}

// ONNX data types (TensorProto.DataType).
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1  // float32
	TensorProtoInt32     = 6  // int32
	TensorProtoInt64     = 7  // int64
	TensorProtoFloat16   = 10 // float16
	TensorProtoDouble    = 11 // float64
	TensorProtoBfloat16  = 16 // bfloat16
)

// ONNX attribute types (AttributeProto.Type).
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1 // FLOAT
	AttributeProtoInt       = 2 // INT
	AttributeProtoString    = 3 // STRING
	AttributeProtoTensor    = 4 // TENSOR
	AttributeProtoFloats    = 6 // FLOATS
	AttributeProtoInts      = 7 // INTS
	AttributeProtoStrings   = 8 // STRINGS
)

// Attr returns the attribute with the given name.
func (n *NodeProto) Attr(name string) (*AttributeProto, bool) {
	for i := range n.Attributes {
		if n.Attributes[i].Name == name {
			return &n.Attributes[i], true
		}
	}
	return nil, false
}

// AttrInt returns an integer attribute or defaultVal.
func (n *NodeProto) AttrInt(name string, defaultVal int64) int64 {
	if a, ok := n.Attr(name); ok {
		return a.I
	}
	return defaultVal
}

// AttrFloat returns a float attribute or defaultVal.
func (n *NodeProto) AttrFloat(name string, defaultVal float32) float32 {
	if a, ok := n.Attr(name); ok {
		return a.F
	}
	return defaultVal
}

// IntAttr builds an INT attribute.
func IntAttr(name string, v int64) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoInt, I: v}
}

// FloatAttr builds a FLOAT attribute.
func FloatAttr(name string, v float32) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoFloat, F: v}
}

// Metadata returns the model's metadata_props as a map.
func (m *ModelProto) Metadata() map[string]string {
	meta := make(map[string]string, len(m.MetadataProps))
	for _, p := range m.MetadataProps {
		meta[p.Key] = p.Value
	}
	return meta
}

// OpsetVersion returns the default-domain opset version, or 0 if absent.
func (m *ModelProto) OpsetVersion() int64 {
	for _, opset := range m.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			return opset.Version
		}
	}
	return 0
}
