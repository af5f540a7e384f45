// Package export compiles reconstructed networks into ONNX graphs.
//
// The tracer walks a Sequential module by module and emits one node per
// layer. Initializer names are the Sequential's own state dict keys
// ("0.weight", "0.bias", ...), so reading them back and normalizing yields
// the "model."-prefixed names the networks load.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/rlconvert/internal/nn"
	"github.com/born-ml/rlconvert/internal/onnx"
	"github.com/born-ml/rlconvert/internal/params"
)

// Graph-level constants of every traced model.
const (
	IRVersion    = 8
	OpsetVersion = 17
	Producer     = "rlconvert"
	InputName    = "obs"
	OutputName   = "output"
	BatchDim     = "batch"
)

// Metadata keys stored in metadata_props.
const (
	MetaModelKind    = "model_kind"
	MetaInputs       = "inputs"
	MetaOutputs      = "outputs"
	MetaHiddenSizes  = "hidden_sizes"
	MetaConversionID = "conversion_id"
)

// TraceError reports a module the tracer has no lowering for.
type TraceError struct {
	Index  int    // Position in the Sequential
	Module string // Go type of the module
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("cannot trace module %d of type %s", e.Index, e.Module)
}

// Options describes the traced model.
type Options struct {
	Kind         string // Graph name and model_kind, e.g. "policy"
	Hidden       []int  // Hidden widths recorded in metadata
	ConversionID string
}

// Trace lowers seq into an ONNX model with input "obs" [batch, in] and
// output "output" [batch, out].
func Trace(seq *nn.Sequential, opts Options) (*onnx.ModelProto, error) {
	graph := &onnx.GraphProto{Name: opts.Kind}
	inputs, outputs := -1, -1

	prev := InputName
	for i := 0; i < seq.Len(); i++ {
		out := fmt.Sprintf("/%d/out", i)
		if i == seq.Len()-1 {
			out = OutputName
		}

		node := onnx.NodeProto{Inputs: []string{prev}, Outputs: []string{out}}
		switch m := seq.Module(i).(type) {
		case *nn.Linear:
			if inputs < 0 {
				inputs = m.InFeatures()
			}
			outputs = m.OutFeatures()
			weight, bias := strconv.Itoa(i)+params.WeightSuffix, strconv.Itoa(i)+params.BiasSuffix
			node.OpType = "Gemm"
			node.Inputs = append(node.Inputs, weight, bias)
			node.Attributes = []onnx.AttributeProto{
				onnx.FloatAttr("alpha", 1),
				onnx.FloatAttr("beta", 1),
				onnx.IntAttr("transB", 1),
			}
			graph.Initializers = append(graph.Initializers,
				onnx.FloatTensor(weight, m.Weight().Tensor()),
				onnx.FloatTensor(bias, m.Bias().Tensor()))
		case *nn.ReLU:
			node.OpType = "Relu"
		case *nn.Tanh:
			node.OpType = "Tanh"
		case *nn.Softmax:
			node.OpType = "Softmax"
			node.Attributes = []onnx.AttributeProto{onnx.IntAttr("axis", int64(m.Dim))}
		default:
			return nil, &TraceError{Index: i, Module: fmt.Sprintf("%T", m)}
		}
		node.Name = fmt.Sprintf("/%d/%s", i, node.OpType)
		graph.Nodes = append(graph.Nodes, node)
		prev = out
	}
	if inputs < 0 {
		return nil, fmt.Errorf("%s: no Linear layer to trace", opts.Kind)
	}

	graph.Inputs = []onnx.ValueInfoProto{valueInfo(InputName, inputs)}
	graph.Outputs = []onnx.ValueInfoProto{valueInfo(OutputName, outputs)}

	return &onnx.ModelProto{
		IRVersion:    IRVersion,
		ProducerName: Producer,
		OpsetImport:  []onnx.OperatorSetID{{Domain: "", Version: OpsetVersion}},
		Graph:        graph,
		MetadataProps: []onnx.StringStringEntry{
			{Key: MetaModelKind, Value: opts.Kind},
			{Key: MetaInputs, Value: strconv.Itoa(inputs)},
			{Key: MetaOutputs, Value: strconv.Itoa(outputs)},
			{Key: MetaHiddenSizes, Value: joinInts(opts.Hidden)},
			{Key: MetaConversionID, Value: opts.ConversionID},
		},
	}, nil
}

// TracePolicy traces the policy's inner Sequential as graph "policy".
func TracePolicy(p *nn.DiscreteFF, conversionID string) (*onnx.ModelProto, error) {
	return Trace(p.Model(), Options{Kind: "policy", Hidden: p.Shape().Hidden, ConversionID: conversionID})
}

// TraceValue traces the value network's inner Sequential as graph "value_net".
func TraceValue(v *nn.ValueEstimator, conversionID string) (*onnx.ModelProto, error) {
	return Trace(v.Model(), Options{Kind: "value_net", Hidden: v.Shape().Hidden, ConversionID: conversionID})
}

func valueInfo(name string, width int) onnx.ValueInfoProto {
	return onnx.ValueInfoProto{
		Name: name,
		Type: &onnx.TypeProto{TensorType: &onnx.TensorTypeProto{
			ElemType: onnx.TensorProtoFloat,
			Shape: &onnx.TensorShapeProto{Dims: []onnx.DimensionProto{
				{DimParam: BatchDim},
				{DimValue: int64(width)},
			}},
		}},
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
