// Package onnx reads and writes the compiled policy artifacts (POLICY.LT and
// CRITIC.LT) as ONNX models.
//
// Models are encoded and decoded with the protobuf wire format from
// google.golang.org/protobuf/encoding/protowire; no generated code is used.
//
// Key components:
//   - ModelProto: Top-level ONNX model structure with metadata and graph
//   - GraphProto: Computation graph with nodes, inputs, outputs, and initializers
//   - Marshal/Unmarshal: Wire format encoding of ModelProto
//   - Initializers: The model's parameter dictionary, in graph order
//   - Session: A float32 reference evaluator for feed-forward graphs
//
// Example usage:
//
//	model, err := onnx.ReadFile("POLICY.LT")
//	if err != nil {
//	    return err
//	}
//	weights, err := onnx.Initializers(model)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(weights.Keys()) // [0.weight 0.bias 2.weight 2.bias]
package onnx
