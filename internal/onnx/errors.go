package onnx

import "errors"

var (
	// ErrMalformed reports bytes that are not a valid ModelProto.
	ErrMalformed = errors.New("malformed onnx model")

	// ErrNoGraph reports a model without a graph.
	ErrNoGraph = errors.New("model has no graph")

	// ErrUnsupportedDataType reports an initializer element type that cannot be
	// widened to float32.
	ErrUnsupportedDataType = errors.New("unsupported tensor data type")

	// ErrUnsupportedOperator reports a node the Session cannot evaluate.
	ErrUnsupportedOperator = errors.New("unsupported operator")
)
