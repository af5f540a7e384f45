package onnx

import (
	"fmt"
	"math"

	"github.com/born-ml/rlconvert/internal/tensor"
)

// opHandler evaluates one node. Every supported operator has a single output.
type opHandler func(node *NodeProto, inputs []*tensor.Tensor) (*tensor.Tensor, error)

var operators = map[string]opHandler{
	"Gemm":     handleGemm,
	"MatMul":   handleMatMul,
	"Add":      handleAdd,
	"Relu":     unary("relu", func(x float32) float32 { return max(x, 0) }),
	"Tanh":     unary("tanh", func(x float32) float32 { return float32(math.Tanh(float64(x))) }),
	"Sigmoid":  unary("sigmoid", func(x float32) float32 { return float32(1 / (1 + math.Exp(-float64(x)))) }),
	"Identity": unary("identity", func(x float32) float32 { return x }),
	"Softmax":  handleSoftmax,
}

// SupportedOps lists the operator types a Session can evaluate.
func SupportedOps() []string {
	ops := make([]string, 0, len(operators))
	for op := range operators {
		ops = append(ops, op)
	}
	return ops
}

func unary(name string, fn func(float32) float32) opHandler {
	return func(_ *NodeProto, inputs []*tensor.Tensor) (*tensor.Tensor, error) {
		if len(inputs) != 1 || inputs[0] == nil {
			return nil, fmt.Errorf("%s requires 1 input, got %d", name, len(inputs))
		}
		in := inputs[0].Data()
		out := make([]float32, len(in))
		for i, x := range in {
			out[i] = fn(x)
		}
		return tensor.New(inputs[0].Shape(), out)
	}
}

// matmul computes op(a) @ op(b) for 2-D operands, transposing when requested.
func matmul(a, b *tensor.Tensor, transA, transB bool) (*tensor.Tensor, error) {
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, fmt.Errorf("matmul requires 2-D operands, got %v and %v", a.Shape(), b.Shape())
	}
	m, k := a.Shape()[0], a.Shape()[1]
	if transA {
		m, k = k, m
	}
	kb, n := b.Shape()[0], b.Shape()[1]
	if transB {
		kb, n = n, kb
	}
	if k != kb {
		return nil, fmt.Errorf("matmul shape mismatch: %v and %v (transA=%t, transB=%t)", a.Shape(), b.Shape(), transA, transB)
	}

	ad, bd := a.Data(), b.Data()
	at := func(i, p int) float32 {
		if transA {
			return ad[p*m+i]
		}
		return ad[i*k+p]
	}
	bt := func(p, j int) float32 {
		if transB {
			return bd[j*k+p]
		}
		return bd[p*n+j]
	}

	out := make([]float32, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for p := 0; p < k; p++ {
				sum += at(i, p) * bt(p, j)
			}
			out[i*n+j] = sum
		}
	}
	return tensor.New(tensor.Shape{m, n}, out)
}

// broadcastAdd returns alpha*x + beta*c where c is a scalar, a row vector
// matching x's last dimension, or a tensor of x's shape.
func broadcastAdd(x, c *tensor.Tensor, alpha, beta float32) (*tensor.Tensor, error) {
	xd, cd := x.Data(), c.Data()
	out := make([]float32, len(xd))
	switch {
	case len(cd) == 1:
		for i, v := range xd {
			out[i] = alpha*v + beta*cd[0]
		}
	case c.Shape().Equal(x.Shape()):
		for i, v := range xd {
			out[i] = alpha*v + beta*cd[i]
		}
	case x.Rank() > 0 && c.Rank() == 1 && c.Shape()[0] == x.Shape()[x.Rank()-1]:
		n := len(cd)
		for i, v := range xd {
			out[i] = alpha*v + beta*cd[i%n]
		}
	default:
		return nil, fmt.Errorf("cannot broadcast %v to %v", c.Shape(), x.Shape())
	}
	return tensor.New(x.Shape(), out)
}

func handleGemm(node *NodeProto, inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(inputs) < 2 || inputs[0] == nil || inputs[1] == nil {
		return nil, fmt.Errorf("gemm requires at least 2 inputs, got %d", len(inputs))
	}
	alpha := node.AttrFloat("alpha", 1)
	beta := node.AttrFloat("beta", 1)
	transA := node.AttrInt("transA", 0) != 0
	transB := node.AttrInt("transB", 0) != 0

	y, err := matmul(inputs[0], inputs[1], transA, transB)
	if err != nil {
		return nil, fmt.Errorf("gemm: %w", err)
	}
	if len(inputs) < 3 || inputs[2] == nil {
		if alpha == 1 {
			return y, nil
		}
		return broadcastAdd(y, tensor.Zeros(tensor.Shape{1}), alpha, 0)
	}
	return broadcastAdd(y, inputs[2], alpha, beta)
}

func handleMatMul(_ *NodeProto, inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(inputs) != 2 || inputs[0] == nil || inputs[1] == nil {
		return nil, fmt.Errorf("matMul requires 2 inputs, got %d", len(inputs))
	}
	return matmul(inputs[0], inputs[1], false, false)
}

func handleAdd(_ *NodeProto, inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(inputs) != 2 || inputs[0] == nil || inputs[1] == nil {
		return nil, fmt.Errorf("add requires 2 inputs, got %d", len(inputs))
	}
	a, b := inputs[0], inputs[1]
	if b.NumElements() > a.NumElements() {
		a, b = b, a
	}
	return broadcastAdd(a, b, 1, 1)
}

func handleSoftmax(node *NodeProto, inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(inputs) != 1 || inputs[0] == nil {
		return nil, fmt.Errorf("softmax requires 1 input, got %d", len(inputs))
	}
	x := inputs[0]
	rank := int64(x.Rank())
	axis := node.AttrInt("axis", -1)
	if axis < 0 {
		axis += rank
	}
	if rank == 0 || axis != rank-1 {
		return nil, fmt.Errorf("softmax: only the last axis is supported, got axis %d for rank %d", node.AttrInt("axis", -1), rank)
	}

	n := x.Shape()[rank-1]
	out := append([]float32(nil), x.Data()...)
	for start := 0; start+n <= len(out) && n > 0; start += n {
		row := out[start : start+n]
		maxVal := row[0]
		for _, v := range row[1:] {
			maxVal = max(maxVal, v)
		}
		var sum float64
		for i, v := range row {
			e := math.Exp(float64(v - maxVal))
			row[i] = float32(e)
			sum += e
		}
		for i := range row {
			row[i] = float32(float64(row[i]) / sum)
		}
	}
	return tensor.New(x.Shape(), out)
}
