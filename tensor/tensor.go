// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the float32 tensors rlconvert networks run on.
//
// # Overview
//
// Tensors are dense, row-major and always hold float32 values on the CPU.
// Checkpoint files may store float64, float16 or bfloat16 data; it is
// converted to float32 when read.
//
// # Basic Usage
//
//	obs, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(obs.Shape()) // [2 3]
package tensor

import (
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Tensor is a dense float32 tensor.
type Tensor = tensor.Tensor

// Shape is a tensor's dimensions, outermost first. An empty shape is a scalar.
type Shape = tensor.Shape

// Device identifies where tensor data lives. Only CPU is supported.
type Device = tensor.Device

// CPU is the only device.
const CPU = tensor.CPU

// FromSlice wraps data in a tensor of the given shape. It fails when the
// number of values does not match the shape.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros returns a tensor of the given shape filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}
