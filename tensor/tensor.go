// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the dense tensors graphs evaluate on.
//
// The package defines:
//   - Tensor[T]: row-major tensor over float32 or float64
//   - Mask: boolean tensor from comparisons, with last-axis Any/All reductions
//   - Shape, DataType: core type definitions
//
// Example:
//
//	g := tensor.MustFromSlice([]float32{0, 0, 0.5, 0}, tensor.Shape{2, 2})
//	active := tensor.RowActivity(g) // [[0], [1]]
package tensor

import (
	"github.com/born-ml/lazyopt/internal/tensor"
)

// Float is the constraint for tensor element types.
type Float = tensor.Float

// Tensor is a dense, row-major tensor.
type Tensor[T Float] = tensor.Tensor[T]

// Mask is a boolean tensor.
type Mask = tensor.Mask

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// DataType represents runtime type information for tensors.
type DataType = tensor.DataType

// Supported data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Bool    = tensor.Bool
)

// Common errors.
var (
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrIndexRange    = tensor.ErrIndexRange
)

// Zeros creates a zero-filled tensor.
func Zeros[T Float](shape Shape) *Tensor[T] {
	return tensor.Zeros[T](shape)
}

// Full creates a tensor with every element set to value.
func Full[T Float](shape Shape, value T) *Tensor[T] {
	return tensor.Full(shape, value)
}

// Scalar creates a rank-0 tensor.
func Scalar[T Float](value T) *Tensor[T] {
	return tensor.Scalar(value)
}

// FromSlice creates a tensor from a copy of data.
func FromSlice[T Float](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// MustFromSlice is FromSlice that panics on error.
func MustFromSlice[T Float](data []T, shape Shape) *Tensor[T] {
	return tensor.MustFromSlice(data, shape)
}

// NotEqual returns a mask that is true where t differs from value.
func NotEqual[T Float](t *Tensor[T], value T) *Mask {
	return tensor.NotEqual(t, value)
}

// Cast converts a mask to a numeric 0/1 tensor.
func Cast[T Float](m *Mask) *Tensor[T] {
	return tensor.Cast[T](m)
}

// RowActivity marks each row of t that has at least one nonzero element.
func RowActivity[T Float](t *Tensor[T]) *Tensor[T] {
	return tensor.RowActivity(t)
}

// BroadcastShapes implements NumPy-style broadcasting rules.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
