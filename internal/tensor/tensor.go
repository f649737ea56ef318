package tensor

import (
	"fmt"
	"strings"
)

// Tensor is a dense, row-major, CPU-resident tensor.
//
// Operations never modify their receiver; every result is a freshly
// allocated tensor. The only mutating entry points are Data (direct
// access to the backing slice) and CopyFrom.
//
// Example:
//
//	w, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	if err != nil {
//	    return err
//	}
//	doubled := w.Scale(2)
type Tensor[T Float] struct {
	shape Shape
	data  []T
}

// Zeros creates a zero-filled tensor.
//
// Panics if the shape is invalid.
func Zeros[T Float](shape Shape) *Tensor[T] {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.Zeros: %v", err))
	}
	return &Tensor[T]{shape: shape.Clone(), data: make([]T, shape.NumElements())}
}

// Full creates a tensor with every element set to value.
func Full[T Float](shape Shape, value T) *Tensor[T] {
	t := Zeros[T](shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Scalar creates a rank-0 tensor.
func Scalar[T Float](value T) *Tensor[T] {
	return &Tensor[T]{shape: Shape{}, data: []T{value}}
}

// FromSlice creates a tensor from a copy of data.
func FromSlice[T Float](data []T, shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(data), shape)
	}
	buf := make([]T, len(data))
	copy(buf, data)
	return &Tensor[T]{shape: shape.Clone(), data: buf}, nil
}

// MustFromSlice is FromSlice that panics on error. Intended for tests and literals.
func MustFromSlice[T Float](data []T, shape Shape) *Tensor[T] {
	t, err := FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor[T]) Shape() Shape {
	return t.shape.Clone()
}

// DType returns the element type.
func (t *Tensor[T]) DType() DataType {
	return DataTypeOf[T]()
}

// Data returns the backing slice. Writes are visible to the tensor.
func (t *Tensor[T]) Data() []T {
	return t.data
}

// Len returns the number of elements.
func (t *Tensor[T]) Len() int {
	return len(t.data)
}

// Item returns the single element of a one-element tensor.
func (t *Tensor[T]) Item() T {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor.Item: tensor has %d elements", len(t.data)))
	}
	return t.data[0]
}

// Row returns a view of row i along the last axis.
func (t *Tensor[T]) Row(i int) []T {
	n := t.shape.RowSize()
	return t.data[i*n : (i+1)*n]
}

// NumRows returns the number of rows along the last axis.
func (t *Tensor[T]) NumRows() int {
	return t.shape.NumRows()
}

// Clone returns a deep copy.
func (t *Tensor[T]) Clone() *Tensor[T] {
	buf := make([]T, len(t.data))
	copy(buf, t.data)
	return &Tensor[T]{shape: t.shape.Clone(), data: buf}
}

// CopyFrom overwrites t's elements with src's. Shapes must match.
func (t *Tensor[T]) CopyFrom(src *Tensor[T]) error {
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("%w: copy %v into %v", ErrShapeMismatch, src.shape, t.shape)
	}
	copy(t.data, src.data)
	return nil
}

// Reshape returns a copy with a new shape holding the same number of elements.
func (t *Tensor[T]) Reshape(shape Shape) (*Tensor[T], error) {
	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("%w: reshape %v to %v", ErrShapeMismatch, t.shape, shape)
	}
	out := t.Clone()
	out.shape = shape.Clone()
	return out, nil
}

// String renders small tensors for debugging.
func (t *Tensor[T]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tensor%v[", t.shape)
	for i, v := range t.data {
		if i > 0 {
			b.WriteString(" ")
		}
		if i == 16 {
			fmt.Fprintf(&b, "... (%d more)", len(t.data)-i)
			break
		}
		fmt.Fprintf(&b, "%g", float64(v))
	}
	b.WriteString("]")
	return b.String()
}
