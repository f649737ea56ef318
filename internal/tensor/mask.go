package tensor

import "fmt"

// Mask is a boolean tensor produced by comparisons.
type Mask struct {
	shape Shape
	data  []bool
}

// NotEqual returns a mask that is true where t differs from value.
func NotEqual[T Float](t *Tensor[T], value T) *Mask {
	m := &Mask{shape: t.shape.Clone(), data: make([]bool, len(t.data))}
	for i, v := range t.data {
		m.data[i] = v != value
	}
	return m
}

// Shape returns a copy of the mask's shape.
func (m *Mask) Shape() Shape {
	return m.shape.Clone()
}

// Data returns the backing slice.
func (m *Mask) Data() []bool {
	return m.data
}

// Any reduces the last axis with logical OR.
// With keepDims the last axis stays as size 1, otherwise it is dropped.
func (m *Mask) Any(keepDims bool) *Mask {
	return m.reduceLastAxis(keepDims, false, func(acc, v bool) bool { return acc || v })
}

// All reduces the last axis with logical AND.
func (m *Mask) All(keepDims bool) *Mask {
	return m.reduceLastAxis(keepDims, true, func(acc, v bool) bool { return acc && v })
}

func (m *Mask) reduceLastAxis(keepDims, init bool, f func(acc, v bool) bool) *Mask {
	var shape Shape
	switch {
	case keepDims:
		shape = m.shape.KeepLastAxis()
	case len(m.shape) > 0:
		shape = m.shape[:len(m.shape)-1].Clone()
	default:
		shape = Shape{}
	}

	rows, n := m.shape.NumRows(), m.shape.RowSize()
	out := &Mask{shape: shape, data: make([]bool, rows)}
	for r := 0; r < rows; r++ {
		acc := init
		for _, v := range m.data[r*n : (r+1)*n] {
			acc = f(acc, v)
		}
		out.data[r] = acc
	}
	return out
}

// CountTrue returns the number of true elements.
func (m *Mask) CountTrue() int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// String renders the mask as 0/1 digits.
func (m *Mask) String() string {
	buf := make([]byte, len(m.data))
	for i, v := range m.data {
		buf[i] = '0'
		if v {
			buf[i] = '1'
		}
	}
	return fmt.Sprintf("Mask%v[%s]", m.shape, buf)
}

// Cast converts a mask to a numeric tensor of 0 and 1.
func Cast[T Float](m *Mask) *Tensor[T] {
	out := &Tensor[T]{shape: m.shape.Clone(), data: make([]T, len(m.data))}
	for i, v := range m.data {
		if v {
			out.data[i] = 1
		}
	}
	return out
}

// RowActivity marks each row of t that has at least one nonzero element.
// The result has the shape of t with its last axis collapsed to 1.
func RowActivity[T Float](t *Tensor[T]) *Tensor[T] {
	return Cast[T](NotEqual(t, 0).Any(true))
}
