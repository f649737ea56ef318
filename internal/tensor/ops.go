package tensor

import (
	"fmt"
	"math"

	"github.com/born-ml/lazyopt/internal/parallel"
)

// parallelConfig controls how row-wise kernels such as MatMul are split.
var parallelConfig = parallel.DefaultConfig()

// binary applies f elementwise with NumPy broadcasting.
func binary[T Float](a, b *Tensor[T], f func(x, y T) T) (*Tensor[T], error) {
	out, needsBroadcast, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, err
	}

	result := &Tensor[T]{shape: out, data: make([]T, out.NumElements())}
	if !needsBroadcast {
		for i := range result.data {
			result.data[i] = f(a.data[i], b.data[i])
		}
		return result, nil
	}

	aStrides := broadcastStrides(a.shape, out)
	bStrides := broadcastStrides(b.shape, out)
	index := make([]int, len(out))
	for i := range result.data {
		aOff, bOff := 0, 0
		for d := range index {
			aOff += index[d] * aStrides[d]
			bOff += index[d] * bStrides[d]
		}
		result.data[i] = f(a.data[aOff], b.data[bOff])

		// Advance the multi-index in row-major order.
		for d := len(index) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < out[d] {
				break
			}
			index[d] = 0
		}
	}
	return result, nil
}

// Add returns t + other with broadcasting.
func (t *Tensor[T]) Add(other *Tensor[T]) (*Tensor[T], error) {
	return binary(t, other, func(x, y T) T { return x + y })
}

// Sub returns t - other with broadcasting.
func (t *Tensor[T]) Sub(other *Tensor[T]) (*Tensor[T], error) {
	return binary(t, other, func(x, y T) T { return x - y })
}

// Mul returns t * other with broadcasting.
func (t *Tensor[T]) Mul(other *Tensor[T]) (*Tensor[T], error) {
	return binary(t, other, func(x, y T) T { return x * y })
}

// Div returns t / other with broadcasting.
func (t *Tensor[T]) Div(other *Tensor[T]) (*Tensor[T], error) {
	return binary(t, other, func(x, y T) T { return x / y })
}

// Map applies f to every element.
func (t *Tensor[T]) Map(f func(T) T) *Tensor[T] {
	out := &Tensor[T]{shape: t.shape.Clone(), data: make([]T, len(t.data))}
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// Neg returns -t.
func (t *Tensor[T]) Neg() *Tensor[T] {
	return t.Map(func(v T) T { return -v })
}

// Scale returns t * s.
func (t *Tensor[T]) Scale(s T) *Tensor[T] {
	return t.Map(func(v T) T { return v * s })
}

// AddScalar returns t + s.
func (t *Tensor[T]) AddScalar(s T) *Tensor[T] {
	return t.Map(func(v T) T { return v + s })
}

// Square returns t².
func (t *Tensor[T]) Square() *Tensor[T] {
	return t.Map(func(v T) T { return v * v })
}

// Sqrt returns √t.
func (t *Tensor[T]) Sqrt() *Tensor[T] {
	return t.Map(func(v T) T { return T(math.Sqrt(float64(v))) })
}

// Tanh returns tanh(t).
func (t *Tensor[T]) Tanh() *Tensor[T] {
	return t.Map(func(v T) T { return T(math.Tanh(float64(v))) })
}

// PowBase returns base^t elementwise.
func (t *Tensor[T]) PowBase(base T) *Tensor[T] {
	return t.Map(func(v T) T { return T(math.Pow(float64(base), float64(v))) })
}

// Sum reduces every element to a scalar.
func (t *Tensor[T]) Sum() *Tensor[T] {
	var s T
	for _, v := range t.data {
		s += v
	}
	return Scalar(s)
}

// SumTo reduces t to shape by summing over broadcast axes.
// It is the adjoint of BroadcastTo.
func (t *Tensor[T]) SumTo(shape Shape) (*Tensor[T], error) {
	if t.shape.Equal(shape) {
		return t.Clone(), nil
	}
	out, _, err := BroadcastShapes(shape, t.shape)
	if err != nil {
		return nil, err
	}
	if !out.Equal(t.shape) {
		return nil, fmt.Errorf("%w: cannot reduce %v to %v", ErrShapeMismatch, t.shape, shape)
	}

	result := &Tensor[T]{shape: shape.Clone(), data: make([]T, shape.NumElements())}
	dstStrides := broadcastStrides(shape, t.shape)
	index := make([]int, len(t.shape))
	for _, v := range t.data {
		off := 0
		for d := range index {
			off += index[d] * dstStrides[d]
		}
		result.data[off] += v

		for d := len(index) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < t.shape[d] {
				break
			}
			index[d] = 0
		}
	}
	return result, nil
}

// BroadcastTo expands t to shape.
func (t *Tensor[T]) BroadcastTo(shape Shape) (*Tensor[T], error) {
	out, _, err := BroadcastShapes(t.shape, shape)
	if err != nil {
		return nil, err
	}
	if !out.Equal(shape) {
		return nil, fmt.Errorf("%w: cannot broadcast %v to %v", ErrShapeMismatch, t.shape, shape)
	}
	return binary(t, Zeros[T](shape), func(x, _ T) T { return x })
}

// MatMul multiplies two 2-D tensors.
func (t *Tensor[T]) MatMul(other *Tensor[T]) (*Tensor[T], error) {
	if len(t.shape) != 2 || len(other.shape) != 2 || t.shape[1] != other.shape[0] {
		return nil, fmt.Errorf("%w: matmul %v x %v", ErrShapeMismatch, t.shape, other.shape)
	}
	m, k, n := t.shape[0], t.shape[1], other.shape[1]
	out := &Tensor[T]{shape: Shape{m, n}, data: make([]T, m*n)}
	parallel.Range(m, k*n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst := out.data[i*n : (i+1)*n]
			for p := 0; p < k; p++ {
				a := t.data[i*k+p]
				if a == 0 {
					continue
				}
				for j, b := range other.data[p*n : (p+1)*n] {
					dst[j] += a * b
				}
			}
		}
	}, parallelConfig)
	return out, nil
}

// Transpose swaps the axes of a 2-D tensor.
func (t *Tensor[T]) Transpose() (*Tensor[T], error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("%w: transpose needs 2-D, got %v", ErrShapeMismatch, t.shape)
	}
	r, c := t.shape[0], t.shape[1]
	out := &Tensor[T]{shape: Shape{c, r}, data: make([]T, r*c)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.data[j*r+i] = t.data[i*c+j]
		}
	}
	return out, nil
}

// Gather selects rows of a 2-D table. The result has shape [len(rows), cols].
func (t *Tensor[T]) Gather(rows []int) (*Tensor[T], error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("%w: gather needs a 2-D table, got %v", ErrShapeMismatch, t.shape)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: gather with no indices", ErrShapeMismatch)
	}
	cols := t.shape[1]
	out := &Tensor[T]{shape: Shape{len(rows), cols}, data: make([]T, len(rows)*cols)}
	for i, r := range rows {
		if r < 0 || r >= t.shape[0] {
			return nil, fmt.Errorf("%w: row %d of %d", ErrIndexRange, r, t.shape[0])
		}
		copy(out.data[i*cols:(i+1)*cols], t.data[r*cols:(r+1)*cols])
	}
	return out, nil
}

// ScatterAddRows returns a zero tensor of shape whose row rows[i] accumulates src row i.
// It is the adjoint of Gather: repeated indices sum.
func ScatterAddRows[T Float](shape Shape, rows []int, src *Tensor[T]) (*Tensor[T], error) {
	if len(shape) != 2 || len(src.shape) != 2 || src.shape[1] != shape[1] || src.shape[0] != len(rows) {
		return nil, fmt.Errorf("%w: scatter %v rows of %v into %v", ErrShapeMismatch, len(rows), src.shape, shape)
	}
	out := Zeros[T](shape)
	cols := shape[1]
	for i, r := range rows {
		if r < 0 || r >= shape[0] {
			return nil, fmt.Errorf("%w: row %d of %d", ErrIndexRange, r, shape[0])
		}
		dst := out.data[r*cols : (r+1)*cols]
		for j, v := range src.data[i*cols : (i+1)*cols] {
			dst[j] += v
		}
	}
	return out, nil
}

// Indices converts a tensor of integral values into row indices.
func (t *Tensor[T]) Indices() ([]int, error) {
	idx := make([]int, len(t.data))
	for i, v := range t.data {
		if v != T(math.Trunc(float64(v))) {
			return nil, fmt.Errorf("%w: non-integral index %g at %d", ErrIndexRange, float64(v), i)
		}
		idx[i] = int(v)
	}
	return idx, nil
}
