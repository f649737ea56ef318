package graph

import (
	"fmt"

	"github.com/born-ml/lazyopt/internal/tensor"
)

// Op is the operation a node performs.
//
// Each operation implements:
//   - Name: identifier used in errors and debugging
//   - Eval: forward computation on concrete input values
//   - Backward: symbolic gradients of the inputs given the output's gradient
type Op interface {
	Name() string

	// Eval computes the output from the input values. It must not modify inputs.
	Eval(inputs []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error)

	// Backward returns one gradient node per input of out, given the upstream
	// gradient of out. A nil entry means no gradient flows to that input; a nil
	// slice means the operation is not differentiable.
	Backward(out, upstream *Node) []*Node
}

type placeholderOp struct {
	name  string
	shape tensor.Shape
}

func (op *placeholderOp) Name() string { return "Placeholder(" + op.name + ")" }

func (op *placeholderOp) Eval([]*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return nil, fmt.Errorf("%w: %s", ErrMissingFeed, op.name)
}

func (op *placeholderOp) Backward(*Node, *Node) []*Node { return []*Node{} }

type constOp struct {
	value *tensor.Tensor[float32]
}

func (op *constOp) Name() string { return "Const" }

func (op *constOp) Eval([]*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return op.value, nil
}

func (op *constOp) Backward(*Node, *Node) []*Node { return []*Node{} }

type variableOp struct {
	v *Variable
}

func (op *variableOp) Name() string { return "Var(" + op.v.name + ")" }

func (op *variableOp) Eval([]*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return op.v.value, nil
}

func (op *variableOp) Backward(*Node, *Node) []*Node { return []*Node{} }

// Elementwise binary operations with broadcasting.

type addOp struct{}

func (addOp) Name() string { return "Add" }

func (addOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Add(in[1])
}

func (addOp) Backward(out, u *Node) []*Node {
	a, b := out.inputs[0], out.inputs[1]
	return []*Node{ReduceLike(u, a), ReduceLike(u, b)}
}

type subOp struct{}

func (subOp) Name() string { return "Sub" }

func (subOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Sub(in[1])
}

func (subOp) Backward(out, u *Node) []*Node {
	a, b := out.inputs[0], out.inputs[1]
	return []*Node{ReduceLike(u, a), ReduceLike(Neg(u), b)}
}

type mulOp struct{}

func (mulOp) Name() string { return "Mul" }

func (mulOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Mul(in[1])
}

func (mulOp) Backward(out, u *Node) []*Node {
	a, b := out.inputs[0], out.inputs[1]
	return []*Node{ReduceLike(Mul(u, b), a), ReduceLike(Mul(u, a), b)}
}

type divOp struct{}

func (divOp) Name() string { return "Div" }

func (divOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Div(in[1])
}

func (divOp) Backward(out, u *Node) []*Node {
	a, b := out.inputs[0], out.inputs[1]
	// d(a/b)/db = -a/b²
	gb := Neg(Div(Mul(u, a), Square(b)))
	return []*Node{ReduceLike(Div(u, b), a), ReduceLike(gb, b)}
}

// Elementwise unary operations.

type negOp struct{}

func (negOp) Name() string { return "Neg" }

func (negOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Neg(), nil
}

func (negOp) Backward(_, u *Node) []*Node { return []*Node{Neg(u)} }

type scaleOp struct{ s float32 }

func (op scaleOp) Name() string { return fmt.Sprintf("Scale(%g)", op.s) }

func (op scaleOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Scale(op.s), nil
}

func (op scaleOp) Backward(_, u *Node) []*Node { return []*Node{Scale(u, op.s)} }

type addScalarOp struct{ s float32 }

func (op addScalarOp) Name() string { return fmt.Sprintf("AddScalar(%g)", op.s) }

func (op addScalarOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].AddScalar(op.s), nil
}

func (op addScalarOp) Backward(_, u *Node) []*Node { return []*Node{u} }

type squareOp struct{}

func (squareOp) Name() string { return "Square" }

func (squareOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Square(), nil
}

func (squareOp) Backward(out, u *Node) []*Node {
	return []*Node{Mul(u, Scale(out.inputs[0], 2))}
}

type sqrtOp struct{}

func (sqrtOp) Name() string { return "Sqrt" }

func (sqrtOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Sqrt(), nil
}

func (sqrtOp) Backward(out, u *Node) []*Node {
	return []*Node{Div(u, Scale(out, 2))}
}

type tanhOp struct{}

func (tanhOp) Name() string { return "Tanh" }

func (tanhOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Tanh(), nil
}

func (tanhOp) Backward(out, u *Node) []*Node {
	// d tanh(x)/dx = 1 - tanh²(x)
	return []*Node{Mul(u, AddScalar(Neg(Square(out)), 1))}
}

type powBaseOp struct{ base float32 }

func (op powBaseOp) Name() string { return fmt.Sprintf("PowBase(%g)", op.base) }

func (op powBaseOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].PowBase(op.base), nil
}

func (powBaseOp) Backward(*Node, *Node) []*Node { return nil }

// Linear algebra and indexing.

type matMulOp struct{}

func (matMulOp) Name() string { return "MatMul" }

func (matMulOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].MatMul(in[1])
}

func (matMulOp) Backward(out, u *Node) []*Node {
	a, b := out.inputs[0], out.inputs[1]
	return []*Node{MatMul(u, Transpose(b)), MatMul(Transpose(a), u)}
}

type transposeOp struct{}

func (transposeOp) Name() string { return "Transpose" }

func (transposeOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Transpose()
}

func (transposeOp) Backward(_, u *Node) []*Node { return []*Node{Transpose(u)} }

type gatherOp struct{}

func (gatherOp) Name() string { return "Gather" }

func (gatherOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	rows, err := in[1].Indices()
	if err != nil {
		return nil, err
	}
	return in[0].Gather(rows)
}

func (gatherOp) Backward(out, u *Node) []*Node {
	table, indices := out.inputs[0], out.inputs[1]
	return []*Node{ScatterRows(u, indices, table), nil}
}

type scatterRowsOp struct{}

func (scatterRowsOp) Name() string { return "ScatterRows" }

func (scatterRowsOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	rows, err := in[1].Indices()
	if err != nil {
		return nil, err
	}
	return tensor.ScatterAddRows(in[2].Shape(), rows, in[0])
}

func (scatterRowsOp) Backward(out, u *Node) []*Node {
	return []*Node{Gather(u, out.inputs[1]), nil, nil}
}

// Reductions and shape adapters.

type sumOp struct{}

func (sumOp) Name() string { return "Sum" }

func (sumOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Sum(), nil
}

func (sumOp) Backward(out, u *Node) []*Node {
	return []*Node{BroadcastLike(u, out.inputs[0])}
}

type meanOp struct{}

func (meanOp) Name() string { return "Mean" }

func (meanOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return in[0].Sum().Scale(1 / float32(in[0].Len())), nil
}

func (meanOp) Backward(out, u *Node) []*Node {
	x := out.inputs[0]
	return []*Node{x.graph.add(spreadOp{}, u, x)}
}

// spreadOp broadcasts a scalar gradient over ref divided by ref's element count.
type spreadOp struct{}

func (spreadOp) Name() string { return "Spread" }

func (spreadOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	out, err := in[0].BroadcastTo(in[1].Shape())
	if err != nil {
		return nil, err
	}
	return out.Scale(1 / float32(in[1].Len())), nil
}

func (spreadOp) Backward(*Node, *Node) []*Node { return nil }

type reduceLikeOp struct{}

func (reduceLikeOp) Name() string { return "ReduceLike" }

func (reduceLikeOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	if in[0].Shape().Equal(in[1].Shape()) {
		return in[0], nil
	}
	return in[0].SumTo(in[1].Shape())
}

func (reduceLikeOp) Backward(out, u *Node) []*Node {
	return []*Node{BroadcastLike(u, out.inputs[0]), nil}
}

type broadcastLikeOp struct{}

func (broadcastLikeOp) Name() string { return "BroadcastLike" }

func (broadcastLikeOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	if in[0].Shape().Equal(in[1].Shape()) {
		return in[0], nil
	}
	return in[0].BroadcastTo(in[1].Shape())
}

func (broadcastLikeOp) Backward(out, u *Node) []*Node {
	return []*Node{ReduceLike(u, out.inputs[0]), nil}
}

type fillLikeOp struct{ value float32 }

func (op fillLikeOp) Name() string { return fmt.Sprintf("FillLike(%g)", op.value) }

func (op fillLikeOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return tensor.Full(in[0].Shape(), op.value), nil
}

func (fillLikeOp) Backward(*Node, *Node) []*Node { return []*Node{nil} }

type rowActivityOp struct{}

func (rowActivityOp) Name() string { return "RowActivity" }

func (rowActivityOp) Eval(in []*tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return tensor.RowActivity(in[0]), nil
}

func (rowActivityOp) Backward(*Node, *Node) []*Node { return []*Node{nil} }
