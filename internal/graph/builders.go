package graph

// Add returns a + b with broadcasting.
func Add(a, b *Node) *Node { return a.graph.add(addOp{}, a, b) }

// Sub returns a - b with broadcasting.
func Sub(a, b *Node) *Node { return a.graph.add(subOp{}, a, b) }

// Mul returns a * b with broadcasting.
func Mul(a, b *Node) *Node { return a.graph.add(mulOp{}, a, b) }

// Div returns a / b with broadcasting.
func Div(a, b *Node) *Node { return a.graph.add(divOp{}, a, b) }

// Neg returns -x.
func Neg(x *Node) *Node { return x.graph.add(negOp{}, x) }

// Scale returns x * s.
func Scale(x *Node, s float32) *Node { return x.graph.add(scaleOp{s: s}, x) }

// AddScalar returns x + s.
func AddScalar(x *Node, s float32) *Node { return x.graph.add(addScalarOp{s: s}, x) }

// Square returns x².
func Square(x *Node) *Node { return x.graph.add(squareOp{}, x) }

// Sqrt returns √x.
func Sqrt(x *Node) *Node { return x.graph.add(sqrtOp{}, x) }

// Tanh returns tanh(x).
func Tanh(x *Node) *Node { return x.graph.add(tanhOp{}, x) }

// PowBase returns base^x. It is not differentiable.
func PowBase(base float32, x *Node) *Node { return x.graph.add(powBaseOp{base: base}, x) }

// MatMul multiplies two matrices.
func MatMul(a, b *Node) *Node { return a.graph.add(matMulOp{}, a, b) }

// Transpose swaps the axes of a matrix.
func Transpose(x *Node) *Node { return x.graph.add(transposeOp{}, x) }

// Gather looks up rows of a 2-D table. Indices hold integral row numbers.
func Gather(table, indices *Node) *Node { return table.graph.add(gatherOp{}, table, indices) }

// ScatterRows builds a zero tensor shaped like like and adds row i of src
// into row indices[i]. Repeated indices accumulate.
func ScatterRows(src, indices, like *Node) *Node {
	return src.graph.add(scatterRowsOp{}, src, indices, like)
}

// Sum reduces x to a scalar.
func Sum(x *Node) *Node { return x.graph.add(sumOp{}, x) }

// Mean reduces x to its scalar mean.
func Mean(x *Node) *Node { return x.graph.add(meanOp{}, x) }

// ReduceLike sums x over the axes along which ref was broadcast.
func ReduceLike(x, ref *Node) *Node { return x.graph.add(reduceLikeOp{}, x, ref) }

// BroadcastLike expands x to ref's shape.
func BroadcastLike(x, ref *Node) *Node { return x.graph.add(broadcastLikeOp{}, x, ref) }

// ZerosLike returns zeros with x's shape.
func ZerosLike(x *Node) *Node { return x.graph.add(fillLikeOp{value: 0}, x) }

// OnesLike returns ones with x's shape.
func OnesLike(x *Node) *Node { return x.graph.add(fillLikeOp{value: 1}, x) }

// RowActivity is 1 for every row of x with a nonzero element and 0 for
// all-zero rows, with x's last axis collapsed to size 1.
func RowActivity(x *Node) *Node { return x.graph.add(rowActivityOp{}, x) }
