package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazyopt/internal/autodiff"
	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/tensor"
)

func evalAll(t *testing.T, g *graph.Graph, nodes []*graph.Node) [][]float32 {
	t.Helper()
	out, err := graph.NewSession(g).Run(nil, nodes...)
	require.NoError(t, err)
	vals := make([][]float32, len(out))
	for i, v := range out {
		vals[i] = v.Data()
	}
	return vals
}

func TestGradients_Linear(t *testing.T) {
	g := graph.New("linear")
	w := graph.NewVariable("w", tensor.MustFromSlice([]float32{3, 4}, tensor.Shape{2}))
	x := g.Const(tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{2}))
	loss := graph.Sum(graph.Mul(x, g.Var(w)))

	grads, err := autodiff.Gradients(loss, []*graph.Variable{w})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}}, evalAll(t, g, grads))
}

func TestGradients_MSE(t *testing.T) {
	g := graph.New("mse")
	w := graph.NewVariable("w", tensor.MustFromSlice([]float32{3, 4}, tensor.Shape{2}))
	target := g.Const(tensor.Zeros[float32](tensor.Shape{2}))
	loss := graph.Mean(graph.Square(graph.Sub(g.Var(w), target)))

	grads, err := autodiff.Gradients(loss, []*graph.Variable{w})
	require.NoError(t, err)
	// d/dw mean((w-t)^2) = 2(w-t)/n
	assert.InDeltaSlice(t, []float32{3, 4}, evalAll(t, g, grads)[0], 1e-6)
}

func TestGradients_SharedNodeAccumulates(t *testing.T) {
	g := graph.New("square")
	w := graph.NewVariable("w", tensor.MustFromSlice([]float32{1, -2}, tensor.Shape{2}))
	wn := g.Var(w)
	loss := graph.Sum(graph.Mul(wn, wn))

	grads, err := autodiff.Gradients(loss, []*graph.Variable{w})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, -4}, evalAll(t, g, grads)[0])
}

func TestGradients_GatherTouchesOnlyLookedUpRows(t *testing.T) {
	g := graph.New("embedding")
	table := graph.NewVariable("table", tensor.MustFromSlice([]float32{
		1, 1,
		2, 2,
		3, 3,
	}, tensor.Shape{3, 2}))
	ids := g.Placeholder("ids", tensor.Shape{3})
	loss := graph.Sum(graph.Gather(g.Var(table), ids))

	grads, err := autodiff.Gradients(loss, []*graph.Variable{table})
	require.NoError(t, err)

	out, err := graph.NewSession(g).Run(graph.Feeds{
		ids: tensor.MustFromSlice([]float32{1, 1, 0}, tensor.Shape{3}),
	}, grads...)
	require.NoError(t, err)
	assert.Equal(t, []float32{
		1, 1,
		2, 2,
		0, 0,
	}, out[0].Data(), "repeated ids accumulate and unused rows stay zero")
}

func TestGradients_UnusedVariableIsZero(t *testing.T) {
	g := graph.New("unused")
	used := graph.NewVariable("used", tensor.Scalar[float32](2))
	unused := graph.NewVariable("unused", tensor.Full[float32](tensor.Shape{2, 3}, 9))
	loss := graph.Square(g.Var(used))

	grads, err := autodiff.Gradients(loss, []*graph.Variable{unused, used})
	require.NoError(t, err)
	require.Len(t, grads, 2)

	vals := evalAll(t, g, grads)
	assert.Equal(t, make([]float32, 6), vals[0])
	assert.Equal(t, []float32{4}, vals[1])
}

func TestGradients_NonScalarLossIsSummed(t *testing.T) {
	g := graph.New("vector")
	w := graph.NewVariable("w", tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{2}))
	loss := graph.Scale(g.Var(w), 3)

	grads, err := autodiff.Gradients(loss, []*graph.Variable{w})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3}, evalAll(t, g, grads)[0])
}

func TestGradients_Errors(t *testing.T) {
	_, err := autodiff.Gradients(nil, nil)
	assert.ErrorIs(t, err, autodiff.ErrNilLoss)

	g := graph.New("pow")
	w := graph.NewVariable("w", tensor.Scalar[float32](1))
	_, err = autodiff.Gradients(graph.PowBase(2, g.Var(w)), []*graph.Variable{w})
	assert.ErrorIs(t, err, graph.ErrNoDerivative)

	// Non-differentiable nodes are fine when no requested variable feeds them.
	c := graph.PowBase(2, g.Scalar(3))
	grads, err := autodiff.Gradients(graph.Mul(c, g.Var(w)), []*graph.Variable{w})
	require.NoError(t, err)
	assert.Equal(t, []float32{8}, evalAll(t, g, grads)[0])
}

// TestGradients_MatchFiniteDifferences checks a small two-layer model
// against central differences.
func TestGradients_MatchFiniteDifferences(t *testing.T) {
	g := graph.New("check")
	x := g.Const(tensor.MustFromSlice([]float32{0.5, -1, 0.25, 2}, tensor.Shape{2, 2}))
	y := g.Const(tensor.MustFromSlice([]float32{0.1, -0.3}, tensor.Shape{2, 1}))
	w1 := graph.NewVariable("w1", tensor.MustFromSlice([]float32{0.2, -0.4, 0.3, 0.1}, tensor.Shape{2, 2}))
	b1 := graph.NewVariable("b1", tensor.MustFromSlice([]float32{0.05, -0.05}, tensor.Shape{2}))
	w2 := graph.NewVariable("w2", tensor.MustFromSlice([]float32{0.7, -0.6}, tensor.Shape{2, 1}))

	hidden := graph.Tanh(graph.Add(graph.MatMul(x, g.Var(w1)), g.Var(b1)))
	pred := graph.MatMul(hidden, g.Var(w2))
	loss := graph.Mean(graph.Square(graph.Sub(pred, y)))

	vars := []*graph.Variable{w1, b1, w2}
	grads, err := autodiff.Gradients(loss, vars)
	require.NoError(t, err)

	sess := graph.NewSession(g)
	analytic, err := sess.Run(nil, grads...)
	require.NoError(t, err)

	const eps = 1e-2
	lossAt := func(v *graph.Variable, i int, delta float32) float32 {
		orig := v.Value()
		moved := orig.Clone()
		moved.Data()[i] += delta
		require.NoError(t, v.Assign(moved))
		defer func() { require.NoError(t, v.Assign(orig)) }()
		l, err := sess.Scalar(nil, loss)
		require.NoError(t, err)
		return l
	}

	for k, v := range vars {
		for i := range v.Value().Len() {
			numeric := (lossAt(v, i, eps) - lossAt(v, i, -eps)) / (2 * eps)
			assert.InDelta(t, numeric, analytic[k].Data()[i], 2e-3, "%s[%d]", v.Name(), i)
		}
	}
}

func TestProvider(t *testing.T) {
	g := graph.New("provider")
	w := graph.NewVariable("w", tensor.Scalar[float32](5))
	grads, err := autodiff.Provider{}.Gradients(graph.Scale(g.Var(w), 2), []*graph.Variable{w})
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, evalAll(t, g, grads)[0])
}
