package nn

import (
	"math/rand"

	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/tensor"
)

// Linear is a fully connected layer: y = x @ W + b.
//
// Architecture:
//   - Weight: [in, out], Xavier-initialized
//   - Bias: [out], zero-initialized
//   - Forward: [batch, in] -> [batch, out]
type Linear struct {
	weight *graph.Variable
	bias   *graph.Variable
	in     int
	out    int
}

// NewLinear creates a Linear layer. A nil rng uses the global source.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	w := Xavier(inFeatures, outFeatures, tensor.Shape{inFeatures, outFeatures}, rng)
	return &Linear{
		weight: graph.NewVariable("linear.weight", w),
		bias:   graph.NewVariable("linear.bias", Zeros(tensor.Shape{outFeatures})),
		in:     inFeatures,
		out:    outFeatures,
	}
}

// Forward computes x @ W + b.
func (l *Linear) Forward(input *graph.Node) *graph.Node {
	g := input.Graph()
	return graph.Add(graph.MatMul(input, g.Var(l.weight)), g.Var(l.bias))
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*graph.Variable {
	return []*graph.Variable{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *graph.Variable {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *graph.Variable {
	return l.bias
}

// InFeatures returns the input size.
func (l *Linear) InFeatures() int {
	return l.in
}

// OutFeatures returns the output size.
func (l *Linear) OutFeatures() int {
	return l.out
}
