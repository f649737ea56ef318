package nn

import "github.com/born-ml/lazyopt/internal/graph"

// Tanh is a hyperbolic tangent activation module.
//
// Applies the element-wise function: tanh(x) = (e^x - e^-x) / (e^x + e^-x)
//
// Example:
//
//	tanh := nn.NewTanh()
//	output := tanh.Forward(input) // Values in range (-1, 1)
type Tanh struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Forward applies Tanh activation.
func (t *Tanh) Forward(input *graph.Node) *graph.Node {
	return graph.Tanh(input)
}

// Parameters returns an empty slice (Tanh has no trainable parameters).
func (t *Tanh) Parameters() []*graph.Variable {
	return nil
}
