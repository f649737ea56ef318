// Package nn implements neural network layers on top of the symbolic graph.
//
// This package provides:
//   - Module interface: layers that build graph nodes and own parameters
//   - Embedding: row-indexed lookup table (the usual sparse-update target)
//   - Linear: fully connected layer
//   - MSELoss: mean squared error
//   - Initializers: Normal, Xavier, Zeros
//
// Layers own their parameters as trainable graph.Variables; Forward only
// adds nodes to a graph and can be called on several graphs.
package nn

import "github.com/born-ml/lazyopt/internal/graph"

// Trainable is anything that owns trainable parameters.
type Trainable interface {
	// Parameters returns the trainable parameters in a stable order.
	Parameters() []*graph.Variable
}

// Module is the base interface for all layers.
//
// Modules can be composed to build larger models:
//
//	h := embed.Forward(ids)
//	out := head.Forward(h)
type Module interface {
	Trainable

	// Forward adds the layer's computation to input's graph and returns its output.
	Forward(input *graph.Node) *graph.Node
}

// CollectParameters concatenates the parameters of several modules.
func CollectParameters(modules ...Trainable) []*graph.Variable {
	var params []*graph.Variable
	for _, m := range modules {
		params = append(params, m.Parameters()...)
	}
	return params
}
