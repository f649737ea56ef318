package nn

import "github.com/born-ml/lazyopt/internal/graph"

// MSELoss computes mean((predictions - targets)²) as a scalar node.
func MSELoss(predictions, targets *graph.Node) *graph.Node {
	return graph.Mean(graph.Square(graph.Sub(predictions, targets)))
}
