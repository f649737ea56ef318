// Package autodiff implements symbolic reverse-mode automatic differentiation
// over graph nodes.
//
// Gradients walks the loss's graph backwards from the loss, asking every
// operation for the gradients of its inputs and summing contributions when
// a node is used more than once. The result is a set of new nodes in the
// same graph; nothing is evaluated until a Session runs them.
//
// Usage:
//
//	g := graph.New("train")
//	loss := nn.MSELoss(model.Forward(x), y)
//	grads, err := autodiff.Gradients(loss, model.Parameters())
package autodiff

import (
	"errors"
	"fmt"

	"github.com/born-ml/lazyopt/internal/graph"
)

// ErrNilLoss is returned when no loss node is given.
var ErrNilLoss = errors.New("autodiff: nil loss")

// Gradients returns d(loss)/dv for every v in vars, in order.
//
// A non-scalar loss is differentiated as the sum of its elements. Variables
// the loss does not depend on get a zero gradient of their own shape.
func Gradients(loss *graph.Node, vars []*graph.Variable) ([]*graph.Node, error) {
	if loss == nil {
		return nil, ErrNilLoss
	}
	g := loss.Graph()
	last := loss.ID()

	// Mark every node between a requested variable and the loss.
	depends := make([]bool, last+1)
	for _, v := range vars {
		if n, ok := g.LookupVar(v); ok && n.ID() <= last {
			depends[n.ID()] = true
		}
	}
	for id := graph.NodeID(0); id <= last; id++ {
		if depends[id] {
			continue
		}
		for _, in := range g.Node(id).Inputs() {
			if depends[in.ID()] {
				depends[id] = true
				break
			}
		}
	}

	grads := make(map[graph.NodeID]*graph.Node)
	if depends[last] {
		grads[last] = graph.OnesLike(loss)
	}

	// Walk arena order backwards: every consumer is visited before its inputs.
	for id := last; id >= 0; id-- {
		upstream, ok := grads[id]
		if !ok {
			continue
		}
		n := g.Node(id)
		if _, isVar := n.Variable(); isVar {
			continue
		}

		local := n.Op().Backward(n, upstream)
		if local == nil {
			return nil, fmt.Errorf("%w: %v", graph.ErrNoDerivative, n)
		}
		for i, in := range n.Inputs() {
			if !depends[in.ID()] {
				continue
			}
			if i >= len(local) || local[i] == nil {
				return nil, fmt.Errorf("%w: %v input %d", graph.ErrNoDerivative, n, i)
			}
			if prev, ok := grads[in.ID()]; ok {
				grads[in.ID()] = graph.Add(prev, local[i])
			} else {
				grads[in.ID()] = local[i]
			}
		}
	}

	out := make([]*graph.Node, len(vars))
	for i, v := range vars {
		if n, ok := g.LookupVar(v); ok {
			if grad, ok := grads[n.ID()]; ok {
				out[i] = grad
				continue
			}
		}
		out[i] = graph.ZerosLike(g.Var(v))
	}
	return out, nil
}

// Provider adapts Gradients to the optimizer's gradient-provider interface.
type Provider struct{}

// Gradients implements optim.GradientProvider.
func (Provider) Gradients(loss *graph.Node, params []*graph.Variable) ([]*graph.Node, error) {
	return Gradients(loss, params)
}
