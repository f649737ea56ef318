package graph

import (
	"fmt"

	"github.com/born-ml/lazyopt/internal/tensor"
)

// Update assigns the value of a node to a variable when applied.
type Update struct {
	Target *Variable
	Value  *Node
}

// String describes the assignment.
func (u Update) String() string {
	return fmt.Sprintf("%s <- %v", u.Target.name, u.Value)
}

// Feeds maps placeholders to their values for one run.
type Feeds map[*Node]*tensor.Tensor[float32]

// Session evaluates nodes of a single graph.
//
// Sessions hold no per-run state; each call evaluates from scratch, computing
// every needed node once.
type Session struct {
	graph *Graph
}

// NewSession creates a session bound to g.
func NewSession(g *Graph) *Session {
	return &Session{graph: g}
}

// Run evaluates fetches and returns their values in order.
func (s *Session) Run(feeds Feeds, fetches ...*Node) ([]*tensor.Tensor[float32], error) {
	values, err := s.eval(feeds, fetches)
	if err != nil {
		return nil, err
	}
	out := make([]*tensor.Tensor[float32], len(fetches))
	for i, n := range fetches {
		out[i] = values[n.id]
	}
	return out, nil
}

// Scalar evaluates a single one-element node.
func (s *Session) Scalar(feeds Feeds, n *Node) (float32, error) {
	out, err := s.Run(feeds, n)
	if err != nil {
		return 0, err
	}
	if out[0].Len() != 1 {
		return 0, fmt.Errorf("%w: %v has shape %v", ErrNotScalar, n, out[0].Shape())
	}
	return out[0].Data()[0], nil
}

// Apply evaluates every update value, then assigns them all.
//
// All values are computed from the variables' state before the call, so the
// order of updates does not matter. If a target appears twice, the later
// update wins.
func (s *Session) Apply(feeds Feeds, updates []Update) error {
	_, err := s.Step(feeds, updates)
	return err
}

// Step is Apply that also returns fetches, evaluated before any assignment.
func (s *Session) Step(feeds Feeds, updates []Update, fetches ...*Node) ([]*tensor.Tensor[float32], error) {
	targets := make([]*Node, 0, len(updates)+len(fetches))
	for _, u := range updates {
		targets = append(targets, u.Value)
	}
	targets = append(targets, fetches...)

	values, err := s.eval(feeds, targets)
	if err != nil {
		return nil, err
	}

	for _, u := range updates {
		if err := u.Target.Assign(values[u.Value.id]); err != nil {
			return nil, err
		}
	}

	out := make([]*tensor.Tensor[float32], len(fetches))
	for i, n := range fetches {
		out[i] = values[n.id]
	}
	return out, nil
}

// eval computes every ancestor of targets in arena order.
func (s *Session) eval(feeds Feeds, targets []*Node) ([]*tensor.Tensor[float32], error) {
	g := s.graph
	needed := make([]bool, len(g.nodes))
	stack := make([]*Node, 0, len(targets))
	for _, n := range targets {
		if n.graph != g {
			return nil, fmt.Errorf("%w: %v is not in graph %q", ErrForeignNode, n, g.name)
		}
		stack = append(stack, n)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if needed[n.id] {
			continue
		}
		needed[n.id] = true
		stack = append(stack, n.inputs...)
	}

	values := make([]*tensor.Tensor[float32], len(g.nodes))
	inputs := make([]*tensor.Tensor[float32], 0, 4)
	for id, n := range g.nodes {
		if !needed[id] {
			continue
		}

		if ph, ok := n.op.(*placeholderOp); ok {
			v, fed := feeds[n]
			if !fed {
				return nil, fmt.Errorf("%w: %s", ErrMissingFeed, ph.name)
			}
			if ph.shape != nil && !v.Shape().Equal(ph.shape) {
				return nil, fmt.Errorf("feed %s: %w: got %v, want %v", ph.name, tensor.ErrShapeMismatch, v.Shape(), ph.shape)
			}
			values[id] = v
			continue
		}

		inputs = inputs[:0]
		for _, in := range n.inputs {
			inputs = append(inputs, values[in.id])
		}
		v, err := n.op.Eval(inputs)
		if err != nil {
			return nil, fmt.Errorf("eval %v: %w", n, err)
		}
		values[id] = v
	}
	return values, nil
}
