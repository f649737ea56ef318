// Package graph implements the symbolic computation graph that models,
// losses, gradients and optimizer updates are built on.
//
// A Graph is an arena: every node gets the next integer NodeID, and a node's
// inputs always have smaller IDs than the node itself, so arena order is a
// topological order. Graphs are built once and evaluated many times by a
// Session; nothing is computed while building.
//
// Example:
//
//	g := graph.New("model")
//	x := g.Placeholder("x", tensor.Shape{4, 2})
//	w := g.Var(weight)
//	y := graph.MatMul(x, w)
//
//	sess := graph.NewSession(g)
//	out, err := sess.Run(graph.Feeds{x: batch}, y)
package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/lazyopt/internal/tensor"
)

// GraphID identifies a graph for the lifetime of the process.
type GraphID int64

// NodeID is a node's index in its graph's arena.
type NodeID int

// NodeKey identifies a node across graphs.
type NodeKey struct {
	Graph GraphID
	Node  NodeID
}

var nextGraphID atomic.Int64

// Graph owns an arena of nodes.
type Graph struct {
	id    GraphID
	name  string
	nodes []*Node
	vars  map[VarID]*Node
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{
		id:    GraphID(nextGraphID.Add(1)),
		name:  name,
		nodes: make([]*Node, 0, 64),
		vars:  make(map[VarID]*Node),
	}
}

// ID returns the graph's process-wide identifier.
func (g *Graph) ID() GraphID {
	return g.id
}

// Name returns the graph name.
func (g *Graph) Name() string {
	return g.name
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// add appends a node. All inputs must belong to g.
func (g *Graph) add(op Op, inputs ...*Node) *Node {
	for _, in := range inputs {
		if in == nil {
			panic(fmt.Sprintf("graph %q: nil input to %s", g.name, op.Name()))
		}
		if in.graph != g {
			panic(fmt.Errorf("%w: %s input %v belongs to graph %q, not %q",
				ErrForeignNode, op.Name(), in, in.graph.name, g.name))
		}
	}
	n := &Node{graph: g, id: NodeID(len(g.nodes)), op: op, inputs: inputs}
	g.nodes = append(g.nodes, n)
	return n
}

// Placeholder declares an input fed at run time. A nil shape accepts any shape.
func (g *Graph) Placeholder(name string, shape tensor.Shape) *Node {
	op := &placeholderOp{name: name}
	if shape != nil {
		op.shape = shape.Clone()
	}
	return g.add(op)
}

// Const embeds a fixed tensor.
func (g *Graph) Const(t *tensor.Tensor[float32]) *Node {
	return g.add(&constOp{value: t})
}

// Scalar embeds a fixed rank-0 value.
func (g *Graph) Scalar(v float32) *Node {
	return g.Const(tensor.Scalar(v))
}

// Var returns the node that reads v. Repeated calls return the same node.
func (g *Graph) Var(v *Variable) *Node {
	if n, ok := g.vars[v.id]; ok {
		return n
	}
	n := g.add(&variableOp{v: v})
	g.vars[v.id] = n
	return n
}

// LookupVar returns the read node for v if the graph has one.
func (g *Graph) LookupVar(v *Variable) (*Node, bool) {
	n, ok := g.vars[v.id]
	return n, ok
}

// Node is a single operation in a graph.
type Node struct {
	graph  *Graph
	id     NodeID
	op     Op
	inputs []*Node
}

// ID returns the node's arena index.
func (n *Node) ID() NodeID {
	return n.id
}

// Key returns the node's process-wide identity.
func (n *Node) Key() NodeKey {
	return NodeKey{Graph: n.graph.id, Node: n.id}
}

// Graph returns the owning graph.
func (n *Node) Graph() *Graph {
	return n.graph
}

// Op returns the node's operation.
func (n *Node) Op() Op {
	return n.op
}

// Inputs returns the node's inputs.
func (n *Node) Inputs() []*Node {
	return append([]*Node(nil), n.inputs...)
}

// Variable returns the variable this node reads, if it is a variable read.
func (n *Node) Variable() (*Variable, bool) {
	op, ok := n.op.(*variableOp)
	if !ok {
		return nil, false
	}
	return op.v, true
}

// String identifies the node for error messages.
func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.op.Name(), n.id)
}
