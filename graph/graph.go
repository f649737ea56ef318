// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the symbolic computation graph: build once,
// evaluate with a Session on every batch.
//
// Example:
//
//	g := graph.New("model")
//	x := g.Placeholder("x", tensor.Shape{4, 2})
//	y := graph.MatMul(x, g.Var(weight))
//
//	sess := graph.NewSession(g)
//	out, err := sess.Run(graph.Feeds{x: batch}, y)
package graph

import (
	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/tensor"
)

// Graph owns an arena of nodes.
type Graph = graph.Graph

// Node is a single operation in a graph.
type Node = graph.Node

// NodeKey identifies a node across graphs.
type NodeKey = graph.NodeKey

// Variable is mutable state read by graphs and written by updates.
type Variable = graph.Variable

// VarID identifies a variable.
type VarID = graph.VarID

// Update assigns a node's value to a variable.
type Update = graph.Update

// Feeds maps placeholders to values.
type Feeds = graph.Feeds

// Session evaluates nodes of a graph.
type Session = graph.Session

// Common errors.
var (
	ErrMissingFeed  = graph.ErrMissingFeed
	ErrForeignNode  = graph.ErrForeignNode
	ErrNotScalar    = graph.ErrNotScalar
	ErrNoDerivative = graph.ErrNoDerivative
)

// New creates an empty graph.
func New(name string) *Graph {
	return graph.New(name)
}

// NewVariable creates a trainable parameter.
func NewVariable(name string, value *tensor.Tensor[float32]) *Variable {
	return graph.NewVariable(name, value)
}

// NewState creates a non-trainable variable.
func NewState(name string, value *tensor.Tensor[float32]) *Variable {
	return graph.NewState(name, value)
}

// NewSession creates a session bound to g.
func NewSession(g *Graph) *Session {
	return graph.NewSession(g)
}

// Operations. See the internal package for semantics.
var (
	Add           = graph.Add
	Sub           = graph.Sub
	Mul           = graph.Mul
	Div           = graph.Div
	Neg           = graph.Neg
	Scale         = graph.Scale
	AddScalar     = graph.AddScalar
	Square        = graph.Square
	Sqrt          = graph.Sqrt
	Tanh          = graph.Tanh
	MatMul        = graph.MatMul
	Transpose     = graph.Transpose
	PowBase       = graph.PowBase
	Gather        = graph.Gather
	ScatterRows   = graph.ScatterRows
	Sum           = graph.Sum
	Mean          = graph.Mean
	ZerosLike     = graph.ZerosLike
	OnesLike      = graph.OnesLike
	RowActivity   = graph.RowActivity
	BroadcastLike = graph.BroadcastLike
	ReduceLike    = graph.ReduceLike
)
