// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides symbolic reverse-mode automatic differentiation.
//
// Example:
//
//	g := graph.New("train")
//	loss := nn.MSELoss(model.Forward(x), y)
//	grads, err := autodiff.Gradients(loss, model.Parameters())
package autodiff

import (
	"github.com/born-ml/lazyopt/internal/autodiff"
	"github.com/born-ml/lazyopt/internal/graph"
)

// Provider adapts Gradients to optim.GradientProvider.
type Provider = autodiff.Provider

// ErrNilLoss is returned when no loss node is given.
var ErrNilLoss = autodiff.ErrNilLoss

// Gradients returns d(loss)/dv for every v in vars as nodes of loss's graph.
func Gradients(loss *graph.Node, vars []*graph.Variable) ([]*graph.Node, error) {
	return autodiff.Gradients(loss, vars)
}
