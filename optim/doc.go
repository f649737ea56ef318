// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Adagrad: Adaptive per-element learning rates
//   - Lazy: sparse (row-masked) updates for embedding tables on top of any of the above
//   - Optimizer interface for custom optimizers
//
// Optimizers build graph updates once; a graph.Session applies them per batch.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/lazyopt/graph"
//	    "github.com/born-ml/lazyopt/nn"
//	    "github.com/born-ml/lazyopt/optim"
//	    "github.com/born-ml/lazyopt/tensor"
//	)
//
//	func main() {
//	    embed := nn.NewEmbedding(10000, 64, nil)
//	    head := nn.NewLinear(64, 1, nil)
//
//	    g := graph.New("train")
//	    ids := g.Placeholder("ids", tensor.Shape{32})
//	    y := g.Placeholder("y", tensor.Shape{32, 1})
//	    loss := nn.MSELoss(head.Forward(embed.Forward(ids)), y)
//
//	    opt := optim.NewLazy(
//	        optim.NewAdam(optim.AdamConfig{LR: 0.001}),
//	        optim.LazyConfig{Embeddings: []nn.Trainable{embed}},
//	    )
//	    updates, err := opt.Updates(loss, nn.CollectParameters(embed, head))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    sess := graph.NewSession(g)
//	    for batch := range batches {
//	        if err := sess.Apply(graph.Feeds{ids: batch.IDs, y: batch.Y}, updates); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Lazy Updates
//
// For every registered embedding table, Lazy derives a row mask from the
// table's gradient (1 where a row has any nonzero element) and asks the
// wrapped optimizer for that table's update with the learning rate
// multiplied by the mask. Rows the batch never looked up keep their
// values. The wrapped optimizer's learning rate is never modified.
//
// # Training Loop Pattern
//
//	for epoch := range numEpochs {
//	    for batch := range dataLoader {
//	        out, err := sess.Step(batch.Feeds(), updates, loss)
//	        if err != nil {
//	            return err
//	        }
//	        log.Printf("loss=%.4f", out[0].Item())
//	    }
//	}
package optim
