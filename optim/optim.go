// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// GradientProvider computes gradients of a loss with respect to parameters.
type GradientProvider = optim.GradientProvider

// UpdateOption modifies a single Updates request.
type UpdateOption = optim.UpdateOption

// ErrGradientCount is returned when a gradient provider breaks its one-gradient-per-parameter contract.
var ErrGradientCount = optim.ErrGradientCount

// WithRowScale multiplies the learning rate by a per-row scale for one request.
func WithRowScale(scale *graph.Node) UpdateOption {
	return optim.WithRowScale(scale)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	})
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}

// Adagrad

// Adagrad represents the Adagrad optimizer.
type Adagrad = optim.Adagrad

// AdagradConfig contains configuration for Adagrad optimizer.
type AdagradConfig = optim.AdagradConfig

// NewAdagrad creates a new Adagrad optimizer.
func NewAdagrad(config AdagradConfig) *Adagrad {
	return optim.NewAdagrad(config)
}

// Lazy (sparse embedding updates)

// Lazy decorates an optimizer so embedding rows with an all-zero gradient are left untouched.
type Lazy = optim.Lazy

// LazyConfig contains configuration for Lazy.
type LazyConfig = optim.LazyConfig

// GradientCache maps (loss, parameter) pairs to gradients.
type GradientCache = optim.GradientCache

// NewLazy wraps base so the first parameter of every embedding layer is updated lazily.
//
// Example:
//
//	embed := nn.NewEmbedding(50000, 128, nil)
//	opt := optim.NewLazy(optim.NewAdam(optim.AdamConfig{}), optim.LazyConfig{
//	    Embeddings: []nn.Trainable{embed},
//	})
func NewLazy(base Optimizer, config LazyConfig) *Lazy {
	return optim.NewLazy(base, config)
}
