// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers built on the symbolic graph.
package nn

import (
	"math/rand"

	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/nn"
	"github.com/born-ml/lazyopt/internal/tensor"
)

// Module interface defines the common interface for all layers.
type Module = nn.Module

// Trainable is anything that owns trainable parameters.
type Trainable = nn.Trainable

// Layers

// Embedding is a row-indexed lookup table.
type Embedding = nn.Embedding

// NewEmbedding creates an embedding table initialized from N(0, 0.05²).
//
// Example:
//
//	embed := nn.NewEmbedding(10000, 256, nil)
//	vectors := embed.Forward(ids)
func NewEmbedding(numEmbeddings, embeddingDim int, rng *rand.Rand) *Embedding {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, rng)
}

// NewEmbeddingWithWeight creates an embedding table with pre-initialized weights.
func NewEmbeddingWithWeight(weight *tensor.Tensor[float32]) *Embedding {
	return nn.NewEmbeddingWithWeight(weight)
}

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// Tanh is a hyperbolic tangent activation module.
type Tanh = nn.Tanh

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh {
	return nn.NewTanh()
}

// Sequential chains modules, feeding each output to the next module.
type Sequential = nn.Sequential

// NewSequential creates a new Sequential container.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewEmbedding(vocab, 32, rng),
//	    nn.NewTanh(),
//	    nn.NewLinear(32, 1, rng),
//	)
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// Losses

// MSELoss computes mean((predictions - targets)²).
func MSELoss(predictions, targets *graph.Node) *graph.Node {
	return nn.MSELoss(predictions, targets)
}

// CollectParameters concatenates the parameters of several modules.
func CollectParameters(modules ...Trainable) []*graph.Variable {
	return nn.CollectParameters(modules...)
}
