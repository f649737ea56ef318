// Package optim implements optimization algorithms as builders of graph updates.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum and Nesterov
//   - Adam: Adaptive Moment Estimation
//   - Adagrad: per-element adaptive learning rates
//   - Lazy: a decorator that updates only the embedding rows a batch touched
//
// Optimizers do not touch parameter values. Updates builds, once, the
// symbolic assignments for one training step; a graph.Session applies them
// on every batch.
//
// Example usage:
//
//	g := graph.New("train")
//	loss := nn.MSELoss(model.Forward(x), y)
//
//	opt := optim.NewLazy(optim.NewAdam(optim.AdamConfig{LR: 0.001}),
//	    optim.LazyConfig{Embeddings: []nn.Trainable{embed}})
//	updates, err := opt.Updates(loss, params)
//
//	sess := graph.NewSession(g)
//	for batch := range batches {
//	    if err := sess.Apply(batch.Feeds(), updates); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"errors"
	"fmt"

	"github.com/born-ml/lazyopt/internal/autodiff"
	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/tensor"
)

// ErrGradientCount is returned when a gradient provider returns a different
// number of gradients than parameters requested.
var ErrGradientCount = errors.New("gradient count does not match parameter count")

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Updates: build the update operations for a loss and a parameter set
//   - LearningRate/SetLearningRate: read and reschedule the learning rate
//   - SetGradientProvider: route gradient requests through a provider
//   - Config: report the optimizer's options
type Optimizer interface {
	// Updates returns the assignments that perform one optimization step of
	// params against loss. Slot state for a parameter is allocated on the
	// first request that names it.
	Updates(loss *graph.Node, params []*graph.Variable, opts ...UpdateOption) ([]graph.Update, error)

	// LearningRate returns the current learning rate.
	LearningRate() float32

	// SetLearningRate changes the learning rate. Updates built earlier read
	// the new value the next time they are applied.
	SetLearningRate(lr float32)

	// SetGradientProvider replaces the source of gradients.
	SetGradientProvider(p GradientProvider)

	// Config returns the optimizer's options by name.
	Config() map[string]any
}

// GradientProvider computes gradients of a loss with respect to parameters.
//
// Implementations return exactly one gradient per parameter, in order.
type GradientProvider interface {
	Gradients(loss *graph.Node, params []*graph.Variable) ([]*graph.Node, error)
}

// UpdateOption modifies a single Updates request.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	rowScale *graph.Node
}

// WithRowScale multiplies the learning rate by scale for this request only.
//
// scale broadcasts against the parameter, so a [rows, 1] node gives every
// row its own rate. A zero entry freezes that row's parameter step.
func WithRowScale(scale *graph.Node) UpdateOption {
	return func(o *updateOptions) {
		o.rowScale = scale
	}
}

func collectOptions(opts []UpdateOption) updateOptions {
	var o updateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// hyper holds the state every optimizer shares: the learning-rate variable,
// the gradient provider and lazily created slot variables.
type hyper struct {
	name  string
	lr    *graph.Variable
	grads GradientProvider
	slots map[slotKey]*graph.Variable
}

type slotKey struct {
	slot  string
	param graph.VarID
}

func newHyper(name string, lr float32) hyper {
	return hyper{
		name:  name,
		lr:    graph.NewState(name+".learning_rate", tensor.Scalar(lr)),
		grads: autodiff.Provider{},
		slots: make(map[slotKey]*graph.Variable),
	}
}

// LearningRate returns the current learning rate.
func (h *hyper) LearningRate() float32 {
	return h.lr.Value().Item()
}

// SetLearningRate updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (h *hyper) SetLearningRate(lr float32) {
	_ = h.lr.Assign(tensor.Scalar(lr)) // scalar into scalar cannot mismatch
}

// SetGradientProvider replaces the source of gradients.
func (h *hyper) SetGradientProvider(p GradientProvider) {
	h.grads = p
}

// gradients requests gradients and checks the provider kept its contract.
func (h *hyper) gradients(loss *graph.Node, params []*graph.Variable) ([]*graph.Node, error) {
	grads, err := h.grads.Gradients(loss, params)
	if err != nil {
		return nil, fmt.Errorf("%s: gradients: %w", h.name, err)
	}
	if len(grads) != len(params) {
		return nil, fmt.Errorf("%s: %w: got %d for %d parameters", h.name, ErrGradientCount, len(grads), len(params))
	}
	return grads, nil
}

// learningRate returns the learning-rate node for one request.
func (h *hyper) learningRate(g *graph.Graph, o updateOptions) *graph.Node {
	lr := g.Var(h.lr)
	if o.rowScale != nil {
		lr = graph.Mul(lr, o.rowScale)
	}
	return lr
}

// slot returns the named state variable for param, creating it with fill on first use.
func (h *hyper) slot(name string, param *graph.Variable, fill float32) *graph.Variable {
	key := slotKey{slot: name, param: param.ID()}
	if v, ok := h.slots[key]; ok {
		return v
	}
	v := graph.NewState(param.Name()+"/"+name, tensor.Full(param.Shape(), fill))
	h.slots[key] = v
	return v
}

// Slots returns the number of slot variables allocated so far.
func (h *hyper) Slots() int {
	return len(h.slots)
}
