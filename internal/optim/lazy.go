package optim

import (
	"fmt"
	"maps"

	"github.com/born-ml/lazyopt/internal/autodiff"
	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/nn"
)

// Lazy wraps an optimizer so that embedding tables are updated sparsely.
//
// Dense parameters get the wrapped optimizer's ordinary update. Each
// registered embedding weight gets an update whose learning rate is
// multiplied row by row by an activity mask: 1 for rows whose gradient has
// a nonzero element, 0 for rows the batch never looked up. Unseen rows
// therefore keep their values instead of drifting toward the optimum of
// whatever the update rule does with a zero gradient.
//
// Lazy installs itself as the wrapped optimizer's gradient provider, so
// every gradient request for a (loss, parameter) pair is differentiated
// once and then served from its cache.
//
// Lazy is itself an Optimizer. It is not safe for concurrent use.
//
// Example:
//
//	embed := nn.NewEmbedding(vocab, 64, rng)
//	head := nn.NewLinear(64, 1, rng)
//
//	opt := optim.NewLazy(optim.NewAdam(optim.AdamConfig{}), optim.LazyConfig{
//	    Embeddings: []nn.Trainable{embed},
//	})
//	updates, err := opt.Updates(loss, nn.CollectParameters(embed, head))
type Lazy struct {
	base     Optimizer
	diff     GradientProvider
	sparse   []*graph.Variable
	isSparse map[graph.VarID]bool
	cache    *GradientCache
	masks    map[graph.VarID]*graph.Node
	updates  []graph.Update
	options  map[string]any
}

// LazyConfig holds configuration for the Lazy decorator.
type LazyConfig struct {
	// Embeddings are the layers to update sparsely. The first parameter of
	// each layer is its table; the order sets the order of sparse updates.
	Embeddings []nn.Trainable

	// Differentiator computes gradients on cache misses (default: autodiff.Provider).
	Differentiator GradientProvider
}

// NewLazy wraps base.
//
// Panics if an embedding layer has no trainable parameters.
func NewLazy(base Optimizer, config LazyConfig) *Lazy {
	if config.Differentiator == nil {
		config.Differentiator = autodiff.Provider{}
	}

	l := &Lazy{
		base:     base,
		diff:     config.Differentiator,
		isSparse: make(map[graph.VarID]bool),
		cache:    NewGradientCache(),
		masks:    make(map[graph.VarID]*graph.Node),
	}

	names := make([]string, 0, len(config.Embeddings))
	for i, layer := range config.Embeddings {
		params := layer.Parameters()
		if len(params) == 0 {
			panic(fmt.Sprintf("lazy: embedding layer %d has no trainable parameters", i))
		}
		table := params[0]
		if l.isSparse[table.ID()] {
			continue
		}
		l.sparse = append(l.sparse, table)
		l.isSparse[table.ID()] = true
		names = append(names, table.Name())
	}
	l.options = map[string]any{"sparse_parameters": names}

	base.SetGradientProvider(l)
	return l
}

// Gradients returns the gradient of loss for each param, in order.
//
// Pairs not yet cached are differentiated in one batched call and stored;
// a pair already cached is returned as the identical node every time.
func (l *Lazy) Gradients(loss *graph.Node, params []*graph.Variable) ([]*graph.Node, error) {
	missing := make([]*graph.Variable, 0, len(params))
	queued := make(map[graph.VarID]bool)
	for _, p := range params {
		if _, ok := l.cache.Get(loss, p); ok || queued[p.ID()] {
			continue
		}
		queued[p.ID()] = true
		missing = append(missing, p)
	}

	if len(missing) > 0 {
		grads, err := l.diff.Gradients(loss, missing)
		if err != nil {
			return nil, err
		}
		if len(grads) != len(missing) {
			return nil, fmt.Errorf("lazy: %w: got %d for %d parameters", ErrGradientCount, len(grads), len(missing))
		}
		for i, p := range missing {
			l.cache.Put(loss, p, grads[i])
		}
	}

	out := make([]*graph.Node, len(params))
	for i, p := range params {
		out[i], _ = l.cache.Get(loss, p)
	}
	return out, nil
}

// Updates builds one training step: dense updates for ordinary parameters
// followed by row-masked updates for each registered embedding in params.
//
// opts apply to every request made to the wrapped optimizer; sparse
// requests add their own row scale on top.
func (l *Lazy) Updates(loss *graph.Node, params []*graph.Variable, opts ...UpdateOption) ([]graph.Update, error) {
	// Only for initialization: lets the wrapped optimizer allocate slots.
	if _, err := l.base.Updates(loss, params, opts...); err != nil {
		return nil, err
	}

	requested := make(map[graph.VarID]bool, len(params))
	dense := make([]*graph.Variable, 0, len(params))
	for _, p := range params {
		requested[p.ID()] = true
		if !l.isSparse[p.ID()] {
			dense = append(dense, p)
		}
	}
	sparse := make([]*graph.Variable, 0, len(l.sparse))
	for _, p := range l.sparse {
		if requested[p.ID()] {
			sparse = append(sparse, p)
		}
	}

	updates, err := l.base.Updates(loss, dense, opts...)
	if err != nil {
		return nil, err
	}
	l.updates = updates

	grads, err := l.Gradients(loss, sparse)
	if err != nil {
		return nil, err
	}

	masks := make(map[graph.VarID]*graph.Node, len(sparse))
	for i, p := range sparse {
		mask := graph.RowActivity(grads[i])
		masks[p.ID()] = mask

		sparseOpts := append(append(make([]UpdateOption, 0, len(opts)+1), opts...), WithRowScale(mask))
		ops, err := l.base.Updates(loss, []*graph.Variable{p}, sparseOpts...)
		if err != nil {
			return nil, err
		}
		l.updates = append(l.updates, ops...)
	}
	l.masks = masks

	return l.updates, nil
}

// ActivityMasks returns the row masks built by the last Updates call,
// keyed by parameter. Fetch them from a session to measure sparsity.
func (l *Lazy) ActivityMasks() map[graph.VarID]*graph.Node {
	return maps.Clone(l.masks)
}

// Sparse returns the registered embedding tables in registration order.
func (l *Lazy) Sparse() []*graph.Variable {
	return append([]*graph.Variable(nil), l.sparse...)
}

// Cache returns the gradient cache.
func (l *Lazy) Cache() *GradientCache {
	return l.cache
}

// Base returns the wrapped optimizer.
func (l *Lazy) Base() Optimizer {
	return l.base
}

// Option looks up a configuration option by name. Options Lazy defines
// itself take precedence over the wrapped optimizer's.
func (l *Lazy) Option(name string) (any, bool) {
	if v, ok := l.options[name]; ok {
		return v, true
	}
	v, ok := l.base.Config()[name]
	return v, ok
}

// LearningRate returns the wrapped optimizer's learning rate.
func (l *Lazy) LearningRate() float32 {
	return l.base.LearningRate()
}

// SetLearningRate sets the wrapped optimizer's learning rate.
func (l *Lazy) SetLearningRate(lr float32) {
	l.base.SetLearningRate(lr)
}

// SetGradientProvider replaces the differentiator used on cache misses.
// The wrapped optimizer keeps asking Lazy.
func (l *Lazy) SetGradientProvider(p GradientProvider) {
	l.diff = p
}

// Config returns the wrapped optimizer's configuration unchanged.
func (l *Lazy) Config() map[string]any {
	return l.base.Config()
}
