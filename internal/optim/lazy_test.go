package optim_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/nn"
	"github.com/born-ml/lazyopt/internal/optim"
	"github.com/born-ml/lazyopt/internal/tensor"
)

type emptyLayer struct{}

func (emptyLayer) Parameters() []*graph.Variable { return nil }

// baseWithOption reports an option that Lazy also defines.
type baseWithOption struct{ *optim.SGD }

func (b baseWithOption) Config() map[string]any {
	cfg := b.SGD.Config()
	cfg["sparse_parameters"] = "from base"
	return cfg
}

func targets(updates []graph.Update) []*graph.Variable {
	out := make([]*graph.Variable, len(updates))
	for i, u := range updates {
		out[i] = u.Target
	}
	return out
}

func TestLazy_DenseAndSparseStep(t *testing.T) {
	g := graph.New("step")
	loss := g.Scalar(0)

	dense := variable("dense", []float32{1, 2}, 2)
	embed := nn.NewEmbeddingWithWeight(tensor.MustFromSlice([]float32{
		1, 2,
		3, 4,
		5, 6,
	}, tensor.Shape{3, 2}))

	grads := newConstGrads()
	grads.set(dense, 0.1, 0.2)
	grads.set(embed.Weight, 0, 0, 0.5, 0, 0, 0)

	lazy := optim.NewLazy(optim.NewSGD(optim.SGDConfig{LR: 0.01}), optim.LazyConfig{
		Embeddings:     []nn.Trainable{embed},
		Differentiator: grads,
	})

	updates, err := lazy.Updates(loss, []*graph.Variable{dense, embed.Weight})
	require.NoError(t, err)
	assert.Equal(t, []*graph.Variable{dense, embed.Weight}, targets(updates))

	mask := lazy.ActivityMasks()[embed.Weight.ID()]
	require.NotNil(t, mask)

	out, err := graph.NewSession(g).Step(nil, updates, mask)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, out[0].Data())

	assert.InDeltaSlice(t, []float32{0.999, 1.998}, dense.Value().Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{
		1, 2,
		2.995, 4,
		5, 6,
	}, embed.Weight.Value().Data(), 1e-6)
	assert.Equal(t, float32(0.01), lazy.LearningRate())
	assert.Equal(t, 1, grads.calls)
}

func TestLazy_GradientsCacheOnce(t *testing.T) {
	g := graph.New("cache")
	loss := g.Scalar(0)
	a := variable("a", []float32{1}, 1)
	b := variable("b", []float32{2}, 1)
	c := variable("c", []float32{3}, 1)

	grads := newConstGrads()
	grads.set(a, 1)
	grads.set(b, 2)
	grads.set(c, 3)

	lazy := optim.NewLazy(optim.NewSGD(optim.SGDConfig{}), optim.LazyConfig{Differentiator: grads})

	first, err := lazy.Gradients(loss, []*graph.Variable{a, b})
	require.NoError(t, err)
	second, err := lazy.Gradients(loss, []*graph.Variable{a, b})
	require.NoError(t, err)

	assert.Equal(t, 1, grads.calls)
	assert.Same(t, first[0], second[0])
	assert.Same(t, first[1], second[1])

	// Mixed hits and misses keep the requested order; only misses are differentiated.
	mixed, err := lazy.Gradients(loss, []*graph.Variable{c, a, c})
	require.NoError(t, err)
	require.Len(t, mixed, 3)
	assert.Equal(t, 2, grads.calls)
	assert.Equal(t, []*graph.Variable{c}, grads.asked[1])
	assert.Same(t, first[0], mixed[1])
	assert.Same(t, mixed[0], mixed[2])

	vals, err := graph.NewSession(g).Run(nil, mixed...)
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vals[0].Data())
	assert.Equal(t, []float32{1}, vals[1].Data())

	assert.Equal(t, 3, lazy.Cache().Len())

	// A different loss node is a different key.
	_, err = lazy.Gradients(g.Scalar(1), []*graph.Variable{a})
	require.NoError(t, err)
	assert.Equal(t, 3, grads.calls)
	assert.Equal(t, 4, lazy.Cache().Len())
}

func TestLazy_OneDifferentiationPerPair(t *testing.T) {
	g := graph.New("once")
	loss := g.Scalar(0)
	dense := variable("dense", []float32{1}, 1)
	embed := nn.NewEmbeddingWithWeight(tensor.Zeros[float32](tensor.Shape{4, 2}))

	grads := newConstGrads()
	grads.set(dense, 1)
	grads.set(embed.Weight, 0, 0, 1, 1, 0, 0, 0, 0)

	lazy := optim.NewLazy(optim.NewAdam(optim.AdamConfig{}), optim.LazyConfig{
		Embeddings:     []nn.Trainable{embed},
		Differentiator: grads,
	})
	_, err := lazy.Updates(loss, []*graph.Variable{dense, embed.Weight})
	require.NoError(t, err)
	_, err = lazy.Updates(loss, []*graph.Variable{dense, embed.Weight})
	require.NoError(t, err)

	assert.Equal(t, 1, grads.calls)
	assert.Equal(t, 2, lazy.Cache().Len())
}

func TestLazy_Partition(t *testing.T) {
	g := graph.New("partition")
	loss := g.Scalar(0)

	d1 := variable("d1", []float32{1}, 1)
	d2 := variable("d2", []float32{1}, 1)
	e1 := nn.NewEmbeddingWithWeight(tensor.Full[float32](tensor.Shape{2, 2}, 1))
	e2 := nn.NewEmbeddingWithWeight(tensor.Full[float32](tensor.Shape{2, 2}, 1))
	unused := nn.NewEmbeddingWithWeight(tensor.Full[float32](tensor.Shape{2, 2}, 1))

	grads := newConstGrads()
	grads.set(d1, 1)
	grads.set(d2, 1)
	grads.set(e1.Weight, 1, 1, 0, 0)
	grads.set(e2.Weight, 0, 0, 1, 1)

	lazy := optim.NewLazy(optim.NewSGD(optim.SGDConfig{}), optim.LazyConfig{
		Embeddings:     []nn.Trainable{e1, unused, e2, e1},
		Differentiator: grads,
	})
	assert.Equal(t, []*graph.Variable{e1.Weight, unused.Weight, e2.Weight}, lazy.Sparse())

	// Dense parameters first in request order, then sparse in registration order.
	updates, err := lazy.Updates(loss, []*graph.Variable{e2.Weight, d1, e1.Weight, d2})
	require.NoError(t, err)
	assert.Equal(t, []*graph.Variable{d1, d2, e1.Weight, e2.Weight}, targets(updates))

	masks := lazy.ActivityMasks()
	assert.Len(t, masks, 2)
	assert.NotContains(t, masks, unused.Weight.ID())
}

func TestLazy_UnseenRowsStayPut(t *testing.T) {
	run := func(t *testing.T, wrap bool) (before, after *tensor.Tensor[float32]) {
		t.Helper()
		embed := nn.NewEmbedding(3, 2, rand.New(rand.NewSource(1)))
		initial := embed.Weight.Value().Clone()

		g := graph.New("embedding")
		ids := g.Placeholder("ids", tensor.Shape{1})
		target := g.Placeholder("target", tensor.Shape{1, 2})
		loss := nn.MSELoss(embed.Forward(ids), target)

		var opt optim.Optimizer = optim.NewAdam(optim.AdamConfig{LR: 0.1})
		if wrap {
			opt = optim.NewLazy(opt, optim.LazyConfig{Embeddings: []nn.Trainable{embed}})
		}
		updates, err := opt.Updates(loss, embed.Parameters())
		require.NoError(t, err)

		sess := graph.NewSession(g)
		feed := func(id float32) graph.Feeds {
			return graph.Feeds{
				ids:    tensor.MustFromSlice([]float32{id}, tensor.Shape{1}),
				target: tensor.Full[float32](tensor.Shape{1, 2}, 1),
			}
		}

		require.NoError(t, sess.Apply(feed(0), updates))
		before = embed.Weight.Value().Clone()
		require.NoError(t, sess.Apply(feed(1), updates))
		after = embed.Weight.Value()

		assert.NotEqual(t, initial.Row(0), before.Row(0), "row 0 trains on the first batch")
		assert.Equal(t, initial.Row(2), after.Row(2), "row 2 is never looked up")
		return before, after
	}

	t.Run("lazy", func(t *testing.T) {
		before, after := run(t, true)
		assert.Equal(t, before.Row(0), after.Row(0))
		assert.NotEqual(t, before.Row(1), after.Row(1))
	})

	t.Run("dense adam drifts", func(t *testing.T) {
		before, after := run(t, false)
		assert.NotEqual(t, before.Row(0), after.Row(0))
	})
}

func TestLazy_LearningRateUntouched(t *testing.T) {
	newEmbed := func() *nn.Embedding {
		return nn.NewEmbeddingWithWeight(tensor.Full[float32](tensor.Shape{2, 2}, 1))
	}
	e1, e2 := newEmbed(), newEmbed()
	dense := variable("dense", []float32{1}, 1)

	tests := []struct {
		name   string
		layers []nn.Trainable
	}{
		{"no sparse", nil},
		{"one sparse", []nn.Trainable{e1}},
		{"two sparse", []nn.Trainable{e1, e2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New(tt.name)
			loss := g.Scalar(0)
			grads := newConstGrads()
			grads.set(dense, 1)
			grads.set(e1.Weight, 1, 1, 0, 0)
			grads.set(e2.Weight, 0, 0, 0, 0)

			lazy := optim.NewLazy(optim.NewSGD(optim.SGDConfig{LR: 0.3}), optim.LazyConfig{
				Embeddings:     tt.layers,
				Differentiator: grads,
			})
			updates, err := lazy.Updates(loss, []*graph.Variable{dense, e1.Weight, e2.Weight})
			require.NoError(t, err)
			assert.Len(t, updates, 3)
			assert.Equal(t, float32(0.3), lazy.LearningRate())
			assert.Equal(t, float32(0.3), lazy.Base().LearningRate())
		})
	}

	t.Run("error", func(t *testing.T) {
		boom := errors.New("boom")
		grads := newConstGrads()
		grads.err = boom

		lazy := optim.NewLazy(optim.NewSGD(optim.SGDConfig{LR: 0.3}), optim.LazyConfig{
			Embeddings:     []nn.Trainable{e1},
			Differentiator: grads,
		})
		_, err := lazy.Updates(graph.New("err").Scalar(0), []*graph.Variable{e1.Weight})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, float32(0.3), lazy.LearningRate())
		assert.Zero(t, lazy.Cache().Len())
	})
}

func TestLazy_Errors(t *testing.T) {
	assert.Panics(t, func() {
		optim.NewLazy(optim.NewSGD(optim.SGDConfig{}), optim.LazyConfig{
			Embeddings: []nn.Trainable{emptyLayer{}},
		})
	})

	x := variable("x", []float32{1}, 1)
	grads := newConstGrads()
	grads.set(x, 1)
	grads.drop = true

	lazy := optim.NewLazy(optim.NewSGD(optim.SGDConfig{}), optim.LazyConfig{Differentiator: grads})
	_, err := lazy.Gradients(graph.New("count").Scalar(0), []*graph.Variable{x})
	assert.ErrorIs(t, err, optim.ErrGradientCount)
}

func TestLazy_ConfigPassThrough(t *testing.T) {
	embed := nn.NewEmbeddingWithWeight(tensor.Zeros[float32](tensor.Shape{2, 2}))
	base := optim.NewAdam(optim.AdamConfig{LR: 0.002})
	lazy := optim.NewLazy(base, optim.LazyConfig{Embeddings: []nn.Trainable{embed}})

	assert.Equal(t, base.Config(), lazy.Config())
	assert.Same(t, base, lazy.Base())

	lr, ok := lazy.Option("learning_rate")
	require.True(t, ok)
	assert.Equal(t, float32(0.002), lr)

	names, ok := lazy.Option("sparse_parameters")
	require.True(t, ok)
	assert.Equal(t, []string{"embedding.weight"}, names)

	_, ok = lazy.Option("momentum")
	assert.False(t, ok)

	lazy.SetLearningRate(0.5)
	assert.Equal(t, float32(0.5), base.LearningRate())

	shadowed := optim.NewLazy(baseWithOption{optim.NewSGD(optim.SGDConfig{})}, optim.LazyConfig{})
	own, _ := shadowed.Option("sparse_parameters")
	assert.Equal(t, []string{}, own)
	assert.Equal(t, "from base", shadowed.Config()["sparse_parameters"])
}

func TestLazy_SetGradientProvider(t *testing.T) {
	g := graph.New("provider")
	x := variable("x", []float32{1}, 1)

	first := newConstGrads()
	first.set(x, 1)
	second := newConstGrads()
	second.set(x, 2)

	lazy := optim.NewLazy(optim.NewSGD(optim.SGDConfig{}), optim.LazyConfig{Differentiator: first})
	_, err := lazy.Gradients(g.Scalar(0), []*graph.Variable{x})
	require.NoError(t, err)

	lazy.SetGradientProvider(second)
	_, err = lazy.Gradients(g.Scalar(1), []*graph.Variable{x})
	require.NoError(t, err)

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestLazy_TrainsModel(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	embed := nn.NewEmbedding(8, 4, rng)
	head := nn.NewLinear(4, 1, rng)
	model := nn.NewSequential(embed, nn.NewTanh(), head)

	g := graph.New("train")
	ids := g.Placeholder("ids", tensor.Shape{4})
	y := g.Placeholder("y", tensor.Shape{4, 1})
	loss := nn.MSELoss(model.Forward(ids), y)

	lazy := optim.NewLazy(optim.NewAdam(optim.AdamConfig{LR: 0.05}), optim.LazyConfig{
		Embeddings: []nn.Trainable{embed},
	})
	updates, err := lazy.Updates(loss, model.Parameters())
	require.NoError(t, err)

	feeds := graph.Feeds{
		ids: tensor.MustFromSlice([]float32{0, 1, 2, 3}, tensor.Shape{4}),
		y:   tensor.MustFromSlice([]float32{0.5, -0.5, 0.25, -0.25}, tensor.Shape{4, 1}),
	}
	untouched := embed.Weight.Value().Row(7)

	sess := graph.NewSession(g)
	start, err := sess.Scalar(feeds, loss)
	require.NoError(t, err)
	for range 50 {
		require.NoError(t, sess.Apply(feeds, updates))
	}
	end, err := sess.Scalar(feeds, loss)
	require.NoError(t, err)

	assert.Less(t, end, start)
	assert.Equal(t, untouched, embed.Weight.Value().Row(7))
	assert.Equal(t, 3, lazy.Cache().Len())
}
