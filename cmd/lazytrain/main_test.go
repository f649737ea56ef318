package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazyopt/internal/serialization"
)

func TestRun_SaveAndResume(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		optimizer: "adam",
		steps:     10,
		batch:     4,
		dim:       4,
		tokenizer: "whitespace",
		db:        filepath.Join(dir, "runs.db"),
		save:      filepath.Join(dir, "model.safetensors"),
		lazy:      true,
		seed:      3,
	}
	require.NoError(t, run(context.Background(), opts))

	state, metadata, err := serialization.ReadSafeTensors(opts.save)
	require.NoError(t, err)
	assert.Contains(t, state, "0.embedding.weight")
	assert.Contains(t, state, "2.linear.weight")
	assert.Contains(t, state, "2.linear.bias")
	assert.Equal(t, "Adam", metadata["optimizer"])
	assert.Equal(t, "whitespace", metadata["tokenizer"])

	opts.load = opts.save
	opts.save = ""
	opts.optimizer = "sgd"
	opts.lazy = false
	require.NoError(t, run(context.Background(), opts))
}

func TestRun_Errors(t *testing.T) {
	base := options{optimizer: "adam", steps: 1, batch: 2, dim: 2, tokenizer: "whitespace", seed: 1}

	bad := base
	bad.optimizer = "rmsprop"
	assert.ErrorContains(t, run(context.Background(), bad), "unknown optimizer")

	bad = base
	bad.tokenizer = "not_an_encoding"
	assert.Error(t, run(context.Background(), bad))

	bad = base
	bad.corpus = filepath.Join(t.TempDir(), "missing.txt")
	assert.ErrorContains(t, run(context.Background(), bad), "read corpus")

	bad = base
	bad.load = filepath.Join(t.TempDir(), "missing.safetensors")
	assert.ErrorContains(t, run(context.Background(), bad), "load checkpoint")
}

func TestNewBase(t *testing.T) {
	for _, name := range []string{"sgd", "SGD", "adam", "adagrad"} {
		opt, err := newBase(options{optimizer: name, lr: 0.5})
		require.NoError(t, err, name)
		assert.Equal(t, float32(0.5), opt.LearningRate(), name)
	}
}
