// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer turns text into embedding row indices.
//
// Supported tokenizers:
//   - Whitespace: a word vocabulary built from a corpus
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base, r50k_base)
//
// Example usage:
//
//	import "github.com/born-ml/lazyopt/tokenizer"
//
//	tok, err := tokenizer.New("cl100k_base", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := tok.Encode("Hello, world!")
//	embed := nn.NewEmbedding(tok.VocabSize(), 64, nil)
package tokenizer

import (
	"github.com/born-ml/lazyopt/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
type Tokenizer = tokenizer.Tokenizer

// Whitespace is a word-level tokenizer with a fixed vocabulary.
type Whitespace = tokenizer.Whitespace

// TikToken wraps an OpenAI BPE encoding.
type TikToken = tokenizer.TikToken

// ErrUnknownWord is returned by Whitespace.EncodeStrict for out-of-vocabulary words.
var ErrUnknownWord = tokenizer.ErrUnknownWord

// New returns a tokenizer by name: "whitespace" or a tiktoken encoding.
func New(name, corpus string) (Tokenizer, error) {
	return tokenizer.New(name, corpus)
}

// NewWhitespace builds a word vocabulary from corpus.
func NewWhitespace(corpus string) *Whitespace {
	return tokenizer.NewWhitespace(corpus)
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// VocabSizeOf returns the embedding table height an encoding needs, or 0 if unknown.
func VocabSizeOf(encodingName string) int {
	return tokenizer.VocabSizeOf(encodingName)
}
