// Package tokenizer turns text into embedding row indices.
package tokenizer

import (
	"fmt"
	"strings"
)

// Tokenizer converts text to token IDs in [0, VocabSize()).
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// VocabSize returns the number of distinct IDs, i.e. the embedding table height.
	VocabSize() int

	// Name identifies the tokenizer.
	Name() string
}

// New returns a tokenizer by name.
//
// "whitespace" builds a word vocabulary from corpus; any other name is
// treated as a tiktoken encoding such as "cl100k_base".
func New(name, corpus string) (Tokenizer, error) {
	switch strings.ToLower(name) {
	case "", "whitespace":
		return NewWhitespace(corpus), nil
	default:
		tok, err := NewTikToken(name)
		if err != nil {
			return nil, fmt.Errorf("tokenizer %q: %w", name, err)
		}
		return tok, nil
	}
}
