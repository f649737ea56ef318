package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnknownWord is returned when a word is missing from a closed vocabulary.
var ErrUnknownWord = errors.New("word not in vocabulary")

// Whitespace is a word-level tokenizer with a vocabulary fixed at construction.
//
// Words are lower-cased and stripped of surrounding punctuation. ID 0 is
// reserved for unknown words.
type Whitespace struct {
	ids   map[string]int32
	words []string
}

// NewWhitespace builds a vocabulary from corpus in order of first appearance.
func NewWhitespace(corpus string) *Whitespace {
	w := &Whitespace{
		ids:   map[string]int32{"<unk>": 0},
		words: []string{"<unk>"},
	}
	for _, word := range split(corpus) {
		if _, ok := w.ids[word]; ok {
			continue
		}
		w.ids[word] = int32(len(w.words)) //nolint:gosec // G115: vocabulary far below 2^31.
		w.words = append(w.words, word)
	}
	return w
}

// Encode maps each word to its ID; unknown words map to 0.
func (w *Whitespace) Encode(text string) ([]int32, error) {
	words := split(text)
	ids := make([]int32, len(words))
	for i, word := range words {
		ids[i] = w.ids[word]
	}
	return ids, nil
}

// EncodeStrict is Encode that fails on unknown words.
func (w *Whitespace) EncodeStrict(text string) ([]int32, error) {
	words := split(text)
	ids := make([]int32, len(words))
	for i, word := range words {
		id, ok := w.ids[word]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWord, word)
		}
		ids[i] = id
	}
	return ids, nil
}

// Word returns the word for id.
func (w *Whitespace) Word(id int32) string {
	if id < 0 || int(id) >= len(w.words) {
		return w.words[0]
	}
	return w.words[id]
}

// VocabSize returns the number of words including <unk>.
func (w *Whitespace) VocabSize() int {
	return len(w.words)
}

// Name returns "whitespace".
func (w *Whitespace) Name() string {
	return "whitespace"
}

func split(text string) []string {
	fields := strings.Fields(text)
	words := fields[:0]
	for _, f := range fields {
		f = strings.ToLower(strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}
