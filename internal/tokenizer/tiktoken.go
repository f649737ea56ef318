package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// encodingCL100kBase is the encoding name for GPT-4 and GPT-3.5-turbo.
	encodingCL100kBase = "cl100k_base"
	// encodingP50kBase is the encoding name for GPT-3.
	encodingP50kBase = "p50k_base"
	// encodingR50kBase is the encoding name for older GPT-3 models.
	encodingR50kBase = "r50k_base"
)

// TikToken wraps the pkoukk/tiktoken-go library for OpenAI tokenizers.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: Codex, text-davinci-002/003
//   - r50k_base: GPT-3, davinci-002, babbage-002
//
// The encoding files are fetched and cached by tiktoken-go on first use.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
func NewTikToken(encodingName string) (*TikToken, error) {
	if VocabSizeOf(encodingName) == 0 {
		return nil, fmt.Errorf("unsupported tiktoken encoding %q", encodingName)
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     encodingName,
	}, nil
}

// Encode converts text to token IDs.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)

	// Convert []int to []int32.
	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}

	return result, nil
}

// VocabSize returns the total vocabulary size, special tokens included.
func (t *TikToken) VocabSize() int {
	return VocabSizeOf(t.name)
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return t.name
}

// VocabSizeOf returns the embedding table height needed for an encoding,
// or 0 for an unknown one.
func VocabSizeOf(encodingName string) int {
	switch encodingName {
	case encodingCL100kBase:
		return 100277 // 100256 ranks plus <|endoftext|> and ChatML specials
	case encodingP50kBase:
		return 50281 // 50280 ranks plus <|endoftext|>
	case encodingR50kBase:
		return 50257
	default:
		return 0
	}
}
