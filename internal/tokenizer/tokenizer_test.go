package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitespace_Encode(t *testing.T) {
	tok := NewWhitespace("The cat sat. the DOG sat!")

	assert.Equal(t, 5, tok.VocabSize()) // <unk> the cat sat dog
	assert.Equal(t, "whitespace", tok.Name())

	ids, err := tok.Encode("dog, the cat... bird")
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 1, 2, 0}, ids)

	assert.Equal(t, "cat", tok.Word(2))
	assert.Equal(t, "<unk>", tok.Word(99))
	assert.Equal(t, "<unk>", tok.Word(-1))
}

func TestWhitespace_EncodeStrict(t *testing.T) {
	tok := NewWhitespace("alpha beta")

	ids, err := tok.EncodeStrict("Beta alpha")
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 1}, ids)

	_, err = tok.EncodeStrict("alpha gamma")
	assert.ErrorIs(t, err, ErrUnknownWord)
}

func TestWhitespace_Empty(t *testing.T) {
	tok := NewWhitespace("  ...  ")
	assert.Equal(t, 1, tok.VocabSize())

	ids, err := tok.Encode("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNew(t *testing.T) {
	tok, err := New("", "a b")
	require.NoError(t, err)
	assert.Equal(t, "whitespace", tok.Name())

	tok, err = New("Whitespace", "a b")
	require.NoError(t, err)
	assert.Equal(t, 3, tok.VocabSize())

	_, err = New("invalid_encoding", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_encoding")
}

func TestVocabSizeOf(t *testing.T) {
	tests := []struct {
		encoding string
		want     int
	}{
		{"cl100k_base", 100277},
		{"p50k_base", 50281},
		{"r50k_base", 50257},
		{"o200k_base", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			assert.Equal(t, tt.want, VocabSizeOf(tt.encoding))
		})
	}
}

func TestTikToken_Encode(t *testing.T) {
	tok, err := NewTikToken("cl100k_base")
	if err != nil {
		// The BPE ranks are downloaded on first use.
		t.Skipf("cl100k_base unavailable: %v", err)
	}

	assert.Equal(t, "cl100k_base", tok.Name())
	assert.Equal(t, 100277, tok.VocabSize())

	ids, err := tok.Encode("hello world")
	require.NoError(t, err)
	assert.Equal(t, []int32{15339, 1917}, ids)
	for _, id := range ids {
		assert.Less(t, int(id), tok.VocabSize())
	}
}
