package serialization

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazyopt/internal/tensor"
)

func TestSafeTensors_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	state := map[string]*tensor.Tensor[float32]{
		"0.embedding.weight": tensor.MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}),
		"2.linear.bias":      tensor.MustFromSlice([]float32{-0.5}, tensor.Shape{1}),
		"step":               tensor.Scalar[float32](7),
	}

	require.NoError(t, WriteSafeTensors(path, state, map[string]string{"optimizer": "Adam"}))

	loaded, metadata, err := ReadSafeTensors(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"optimizer": "Adam"}, metadata)
	require.Len(t, loaded, 3)
	for name, want := range state {
		got := loaded[name]
		require.NotNil(t, got, name)
		assert.Equal(t, want.Shape(), got.Shape(), name)
		assert.Equal(t, want.Data(), got.Data(), name)
	}
}

func TestSafeTensors_HeaderLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.safetensors")
	require.NoError(t, WriteSafeTensors(path, map[string]*tensor.Tensor[float32]{
		"b": tensor.Zeros[float32](tensor.Shape{2}),
		"a": tensor.Zeros[float32](tensor.Shape{1}),
	}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	size := binary.LittleEndian.Uint64(data[:8])

	var header map[string]SafeTensorHeader
	require.NoError(t, json.Unmarshal(data[8:8+size], &header))
	assert.Equal(t, [2]int64{0, 4}, header["a"].DataOffsets, "names are laid out alphabetically")
	assert.Equal(t, [2]int64{4, 12}, header["b"].DataOffsets)
	assert.Equal(t, "F32", header["b"].DType)
	assert.Len(t, data, int(8+size+12))
}

func TestDecode_Rejects(t *testing.T) {
	encode := func(header map[string]any, body []byte) []byte {
		h, err := json.Marshal(header)
		require.NoError(t, err)
		out := binary.LittleEndian.AppendUint64(nil, uint64(len(h)))
		out = append(out, h...)
		return append(out, body...)
	}
	entry := func(dtype string, shape []int64, from, to int64) SafeTensorHeader {
		return SafeTensorHeader{DType: dtype, Shape: shape, DataOffsets: [2]int64{from, to}}
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", []byte{1, 2}, ErrTruncated},
		{"header past end", binary.LittleEndian.AppendUint64(nil, 64), ErrTruncated},
		{"huge header", binary.LittleEndian.AppendUint64(nil, MaxHeaderSize+1), ErrHeaderTooLarge},
		{
			"out of bounds",
			encode(map[string]any{"w": entry("F32", []int64{2}, 0, 8)}, make([]byte, 4)),
			ErrOutOfBounds,
		},
		{
			"size does not match shape",
			encode(map[string]any{"w": entry("F32", []int64{3}, 0, 8)}, make([]byte, 8)),
			ErrOutOfBounds,
		},
		{
			"overlap",
			encode(map[string]any{
				"a": entry("F32", []int64{2}, 0, 8),
				"b": entry("F32", []int64{2}, 4, 12),
			}, make([]byte, 12)),
			ErrOffsetOverlap,
		},
		{
			"dtype",
			encode(map[string]any{"w": entry("F16", []int64{2}, 0, 4)}, make([]byte, 4)),
			ErrUnsupportedDType,
		},
		{
			"path in name",
			encode(map[string]any{"../w": entry("F32", []int64{1}, 0, 4)}, make([]byte, 4)),
			ErrInvalidTensorName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWriteStateDict_RejectsBadNames(t *testing.T) {
	err := WriteSafeTensors(filepath.Join(t.TempDir(), "bad.safetensors"), map[string]*tensor.Tensor[float32]{
		"embedding.weight/m": tensor.Zeros[float32](tensor.Shape{1}),
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidTensorName)
}
