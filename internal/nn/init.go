package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/lazyopt/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor[float32] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.Zeros[float32](shape)
	data := t.Data()
	for i := range data {
		data[i] = float32((uniform(rng)*2.0 - 1.0) * bound)
	}
	return t
}

// Normal fills a tensor from N(0, std²).
func Normal(shape tensor.Shape, std float64, rng *rand.Rand) *tensor.Tensor[float32] {
	t := tensor.Zeros[float32](shape)
	data := t.Data()
	for i := range data {
		data[i] = float32(normal(rng) * std)
	}
	return t
}

// Zeros creates a tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(shape tensor.Shape) *tensor.Tensor[float32] {
	return tensor.Zeros[float32](shape)
}

//nolint:gosec // math/rand is appropriate for ML weight initialization
func uniform(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()
	}
	return rng.Float64()
}

//nolint:gosec // math/rand is appropriate for ML weight initialization
func normal(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.NormFloat64()
	}
	return rng.NormFloat64()
}
