package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/lazyopt/internal/graph"
	"github.com/born-ml/lazyopt/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// This is a fundamental layer in NLP and sequence models, converting token IDs
// to continuous embeddings. The embedding vectors are learnable parameters.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: indices [n] -> embeddings [n, EmbedDim]
//   - Backward: gradients scatter-add to weight rows; rows not looked up get zero
//
// Example:
//
//	// Vocabulary of 10000 words, embedding dimension 256
//	embed := nn.NewEmbedding(10000, 256, rng)
//
//	ids := g.Placeholder("ids", tensor.Shape{batch})
//	vectors := embed.Forward(ids) // [batch, 256]
type Embedding struct {
	Weight   *graph.Variable // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int             // Number of embeddings (vocabulary size)
	EmbedDim int             // Embedding dimension (vector size)
}

// NewEmbedding creates a new Embedding layer.
//
// The embedding weights are initialized from N(0, 0.05²). For other
// initialization strategies, initialize the weight tensor manually and pass
// it to NewEmbeddingWithWeight. A nil rng uses the global source.
func NewEmbedding(numEmbeddings, embeddingDim int, rng *rand.Rand) *Embedding {
	weight := Normal(tensor.Shape{numEmbeddings, embeddingDim}, 0.05, rng)
	return NewEmbeddingWithWeight(weight)
}

// NewEmbeddingWithWeight creates an Embedding layer with pre-initialized weights.
//
// Panics if weight is not 2-D.
func NewEmbeddingWithWeight(weight *tensor.Tensor[float32]) *Embedding {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding weight must be 2D, got shape %v", shape))
	}

	return &Embedding{
		Weight:   graph.NewVariable("embedding.weight", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward performs embedding lookup.
//
// indices must be a 1-D node of integral values in [0, NumEmbed); an
// out-of-range index fails when the graph is evaluated.
func (e *Embedding) Forward(indices *graph.Node) *graph.Node {
	return graph.Gather(indices.Graph().Var(e.Weight), indices)
}

// Parameters returns the list of trainable parameters. The weight is first.
func (e *Embedding) Parameters() []*graph.Variable {
	return []*graph.Variable{e.Weight}
}
