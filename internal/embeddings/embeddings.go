package embeddings

import (
	"context"
	"errors"
	"math"
)

// ErrModelUnavailable indicates the embedding model could not be reached.
// This is an infrastructure failure, not an abstention: callers must surface
// it rather than treat the request as "no match".
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Embedder generates fixed-dimension, L2-normalized embedding vectors.
// Output must be stable across calls for identical text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// normalizeL2 scales a vector to unit length in place. Zero vectors are
// left untouched.
func normalizeL2(vector []float32) {
	var norm float32
	for _, val := range vector {
		norm += val * val
	}
	norm = float32(math.Sqrt(float64(norm)))

	if norm > 0 {
		for i := range vector {
			vector[i] /= norm
		}
	}
}

// Dot returns the inner product of two vectors. For unit-normalized vectors
// this equals their cosine similarity.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var result float64
	for i := 0; i < len(a); i++ {
		result += float64(a[i]) * float64(b[i])
	}
	return result
}
