package embeddings

import (
	"context"
	"hash/fnv"
	"strings"
)

// TokenHashEmbedder creates deterministic embeddings from hashed address
// tokens. Each token is expanded into a pseudo-random sign vector seeded by
// its hash; the token vectors are summed and L2-normalized, so addresses
// sharing tokens produce nearby vectors. Useful as a local fallback when no
// embedding service is configured, and as a stable stand-in for tests.
type TokenHashEmbedder struct {
	dimensions int
}

// NewTokenHashEmbedder creates a token-hash embedder
func NewTokenHashEmbedder(dimensions int) *TokenHashEmbedder {
	return &TokenHashEmbedder{dimensions: dimensions}
}

// Dimension returns the output dimension
func (e *TokenHashEmbedder) Dimension() int {
	return e.dimensions
}

// Embed creates a unit-normalized vector representation of text
func (e *TokenHashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector := make([]float32, e.dimensions)

	tokens := strings.Fields(strings.ToUpper(strings.TrimSpace(text)))
	if len(tokens) == 0 {
		return vector, nil
	}

	for _, token := range tokens {
		h := fnv.New64a()
		h.Write([]byte(token))
		state := h.Sum64()

		for i := 0; i < e.dimensions; i++ {
			if mix(&state)&1 == 1 {
				vector[i] += 1
			} else {
				vector[i] -= 1
			}
		}
	}

	normalizeL2(vector)
	return vector, nil
}

// EmbedBatch embeds each text independently
func (e *TokenHashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// mix advances a splitmix64 state and returns the next value
func mix(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
