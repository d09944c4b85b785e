// Package model provides the embedding backends that map text to dense
// vectors. The same backend and dimension must serve both ingestion and
// query paths.
package model

import (
	"context"
	"fmt"
	"math"
	"os"

	"docvector/types"
)

// Embedder maps a passage or query to a fixed-dimension dense vector.
// Deterministic for a fixed model and input text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// NewEmbedder selects the embedding backend from config (one backend per
// deployment; mixing models degrades ranking silently).
func NewEmbedder(cfg types.Config) (Embedder, error) {
	switch cfg.EmbedderType {
	case "ollama":
		return NewOllamaEmbedder(
			os.Getenv("OLLAMA_EMBEDDING_URL"),
			os.Getenv("OLLAMA_EMBEDDING_MODEL"),
			cfg.EmbeddingDim,
		), nil
	case "openai":
		return NewOpenAIEmbedder(os.Getenv("OPENAI_EMBEDDING_MODEL"))
	case "mock":
		return NewMockEmbedder(cfg.EmbeddingDim), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", types.ErrInvalidConfiguration, cfg.EmbedderType)
	}
}

// l2normalize scales v to unit length in place so cosine similarity reduces
// to a dot product. Zero vectors pass through unchanged.
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
