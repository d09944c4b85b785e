package model

import (
	"context"
	"hash/fnv"
	"strings"
)

// MockEmbedder produces deterministic vectors from token hashes. It needs no
// external service, which makes it useful in tests and offline runs; related
// texts sharing words land near each other, which is enough for ranking
// assertions.
type MockEmbedder struct {
	dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &MockEmbedder{dim: dim}
}

func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[int(h.Sum32()%uint32(e.dim))] += 1
	}
	l2normalize(vec)
	return vec, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dim
}
