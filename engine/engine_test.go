package engine

import (
	"context"
	"testing"

	"docvector/model"
	"docvector/store"
	"docvector/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore, *model.MockEmbedder) {
	t.Helper()
	cfg := types.Config{Collection: "pdf_documents", MaxAttempts: 2}
	embedder := model.NewMockEmbedder(16)
	st := store.NewMemoryStore()
	require.NoError(t, st.CreateCollection(context.Background(), cfg.Collection, embedder.Dimension(), store.MetricCosine))
	return New(cfg, st, embedder), st, embedder
}

func index(t *testing.T, st *store.MemoryStore, embedder *model.MockEmbedder, docID uuid.UUID, chunks ...string) {
	t.Helper()
	ctx := context.Background()
	for i, text := range chunks {
		vec, err := embedder.Embed(ctx, text)
		require.NoError(t, err)
		require.NoError(t, st.Upsert(ctx, "pdf_documents", []types.Point{{
			ID:     types.PointID(docID, i),
			Vector: vec,
			Payload: types.Payload{
				DocumentID:  docID,
				Filename:    "corpus.pdf",
				ChunkIndex:  i,
				Text:        text,
				TotalChunks: len(chunks),
			},
		}}))
	}
}

func TestSearch_RanksByRelevance(t *testing.T) {
	eng, st, embedder := newTestEngine(t)
	docID := uuid.New()
	index(t, st, embedder, docID,
		"postgres connection pooling and tuning",
		"vector similarity search with embeddings",
		"kubernetes deployment rollout strategies",
	)

	results, err := eng.Search(context.Background(), "vector similarity embeddings", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "vector similarity search with embeddings", results[0].Text)
	assert.Equal(t, docID, results[0].DocumentID)
	assert.Equal(t, 1, results[0].ChunkIndex)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearch_TopKBoundsResults(t *testing.T) {
	eng, st, embedder := newTestEngine(t)
	index(t, st, embedder, uuid.New(),
		"alpha chunk one", "alpha chunk two", "alpha chunk three", "alpha chunk four",
	)

	results, err := eng.Search(context.Background(), "alpha chunk", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_InvalidTopK(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	for _, topK := range []int{0, -1, -100} {
		_, err := eng.Search(context.Background(), "anything", topK)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	results, err := eng.Search(context.Background(), "nothing indexed yet", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ScorePassthrough(t *testing.T) {
	eng, st, embedder := newTestEngine(t)
	docID := uuid.New()
	index(t, st, embedder, docID, "exactly this phrase")

	// The query matches the only chunk verbatim: cosine of a vector with
	// itself is 1.
	results, err := eng.Search(context.Background(), "exactly this phrase", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}
