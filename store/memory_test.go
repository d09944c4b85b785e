package store

import (
	"context"
	"testing"

	"docvector/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "pdf_documents"

func newTestStore(t *testing.T, dim int) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	require.NoError(t, s.CreateCollection(context.Background(), testCollection, dim, MetricCosine))
	return s
}

func point(docID uuid.UUID, index int, text string, vector []float32) types.Point {
	return types.Point{
		ID:     types.PointID(docID, index),
		Vector: vector,
		Payload: types.Payload{
			DocumentID:  docID,
			Filename:    "doc.pdf",
			ChunkIndex:  index,
			Text:        text,
			TotalChunks: 1,
		},
	}
}

func TestCreateCollection_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)

	// Same configuration is a no-op.
	require.NoError(t, s.CreateCollection(ctx, testCollection, 3, MetricCosine))

	// Mismatched configuration conflicts.
	err := s.CreateCollection(ctx, testCollection, 4, MetricCosine)
	assert.ErrorIs(t, err, types.ErrConfigurationConflict)

	err = s.CreateCollection(ctx, testCollection, 3, "Dot")
	assert.ErrorIs(t, err, types.ErrConfigurationConflict)
}

func TestUpsert_CollectionNotFound(t *testing.T) {
	s := NewMemoryStore()
	docID := uuid.New()
	err := s.Upsert(context.Background(), "missing", []types.Point{point(docID, 0, "a", []float32{1, 0, 0})})
	assert.ErrorIs(t, err, types.ErrCollectionNotFound)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	s := newTestStore(t, 3)
	docID := uuid.New()
	err := s.Upsert(context.Background(), testCollection, []types.Point{point(docID, 0, "a", []float32{1, 0})})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestUpsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)
	docID := uuid.New()

	first := point(docID, 0, "old text", []float32{1, 0, 0})
	require.NoError(t, s.Upsert(ctx, testCollection, []types.Point{first}))

	// Same (document, chunk index), new text and vector: overwrite, not duplicate.
	second := point(docID, 0, "new text", []float32{0, 1, 0})
	require.NoError(t, s.Upsert(ctx, testCollection, []types.Point{second}))

	hits, err := s.Search(ctx, testCollection, []float32{0, 1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new text", hits[0].Payload.Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestSearch_RankingOrderAndTopK(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)
	docID := uuid.New()

	require.NoError(t, s.Upsert(ctx, testCollection, []types.Point{
		point(docID, 0, "exact", []float32{1, 0, 0}),
		point(docID, 1, "close", []float32{0.9, 0.1, 0}),
		point(docID, 2, "far", []float32{0, 0, 1}),
		point(docID, 3, "orthogonal", []float32{0, 1, 0}),
	}))

	hits, err := s.Search(ctx, testCollection, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "exact", hits[0].Payload.Text)
	assert.Equal(t, "close", hits[1].Payload.Text)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}

	// No closer point was omitted: "far" and "orthogonal" both score 0.
	assert.NotEqual(t, "exact", hits[2].Payload.Text)
	assert.NotEqual(t, "close", hits[2].Payload.Text)
}

func TestSearch_EmptyCollection(t *testing.T) {
	s := newTestStore(t, 3)
	hits, err := s.Search(context.Background(), testCollection, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	s := newTestStore(t, 3)
	_, err := s.Search(context.Background(), testCollection, []float32{1, 0}, 5)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestDeleteByDocument_Completeness(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)
	keep := uuid.New()
	drop := uuid.New()

	require.NoError(t, s.Upsert(ctx, testCollection, []types.Point{
		point(keep, 0, "keep me", []float32{1, 0, 0}),
		point(drop, 0, "drop me", []float32{1, 0, 0}),
		point(drop, 1, "drop me too", []float32{0, 1, 0}),
	}))

	removed, err := s.DeleteByDocument(ctx, testCollection, drop)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	hits, err := s.Search(ctx, testCollection, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, drop, h.Payload.DocumentID)
	}

	docs, err := s.ListDocuments(ctx, testCollection)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, keep, docs[0].ID)
}

func TestDeleteByDocument_UnknownIsNoop(t *testing.T) {
	s := newTestStore(t, 3)
	removed, err := s.DeleteByDocument(context.Background(), testCollection, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestListDocuments_Aggregation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)
	docID := uuid.New()

	pts := []types.Point{
		point(docID, 0, "a", []float32{1, 0, 0}),
		point(docID, 1, "b", []float32{0, 1, 0}),
	}
	for i := range pts {
		pts[i].Payload.TotalChunks = 3
	}
	require.NoError(t, s.Upsert(ctx, testCollection, pts))

	docs, err := s.ListDocuments(ctx, testCollection)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 3, docs[0].TotalChunks)
	assert.Equal(t, 2, docs[0].ChunksProcessed)
	assert.Equal(t, types.StatusProcessing, docs[0].Status)
}
