package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"docvector/types"

	"github.com/google/uuid"
)

// MemoryStore is a brute-force cosine index guarded by a RWMutex. It backs
// tests and single-process deployments with the exact contract of the
// external backends.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dimension int
	metric    string
	points    map[uuid.UUID]types.Point
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memCollection),
	}
}

func (s *MemoryStore) CreateCollection(_ context.Context, name string, dimension int, metric string) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", types.ErrInvalidConfiguration, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[name]; ok {
		if col.dimension != dimension || col.metric != metric {
			return fmt.Errorf("%w: collection %q exists with dimension=%d metric=%s",
				types.ErrConfigurationConflict, name, col.dimension, col.metric)
		}
		return nil
	}
	s.collections[name] = &memCollection{
		dimension: dimension,
		metric:    metric,
		points:    make(map[uuid.UUID]types.Point),
	}
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, points []types.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrCollectionNotFound, collection)
	}
	for _, p := range points {
		if len(p.Vector) != col.dimension {
			return fmt.Errorf("%w: vector has %d dimensions, collection %q expects %d",
				types.ErrDimensionMismatch, len(p.Vector), collection, col.dimension)
		}
	}
	for _, p := range points {
		col.points[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, collection string, vector []float32, topK int) ([]types.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrCollectionNotFound, collection)
	}
	if len(vector) != col.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection %q expects %d",
			types.ErrDimensionMismatch, len(vector), collection, col.dimension)
	}

	results := make([]types.ScoredPoint, 0, len(col.points))
	for _, p := range col.points {
		results = append(results, types.ScoredPoint{
			ID:      p.ID,
			Score:   cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK >= 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (s *MemoryStore) DeleteByDocument(_ context.Context, collection string, docID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	removed := 0
	for id, p := range col.points {
		if p.Payload.DocumentID == docID {
			delete(col.points, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) ListDocuments(_ context.Context, collection string) ([]types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	payloads := make([]types.Payload, 0, len(col.points))
	for _, p := range col.points {
		payloads = append(payloads, p.Payload)
	}
	return aggregateDocuments(payloads), nil
}

// aggregateDocuments groups payloads per document, counting stored chunks.
// chunks_processed reconstructed this way never exceeds total_chunks because
// point IDs are deterministic per (document, chunk index).
func aggregateDocuments(payloads []types.Payload) []types.Document {
	byID := make(map[uuid.UUID]*types.Document)
	for _, p := range payloads {
		doc, ok := byID[p.DocumentID]
		if !ok {
			doc = &types.Document{
				ID:          p.DocumentID,
				Filename:    p.Filename,
				TotalChunks: p.TotalChunks,
			}
			byID[p.DocumentID] = doc
		}
		doc.ChunksProcessed++
	}

	docs := make([]types.Document, 0, len(byID))
	for _, doc := range byID {
		if doc.Complete() {
			doc.Status = types.StatusComplete
		} else {
			doc.Status = types.StatusProcessing
		}
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID.String() < docs[j].ID.String()
	})
	return docs
}

// cosine computes similarity directly rather than assuming unit vectors, so
// the score is correct even if an embedder skips normalization.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
