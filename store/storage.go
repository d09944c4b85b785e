// Package store contains the vector index adapters. The VectorStorer
// contract is the substitution boundary that keeps the retrieval core
// engine-agnostic: Qdrant, pgvector and an in-memory implementation all
// satisfy it.
package store

import (
	"context"
	"fmt"

	"docvector/types"

	"github.com/google/uuid"
)

const (
	MetricCosine = "Cosine"
)

// VectorStorer is the persistent vector index the core writes chunks to and
// searches against.
type VectorStorer interface {
	// CreateCollection is idempotent: an existing collection with matching
	// dimension and metric is a no-op, a mismatch is ErrConfigurationConflict.
	CreateCollection(ctx context.Context, name string, dimension int, metric string) error

	// Upsert overwrites points by ID. Vectors whose length differs from the
	// collection dimension fail with ErrDimensionMismatch.
	Upsert(ctx context.Context, collection string, points []types.Point) error

	// Search returns up to topK points ordered by descending similarity.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]types.ScoredPoint, error)

	// DeleteByDocument removes every point whose payload carries the given
	// document ID and reports how many were removed (0 is not an error).
	DeleteByDocument(ctx context.Context, collection string, docID uuid.UUID) (int, error)

	// ListDocuments aggregates stored payloads per document.
	ListDocuments(ctx context.Context, collection string) ([]types.Document, error)
}

// NewStore selects the vector index backend from config.
func NewStore(ctx context.Context, cfg types.Config) (VectorStorer, error) {
	switch cfg.VectorBackend {
	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			URL:    cfg.QdrantURL,
			APIKey: cfg.QdrantAPIKey,
		}), nil
	case "postgres":
		return NewPostgresStore(ctx, postgresConnStr())
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", types.ErrInvalidConfiguration, cfg.VectorBackend)
	}
}
