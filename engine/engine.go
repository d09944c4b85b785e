// Package engine answers natural-language queries by embedding them and
// ranking stored chunks by similarity.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"docvector/model"
	"docvector/retry"
	"docvector/store"
	"docvector/types"
)

type Engine struct {
	logger      *slog.Logger
	store       store.VectorStorer
	embedder    model.Embedder
	collection  string
	maxAttempts int
}

func New(cfg types.Config, storer store.VectorStorer, embedder model.Embedder) *Engine {
	return &Engine{
		logger:      slog.Default(),
		store:       storer,
		embedder:    embedder,
		collection:  cfg.Collection,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Search embeds the query with the same model used at ingestion and returns
// up to topK chunks ranked by descending similarity. An empty index yields
// an empty result, not an error.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]types.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", types.ErrInvalidArgument, topK)
	}

	var vector []float32
	err := retry.Do(ctx, e.maxAttempts, func() error {
		var err error
		vector, err = e.embedder.Embed(ctx, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var hits []types.ScoredPoint
	err = retry.Do(ctx, e.maxAttempts, func() error {
		var err error
		hits, err = e.store.Search(ctx, e.collection, vector, topK)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]types.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, types.SearchResult{
			Score:       hit.Score,
			DocumentID:  hit.Payload.DocumentID,
			Filename:    hit.Payload.Filename,
			ChunkIndex:  hit.Payload.ChunkIndex,
			Text:        hit.Payload.Text,
			TotalChunks: hit.Payload.TotalChunks,
		})
	}

	e.logger.Info("search done", "top_k", topK, "results", len(results))
	return results, nil
}
