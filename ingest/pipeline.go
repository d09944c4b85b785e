// Package ingest orchestrates chunking, embedding and indexing for one
// document at a time: text in, points in the vector index out, with
// per-chunk progress visible while work is in flight.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docvector/chunker"
	"docvector/model"
	"docvector/retry"
	"docvector/store"
	"docvector/types"

	"github.com/google/uuid"
)

type Pipeline struct {
	logger      *slog.Logger
	store       store.VectorStorer
	embedder    model.Embedder
	splitter    chunker.Splitter
	tracker     *Tracker
	collection  string
	workers     int
	maxAttempts int
}

func New(cfg types.Config, storer store.VectorStorer, embedder model.Embedder, splitter chunker.Splitter) *Pipeline {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		logger:      slog.Default(),
		store:       storer,
		embedder:    embedder,
		splitter:    splitter,
		tracker:     NewTracker(),
		collection:  cfg.Collection,
		workers:     workers,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Init creates the collection once at startup. Repeated failures here are
// fatal: nothing can be ingested or searched without the collection.
func (p *Pipeline) Init(ctx context.Context) error {
	return retry.Do(ctx, p.maxAttempts, func() error {
		return p.store.CreateCollection(ctx, p.collection, p.embedder.Dimension(), store.MetricCosine)
	})
}

type chunkJob struct {
	index int
	text  string
}

// Ingest registers the document and returns immediately with its ID and
// chunk count; embedding and indexing continue asynchronously. A document
// with no text is complete right away and writes no points.
func (p *Pipeline) Ingest(ctx context.Context, text, filename string) (types.Document, error) {
	texts, err := p.splitter.Split(text)
	if err != nil {
		return types.Document{}, fmt.Errorf("chunk %q: %w", filename, err)
	}

	doc := types.Document{
		ID:          uuid.New(),
		Filename:    filename,
		TotalChunks: len(texts),
		Status:      types.StatusProcessing,
		CreatedAt:   time.Now(),
	}

	if len(texts) == 0 {
		doc.Status = types.StatusComplete
		p.tracker.Register(doc, nil, nil)
		p.logger.Info("document has no text, nothing to index", "document_id", doc.ID, "filename", filename)
		return doc, nil
	}

	// Ingestion outlives the upload request. done lets Delete wait for the
	// worker pool to drain before removing points.
	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	p.tracker.Register(doc, cancel, done)

	go func() {
		defer close(done)
		p.process(workCtx, doc, texts)
	}()

	return doc, nil
}

// process runs the worker pool for one document. Workers embed and upsert
// chunks independently; their completions flow back over a channel so this
// goroutine is the only writer of the progress counter.
func (p *Pipeline) process(ctx context.Context, doc types.Document, texts []string) {
	workers := p.workers
	if workers > len(texts) {
		workers = len(texts)
	}

	jobs := make(chan chunkJob)
	results := make(chan error, len(texts))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- p.processChunk(ctx, doc, job)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range texts {
			select {
			case jobs <- chunkJob{index: i, text: t}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	failed := 0
	for err := range results {
		if err != nil {
			failed++
			p.logger.Error("chunk failed", "document_id", doc.ID, "error", err)
			continue
		}
		p.tracker.Advance(doc.ID)
	}

	if ctx.Err() != nil {
		// Document was deleted mid-ingestion; the tracker entry is gone and
		// any committed points have been removed by the delete call.
		return
	}

	if failed > 0 {
		p.tracker.SetStatus(doc.ID, types.StatusFailed)
		p.logger.Error("ingestion failed", "document_id", doc.ID, "filename", doc.Filename,
			"failed_chunks", failed, "total_chunks", doc.TotalChunks)
		return
	}

	p.tracker.SetStatus(doc.ID, types.StatusComplete)
	p.logger.Info("ingestion complete", "document_id", doc.ID, "filename", doc.Filename,
		"total_chunks", doc.TotalChunks)
}

// processChunk embeds one chunk and upserts its point. Both steps retry
// transient backend failures; the point ID makes retried upserts overwrite
// instead of duplicate.
func (p *Pipeline) processChunk(ctx context.Context, doc types.Document, job chunkJob) error {
	var vector []float32
	err := retry.Do(ctx, p.maxAttempts, func() error {
		var err error
		vector, err = p.embedder.Embed(ctx, job.text)
		return err
	})
	if err != nil {
		return fmt.Errorf("embed chunk %d: %w", job.index, err)
	}

	// The document may have been deleted while the embed was in flight; do
	// not commit its point.
	if err := ctx.Err(); err != nil {
		return err
	}

	point := types.Point{
		ID:     types.PointID(doc.ID, job.index),
		Vector: vector,
		Payload: types.Payload{
			DocumentID:  doc.ID,
			Filename:    doc.Filename,
			ChunkIndex:  job.index,
			Text:        job.text,
			TotalChunks: doc.TotalChunks,
		},
	}

	err = retry.Do(ctx, p.maxAttempts, func() error {
		return p.store.Upsert(ctx, p.collection, []types.Point{point})
	})
	if err != nil {
		return fmt.Errorf("upsert chunk %d: %w", job.index, err)
	}
	return nil
}

// Delete cancels any in-flight ingestion for the document, waits for its
// workers to drain, then removes its points from the index. The wait is what
// keeps a chunk committed mid-cancel from outliving the delete. Deleting an
// unknown document removes nothing and is not an error.
func (p *Pipeline) Delete(ctx context.Context, docID uuid.UUID) (int, error) {
	p.tracker.Remove(docID)

	var removed int
	err := retry.Do(ctx, p.maxAttempts, func() error {
		var err error
		removed, err = p.store.DeleteByDocument(ctx, p.collection, docID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete document %s: %w", docID, err)
	}
	return removed, nil
}

// List merges the index's per-document aggregation with tracker state. The
// tracker is authoritative for documents ingested by this process: it knows
// about zero-chunk and failed documents that left no points behind.
func (p *Pipeline) List(ctx context.Context) ([]types.Document, error) {
	var indexed []types.Document
	err := retry.Do(ctx, p.maxAttempts, func() error {
		var err error
		indexed, err = p.store.ListDocuments(ctx, p.collection)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	byID := make(map[uuid.UUID]int, len(indexed))
	for i, doc := range indexed {
		byID[doc.ID] = i
	}
	for _, doc := range p.tracker.List() {
		if i, ok := byID[doc.ID]; ok {
			indexed[i] = doc
		} else {
			indexed = append(indexed, doc)
		}
	}
	return indexed, nil
}

// Get reports one document's progress, preferring tracker state.
func (p *Pipeline) Get(ctx context.Context, docID uuid.UUID) (types.Document, bool, error) {
	if doc, ok := p.tracker.Get(docID); ok {
		return doc, true, nil
	}
	docs, err := p.List(ctx)
	if err != nil {
		return types.Document{}, false, err
	}
	for _, doc := range docs {
		if doc.ID == docID {
			return doc, true, nil
		}
	}
	return types.Document{}, false, nil
}
