package ingest

import (
	"context"
	"sort"
	"sync"

	"docvector/types"

	"github.com/google/uuid"
)

// Tracker is the in-memory registry of documents this process has ingested.
// Progress counters are advanced only by the per-document coordinator
// goroutine; the mutex protects concurrent readers from the API side.
type Tracker struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*trackedDoc
}

type trackedDoc struct {
	doc    types.Document
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		docs: make(map[uuid.UUID]*trackedDoc),
	}
}

// Register adds the document. For documents with background work, done must
// be closed when the worker pool has fully drained; Remove blocks on it.
func (t *Tracker) Register(doc types.Document, cancel context.CancelFunc, done chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.docs[doc.ID] = &trackedDoc{doc: doc, cancel: cancel, done: done}
}

// Advance increments chunks_processed by one. The count never decreases and
// never exceeds total_chunks.
func (t *Tracker) Advance(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	td, ok := t.docs[id]
	if !ok {
		return
	}
	if td.doc.ChunksProcessed < td.doc.TotalChunks {
		td.doc.ChunksProcessed++
	}
}

func (t *Tracker) SetStatus(id uuid.UUID, status types.DocumentStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if td, ok := t.docs[id]; ok {
		td.doc.Status = status
	}
}

func (t *Tracker) Get(id uuid.UUID) (types.Document, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	td, ok := t.docs[id]
	if !ok {
		return types.Document{}, false
	}
	return td.doc, true
}

// Remove drops the document from the registry, cancels any in-flight
// ingestion work for it and waits for that work to drain. When Remove
// returns, no worker will commit another point for this document.
func (t *Tracker) Remove(id uuid.UUID) {
	t.mu.Lock()
	td, ok := t.docs[id]
	if ok {
		delete(t.docs, id)
	}
	t.mu.Unlock()

	if !ok {
		return
	}
	if td.cancel != nil {
		td.cancel()
	}
	if td.done != nil {
		<-td.done
	}
}

func (t *Tracker) List() []types.Document {
	t.mu.RLock()
	defer t.mu.RUnlock()
	docs := make([]types.Document, 0, len(t.docs))
	for _, td := range t.docs {
		docs = append(docs, td.doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID.String() < docs[j].ID.String()
	})
	return docs
}
