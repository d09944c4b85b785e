package ingest

import (
	"context"
	"testing"
	"time"

	"docvector/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackedDocument(total int) types.Document {
	return types.Document{
		ID:          uuid.New(),
		Filename:    "doc.pdf",
		TotalChunks: total,
		Status:      types.StatusProcessing,
	}
}

func TestTrackerAdvance_Monotonic(t *testing.T) {
	tr := NewTracker()
	doc := trackedDocument(2)
	tr.Register(doc, nil, nil)

	tr.Advance(doc.ID)
	got, ok := tr.Get(doc.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.ChunksProcessed)

	tr.Advance(doc.ID)
	// Extra advances past total are dropped.
	tr.Advance(doc.ID)
	tr.Advance(doc.ID)

	got, _ = tr.Get(doc.ID)
	assert.Equal(t, 2, got.ChunksProcessed)
	assert.True(t, got.Complete())
}

func TestTrackerAdvance_UnknownDocument(t *testing.T) {
	tr := NewTracker()
	tr.Advance(uuid.New())

	_, ok := tr.Get(uuid.New())
	assert.False(t, ok)
}

func TestTrackerRemove_CancelsWork(t *testing.T) {
	tr := NewTracker()
	doc := trackedDocument(3)

	ctx, cancel := context.WithCancel(context.Background())
	tr.Register(doc, cancel, nil)

	tr.Remove(doc.ID)

	_, ok := tr.Get(doc.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	// Removing again is harmless.
	tr.Remove(doc.ID)
}

func TestTrackerRemove_WaitsForDrain(t *testing.T) {
	tr := NewTracker()
	doc := trackedDocument(3)
	done := make(chan struct{})
	tr.Register(doc, nil, done)

	finished := make(chan struct{})
	go func() {
		tr.Remove(doc.ID)
		close(finished)
	}()

	select {
	case <-finished:
		t.Fatal("Remove returned while ingestion was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Remove did not return after ingestion drained")
	}
}

func TestTrackerList_Sorted(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.Register(trackedDocument(1), nil, nil)
	}

	docs := tr.List()
	require.Len(t, docs, 5)
	for i := 1; i < len(docs); i++ {
		assert.Less(t, docs[i-1].ID.String(), docs[i].ID.String())
	}
}
