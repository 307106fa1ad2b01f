package index

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

func newTestIndex(dim int) (*Index, *MemoryStore, *time.Time) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := NewMemoryStore()
	return New(store, dim, WithClock(func() time.Time { return now })), store, &now
}

func chunk(doc string, id int, vec ...float32) model.ChunkEmbedding {
	return model.ChunkEmbedding{
		DocumentID: doc,
		ChunkID:    id,
		TenantID:   "tenant-1",
		Content:    fmt.Sprintf("%s chunk %d", doc, id),
		Vector:     vec,
		Metadata:   model.ChunkMetadata{DocumentType: "rfp"},
	}
}

func TestUpsertThenSearchSameVectorReturnsChunkFirst(t *testing.T) {
	x, _, _ := newTestIndex(3)
	ctx := context.Background()
	vectors := map[int][]float32{
		0: {1, 0, 0},
		1: {0, 1, 0},
		2: {0.2, 0.3, 0.9},
		3: {0.7, 0.7, 0.1},
	}
	for id, vec := range vectors {
		require.NoError(t, x.UpsertChunk(ctx, chunk("doc-a", id, vec...)))
	}
	for id, vec := range vectors {
		hits, err := x.SimilaritySearch(ctx, vec, 2, -1, Scope{TenantID: "tenant-1"})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		require.Equal(t, id, hits[0].Chunk.ChunkID)
		require.InDelta(t, 1.0, hits[0].Score, 1e-6)
	}
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	x, _, _ := newTestIndex(3)
	err := x.UpsertChunk(context.Background(), chunk("doc-a", 1, 1, 2))
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = x.SimilaritySearch(context.Background(), []float32{1, 2}, 3, 0, Scope{})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestUpsertValidatesIdentity(t *testing.T) {
	x, _, _ := newTestIndex(2)
	ctx := context.Background()
	require.ErrorIs(t, x.UpsertChunk(ctx, chunk("", 1, 1, 0)), appErr.ErrInvalid)
	require.ErrorIs(t, x.UpsertChunk(ctx, chunk("doc", -1, 1, 0)), appErr.ErrInvalid)
	noTenant := chunk("doc", 1, 1, 0)
	noTenant.TenantID = ""
	require.ErrorIs(t, x.UpsertChunk(ctx, noTenant), appErr.ErrInvalid)
}

func TestUpsertRejectsDocumentOfAnotherTenant(t *testing.T) {
	x, _, _ := newTestIndex(2)
	ctx := context.Background()
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-a", 0, 1, 0)))

	other := chunk("doc-a", 0, 1, 0)
	other.TenantID = "tenant-2"
	other.Content = "replacement text"
	require.ErrorIs(t, x.UpsertChunk(ctx, other), appErr.ErrConflict)
	other.ChunkID = 1
	require.ErrorIs(t, x.UpsertChunk(ctx, other), appErr.ErrConflict)

	hits, err := x.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, Scope{TenantID: "tenant-2"})
	require.NoError(t, err)
	require.Empty(t, hits)
	hits, err = x.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, Scope{TenantID: "tenant-1"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-a chunk 0", hits[0].Chunk.Content)

	_, err = x.DeleteDocument(ctx, "doc-a")
	require.NoError(t, err)
	require.ErrorIs(t, x.UpsertChunk(ctx, other), appErr.ErrConflict)
}

func TestSearchFiltersByMinScoreAndTopK(t *testing.T) {
	x, _, _ := newTestIndex(2)
	ctx := context.Background()
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc", 1, 1, 0)))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc", 2, 1, 1)))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc", 3, 0, 1)))

	hits, err := x.SimilaritySearch(ctx, []float32{1, 0}, 5, 0.5, Scope{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, 1, hits[0].Chunk.ChunkID)
	require.Equal(t, 2, hits[1].Chunk.ChunkID)

	hits, err = x.SimilaritySearch(ctx, []float32{1, 0}, 1, -1, Scope{})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = x.SimilaritySearch(ctx, []float32{1, 0}, 0, -1, Scope{})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSearchTieBreakIsDeterministic(t *testing.T) {
	x, _, _ := newTestIndex(2)
	ctx := context.Background()
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-b", 2, 1, 0)))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-b", 1, 1, 0)))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-a", 2, 1, 0)))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-a", 1, 1, 0)))

	hits, err := x.SimilaritySearch(ctx, []float32{1, 0}, 4, 0, Scope{})
	require.NoError(t, err)
	require.Len(t, hits, 4)
	got := make([]string, 0, len(hits))
	for _, hit := range hits {
		got = append(got, fmt.Sprintf("%s/%d", hit.Chunk.DocumentID, hit.Chunk.ChunkID))
	}
	require.Equal(t, []string{"doc-a/1", "doc-b/1", "doc-a/2", "doc-b/2"}, got)
}

func TestNilVectorIsTextSearchableOnly(t *testing.T) {
	x, _, _ := newTestIndex(2)
	ctx := context.Background()
	textOnly := chunk("doc", 7)
	textOnly.Content = "Delivery within 30 days of award"
	require.NoError(t, x.UpsertChunk(ctx, textOnly))

	hits, err := x.SimilaritySearch(ctx, []float32{1, 0}, 5, -1, Scope{})
	require.NoError(t, err)
	require.Empty(t, hits)

	found, err := x.TextSearch(ctx, "DELIVERY", 5, Scope{TenantID: "tenant-1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, 7, found[0].ChunkID)

	_, err = x.TextSearch(ctx, "  ", 5, Scope{})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestScopeFiltersTenantAndDocuments(t *testing.T) {
	x, _, _ := newTestIndex(2)
	ctx := context.Background()
	other := chunk("doc-x", 1, 1, 0)
	other.TenantID = "tenant-2"
	require.NoError(t, x.UpsertChunk(ctx, other))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-a", 1, 1, 0)))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-b", 1, 1, 0)))

	hits, err := x.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, Scope{TenantID: "tenant-1", DocumentIDs: []string{"doc-b"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-b", hits[0].Chunk.DocumentID)
}

func TestDeleteDocumentTombstonesAndPurge(t *testing.T) {
	x, store, now := newTestIndex(2)
	ctx := context.Background()
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-a", 1, 1, 0)))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-a", 2, 0, 1)))
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc-b", 1, 1, 0)))

	n, err := x.DeleteDocument(ctx, "doc-a")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	hits, err := x.SimilaritySearch(ctx, []float32{1, 0}, 5, -1, Scope{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-b", hits[0].Chunk.DocumentID)

	embeddings, documents, err := x.Stats(ctx, "tenant-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, embeddings)
	require.EqualValues(t, 1, documents)

	purged, err := x.PurgeDeleted(ctx, time.Hour)
	require.NoError(t, err)
	require.Zero(t, purged)

	*now = now.Add(2 * time.Hour)
	purged, err = x.PurgeDeleted(ctx, time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 2, purged)
	require.Len(t, store.docs, 1)
}

func TestReindexRevivesTombstonedChunk(t *testing.T) {
	x, _, _ := newTestIndex(2)
	ctx := context.Background()
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc", 1, 1, 0)))
	_, err := x.DeleteDocument(ctx, "doc")
	require.NoError(t, err)
	require.NoError(t, x.UpsertChunk(ctx, chunk("doc", 1, 1, 0)))

	hits, err := x.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, Scope{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestMemoryStoreLoadRebuildsFromChunkSet(t *testing.T) {
	x, store, _ := newTestIndex(2)
	ctx := context.Background()
	store.Load([]model.ChunkEmbedding{chunk("doc", 1, 1, 0), chunk("doc", 2, 0, 1)})

	hits, err := x.SimilaritySearch(ctx, []float32{0, 1}, 1, 0, Scope{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, 2, hits[0].Chunk.ChunkID)
}

func TestConcurrentUpsertAndSearch(t *testing.T) {
	x, _, _ := newTestIndex(2)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, x.UpsertChunk(ctx, chunk(fmt.Sprintf("doc-%d", i), i, 1, float32(i))))
		}(i)
		go func() {
			defer wg.Done()
			_, err := x.SimilaritySearch(ctx, []float32{1, 0}, 3, -1, Scope{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	embeddings, documents, err := x.Stats(ctx, "")
	require.NoError(t, err)
	require.EqualValues(t, 16, embeddings)
	require.EqualValues(t, 16, documents)
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	require.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	require.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	require.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 0}))
}
