package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cisbeo/scorpiusProject-sub002/internal/index"
	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/querycache"
)

func TestQueryCachePurgeJob(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := querycache.NewMemoryStore()
	cache := querycache.New(store, querycache.WithClock(func() time.Time { return now }))
	ctx := context.Background()
	scope := querycache.Scope{TenantID: "t1"}

	_, err := cache.Put(ctx, "short lived", scope, map[string]string{"answer": "a"}, 60)
	require.NoError(t, err)
	_, err = cache.Put(ctx, "long lived", scope, map[string]string{"answer": "b"}, 3600)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	job := NewQueryCachePurgeJob(cache)
	require.Equal(t, "query_cache_purge", job.Name())
	require.NoError(t, job.Run(ctx))
	require.Equal(t, 1, store.Len())
}

type failingPurger struct{}

func (failingPurger) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, errors.New("db down")
}

func TestQueryCachePurgeJobPropagatesErrors(t *testing.T) {
	require.Error(t, NewQueryCachePurgeJob(failingPurger{}).Run(context.Background()))
	require.NoError(t, NewQueryCachePurgeJob(nil).Run(context.Background()))
}

func TestChunkTombstonePurgeJob(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := index.NewMemoryStore()
	idx := index.New(store, 2, index.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, idx.UpsertChunk(ctx, model.ChunkEmbedding{DocumentID: "old", TenantID: "t1", Vector: []float32{1, 0}}))
	require.NoError(t, idx.UpsertChunk(ctx, model.ChunkEmbedding{DocumentID: "recent", TenantID: "t1", Vector: []float32{0, 1}}))
	_, err := idx.DeleteDocument(ctx, "old")
	require.NoError(t, err)
	now = now.Add(6 * 24 * time.Hour)
	_, err = idx.DeleteDocument(ctx, "recent")
	require.NoError(t, err)

	now = now.Add(2 * 24 * time.Hour)
	job := NewChunkTombstonePurgeJob(idx, 7)
	require.NoError(t, job.Run(ctx))

	purged, err := store.PurgeDeleted(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)
}
