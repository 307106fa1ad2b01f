package index

import (
	"context"
	"time"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
)

// Mirror serves reads from a MemoryStore and sends writes to a durable store
// first. The memory side is only touched after the durable write succeeded.
type Mirror struct {
	durable Store
	mem     *MemoryStore
}

func NewMirror(durable Store, mem *MemoryStore) *Mirror {
	return &Mirror{durable: durable, mem: mem}
}

func (m *Mirror) Upsert(ctx context.Context, chunk *model.ChunkEmbedding) error {
	if err := m.durable.Upsert(ctx, chunk); err != nil {
		return err
	}
	return m.mem.Upsert(ctx, chunk)
}

func (m *Mirror) Search(ctx context.Context, query []float32, minScore float64, limit int, scope Scope) ([]model.ChunkHit, error) {
	return m.mem.Search(ctx, query, minScore, limit, scope)
}

func (m *Mirror) TextSearch(ctx context.Context, text string, limit int, scope Scope) ([]model.ChunkEmbedding, error) {
	return m.mem.TextSearch(ctx, text, limit, scope)
}

func (m *Mirror) DeleteDocument(ctx context.Context, documentID string, at time.Time) (int64, error) {
	n, err := m.durable.DeleteDocument(ctx, documentID, at)
	if err != nil {
		return 0, err
	}
	if _, err := m.mem.DeleteDocument(ctx, documentID, at); err != nil {
		return 0, err
	}
	return n, nil
}

func (m *Mirror) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	n, err := m.durable.PurgeDeleted(ctx, before)
	if err != nil {
		return 0, err
	}
	if _, err := m.mem.PurgeDeleted(ctx, before); err != nil {
		return 0, err
	}
	return n, nil
}

func (m *Mirror) Stats(ctx context.Context, tenantID string) (int64, int64, error) {
	return m.mem.Stats(ctx, tenantID)
}

var _ Store = (*Mirror)(nil)
