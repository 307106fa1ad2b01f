package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

// MemoryStore keeps chunks in process. Searches are brute force over the
// live chunk set, so there is nothing to rebuild beyond Load.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[int]*model.ChunkEmbedding
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[int]*model.ChunkEmbedding)}
}

// Load replaces the content of the store with the given chunk set.
func (m *MemoryStore) Load(chunks []model.ChunkEmbedding) {
	docs := make(map[string]map[int]*model.ChunkEmbedding)
	for i := range chunks {
		item := cloneChunk(&chunks[i])
		if docs[item.DocumentID] == nil {
			docs[item.DocumentID] = make(map[int]*model.ChunkEmbedding)
		}
		docs[item.DocumentID][item.ChunkID] = item
	}
	m.mu.Lock()
	m.docs = docs
	m.mu.Unlock()
}

// Upsert rejects a chunk whose document already holds chunks of another
// tenant, tombstoned ones included.
func (m *MemoryStore) Upsert(ctx context.Context, chunk *model.ChunkEmbedding) error {
	item := cloneChunk(chunk)
	m.mu.Lock()
	defer m.mu.Unlock()
	chunks := m.docs[item.DocumentID]
	for _, prev := range chunks {
		if prev.TenantID != item.TenantID {
			return fmt.Errorf("%w: document %s belongs to another tenant", appErr.ErrConflict, item.DocumentID)
		}
		break
	}
	if chunks == nil {
		chunks = make(map[int]*model.ChunkEmbedding)
		m.docs[item.DocumentID] = chunks
	}
	if prev, ok := chunks[item.ChunkID]; ok {
		item.CreatedAt = prev.CreatedAt
	}
	chunks[item.ChunkID] = item
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, query []float32, minScore float64, limit int, scope Scope) ([]model.ChunkHit, error) {
	m.mu.RLock()
	var hits []model.ChunkHit
	for _, chunks := range m.docs {
		for _, chunk := range chunks {
			if chunk.Deleted() || chunk.Vector == nil || !scope.allows(chunk) {
				continue
			}
			score := CosineSimilarity(query, chunk.Vector)
			if score < minScore {
				continue
			}
			hit := model.ChunkHit{Chunk: *chunk, Score: score}
			hit.Chunk.Vector = nil
			hits = append(hits, hit)
		}
	}
	m.mu.RUnlock()
	SortHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MemoryStore) TextSearch(ctx context.Context, text string, limit int, scope Scope) ([]model.ChunkEmbedding, error) {
	needle := strings.ToLower(text)
	m.mu.RLock()
	var out []model.ChunkEmbedding
	for _, chunks := range m.docs {
		for _, chunk := range chunks {
			if chunk.Deleted() || !scope.allows(chunk) {
				continue
			}
			if strings.Contains(strings.ToLower(chunk.Content), needle) {
				item := *chunk
				item.Vector = nil
				out = append(out, item)
			}
		}
	}
	m.mu.RUnlock()
	sortChunks(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, documentID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, chunk := range m.docs[documentID] {
		if chunk.Deleted() {
			continue
		}
		ts := at
		chunk.DeletedAt = &ts
		n++
	}
	return n, nil
}

func (m *MemoryStore) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for docID, chunks := range m.docs {
		for chunkID, chunk := range chunks {
			if chunk.Deleted() && chunk.DeletedAt.Before(before) {
				delete(chunks, chunkID)
				n++
			}
		}
		if len(chunks) == 0 {
			delete(m.docs, docID)
		}
	}
	return n, nil
}

func (m *MemoryStore) Stats(ctx context.Context, tenantID string) (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var embeddings, documents int64
	for _, chunks := range m.docs {
		indexed := false
		for _, chunk := range chunks {
			if chunk.Deleted() || chunk.Vector == nil {
				continue
			}
			if tenantID != "" && chunk.TenantID != tenantID {
				continue
			}
			embeddings++
			indexed = true
		}
		if indexed {
			documents++
		}
	}
	return embeddings, documents, nil
}

func cloneChunk(chunk *model.ChunkEmbedding) *model.ChunkEmbedding {
	item := *chunk
	if chunk.Vector != nil {
		item.Vector = make([]float32, len(chunk.Vector))
		copy(item.Vector, chunk.Vector)
	}
	if chunk.DeletedAt != nil {
		ts := *chunk.DeletedAt
		item.DeletedAt = &ts
	}
	return &item
}

func sortChunks(chunks []model.ChunkEmbedding) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
}

var _ Store = (*MemoryStore)(nil)
