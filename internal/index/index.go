package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

// Scope restricts a lookup to one tenant and, optionally, a set of documents.
type Scope struct {
	TenantID    string
	DocumentIDs []string
}

func (s Scope) allows(chunk *model.ChunkEmbedding) bool {
	if s.TenantID != "" && chunk.TenantID != s.TenantID {
		return false
	}
	if len(s.DocumentIDs) == 0 {
		return true
	}
	for _, id := range s.DocumentIDs {
		if id == chunk.DocumentID {
			return true
		}
	}
	return false
}

// Store persists chunks. Search must only return live chunks with a vector
// whose score is >= minScore, and must order them the way SortHits does.
type Store interface {
	Upsert(ctx context.Context, chunk *model.ChunkEmbedding) error
	Search(ctx context.Context, query []float32, minScore float64, limit int, scope Scope) ([]model.ChunkHit, error)
	TextSearch(ctx context.Context, text string, limit int, scope Scope) ([]model.ChunkEmbedding, error)
	DeleteDocument(ctx context.Context, documentID string, at time.Time) (int64, error)
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
	Stats(ctx context.Context, tenantID string) (embeddings int64, documents int64, err error)
}

type Option func(*Index)

func WithClock(now func() time.Time) Option {
	return func(x *Index) {
		if now != nil {
			x.now = now
		}
	}
}

type Index struct {
	store     Store
	dimension int
	now       func() time.Time
}

func New(store Store, dimension int, opts ...Option) *Index {
	x := &Index{store: store, dimension: dimension, now: time.Now}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *Index) Dimension() int {
	return x.dimension
}

func (x *Index) UpsertChunk(ctx context.Context, chunk model.ChunkEmbedding) error {
	if strings.TrimSpace(chunk.DocumentID) == "" {
		return fmt.Errorf("%w: document_id is required", appErr.ErrInvalid)
	}
	if strings.TrimSpace(chunk.TenantID) == "" {
		return fmt.Errorf("%w: tenant_id is required", appErr.ErrInvalid)
	}
	if chunk.ChunkID < 0 {
		return fmt.Errorf("%w: chunk_id must not be negative", appErr.ErrInvalid)
	}
	if chunk.Vector != nil && len(chunk.Vector) != x.dimension {
		return fmt.Errorf("%w: vector dimension %d, want %d", appErr.ErrInvalid, len(chunk.Vector), x.dimension)
	}
	now := x.now().UTC()
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = now
	}
	chunk.UpdatedAt = now
	chunk.DeletedAt = nil
	if err := x.store.Upsert(ctx, &chunk); err != nil {
		return fmt.Errorf("upsert chunk %s/%d: %w", chunk.DocumentID, chunk.ChunkID, err)
	}
	logutil.GetLogger(ctx).Debug("chunk indexed",
		zap.String("document_id", chunk.DocumentID),
		zap.Int("chunk_id", chunk.ChunkID),
		zap.Bool("has_vector", chunk.Vector != nil),
	)
	return nil
}

func (x *Index) SimilaritySearch(ctx context.Context, query []float32, topK int, minScore float64, scope Scope) ([]model.ChunkHit, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, want %d", appErr.ErrInvalid, len(query), x.dimension)
	}
	if topK <= 0 {
		return nil, nil
	}
	hits, err := x.store.Search(ctx, query, minScore, topK, scope)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	out := hits[:0]
	for _, hit := range hits {
		if hit.Score >= minScore {
			out = append(out, hit)
		}
	}
	SortHits(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (x *Index) TextSearch(ctx context.Context, text string, limit int, scope Scope) ([]model.ChunkEmbedding, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty search text", appErr.ErrInvalid)
	}
	if limit <= 0 {
		return nil, nil
	}
	return x.store.TextSearch(ctx, text, limit, scope)
}

// DeleteDocument tombstones every chunk of the document in one store call.
func (x *Index) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	if strings.TrimSpace(documentID) == "" {
		return 0, fmt.Errorf("%w: document_id is required", appErr.ErrInvalid)
	}
	n, err := x.store.DeleteDocument(ctx, documentID, x.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete document %s: %w", documentID, err)
	}
	logutil.GetLogger(ctx).Info("document removed from index", zap.String("document_id", documentID), zap.Int64("chunks", n))
	return n, nil
}

func (x *Index) PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	return x.store.PurgeDeleted(ctx, x.now().UTC().Add(-olderThan))
}

func (x *Index) Stats(ctx context.Context, tenantID string) (int64, int64, error) {
	return x.store.Stats(ctx, tenantID)
}

// SortHits orders by score desc, then chunk id asc, then document id asc.
func SortHits(hits []model.ChunkHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.ChunkID != b.Chunk.ChunkID {
			return a.Chunk.ChunkID < b.Chunk.ChunkID
		}
		return a.Chunk.DocumentID < b.Chunk.DocumentID
	})
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, score))
}
