package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

type chunkIndex interface {
	UpsertChunk(ctx context.Context, chunk model.ChunkEmbedding) error
	DeleteDocument(ctx context.Context, documentID string) (int64, error)
	Stats(ctx context.Context, tenantID string) (int64, int64, error)
}

type documentStore interface {
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	EnsureExists(ctx context.Context, tenantID, id string) error
}

type documentEmbedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

type chunkSource interface {
	ListLive(ctx context.Context) ([]model.ChunkEmbedding, error)
}

type chunkLoader interface {
	Load(chunks []model.ChunkEmbedding)
}

type IndexService struct {
	index    chunkIndex
	docs     documentStore
	embedder documentEmbedder
	source   chunkSource
	mem      chunkLoader
}

type IndexOption func(*IndexService)

// WithRebuild lets Rebuild reload mem from the durable chunk set.
func WithRebuild(source chunkSource, mem chunkLoader) IndexOption {
	return func(s *IndexService) {
		s.source = source
		s.mem = mem
	}
}

func NewIndexService(idx chunkIndex, docs documentStore, embedder documentEmbedder, opts ...IndexOption) *IndexService {
	s := &IndexService{index: idx, docs: docs, embedder: embedder}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexChunk stores one chunk. With computeEmbedding set and no vector given,
// the chunk text is embedded first.
func (s *IndexService) IndexChunk(ctx context.Context, chunk model.ChunkEmbedding, computeEmbedding bool) error {
	if computeEmbedding && chunk.Vector == nil {
		if s.embedder == nil {
			return fmt.Errorf("embed chunk: %w", appErr.ErrUnavailable)
		}
		if strings.TrimSpace(chunk.Content) == "" {
			return fmt.Errorf("%w: content is required to compute an embedding", appErr.ErrInvalid)
		}
		vec, err := s.embedder.EmbedDocument(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("embed chunk: %w: %w", appErr.ErrRetrieval, err)
		}
		chunk.Vector = vec
	}
	return s.index.UpsertChunk(ctx, chunk)
}

func (s *IndexService) RemoveDocument(ctx context.Context, tenantID, documentID string) (int64, error) {
	if err := s.docs.EnsureExists(ctx, tenantID, documentID); err != nil {
		return 0, err
	}
	return s.index.DeleteDocument(ctx, documentID)
}

func (s *IndexService) Stats(ctx context.Context, tenantID string) (*model.IndexStats, error) {
	embeddings, indexed, err := s.index.Stats(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	total, err := s.docs.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	// a document can be indexed before it is registered elsewhere
	if total < indexed {
		total = indexed
	}
	stats := &model.IndexStats{
		TotalDocuments:   total,
		IndexedDocuments: indexed,
		TotalEmbeddings:  embeddings,
	}
	if total > 0 {
		stats.IndexingCoveragePercentage = float64(indexed) / float64(total) * 100
	}
	return stats, nil
}

// Rebuild reloads the in-memory chunk set. It is a no-op when the index is
// not mirrored.
func (s *IndexService) Rebuild(ctx context.Context) (int, error) {
	if s.source == nil || s.mem == nil {
		return 0, nil
	}
	chunks, err := s.source.ListLive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list live chunks: %w", err)
	}
	s.mem.Load(chunks)
	logutil.GetLogger(ctx).Info("index rebuilt from stored chunks", zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
