package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/index"
	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

const (
	SearchTypeSemantic = "semantic"
	SearchTypeText     = "text"
)

type SearchQuery struct {
	TenantID    string
	DocumentIDs []string
	Query       string
	TopK        int
	Threshold   *float64
}

type SearchHit struct {
	DocumentID   string  `json:"document_id"`
	ChunkID      int     `json:"chunk_id"`
	Content      string  `json:"content"`
	DocumentType string  `json:"document_type,omitempty"`
	Section      string  `json:"section,omitempty"`
	Page         int     `json:"page,omitempty"`
	Score        float64 `json:"score"`
}

type SearchResult struct {
	Results      []SearchHit `json:"results"`
	TotalResults int         `json:"total_results"`
	SearchType   string      `json:"search_type"`
}

// Search returns raw passages without generation. When the query cannot be
// embedded it degrades to a substring match over chunk text.
func (p *Pipeline) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	text := strings.TrimSpace(q.Query)
	if text == "" {
		return nil, fmt.Errorf("%w: query is required", appErr.ErrInvalid)
	}
	if q.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant is required", appErr.ErrInvalid)
	}
	topK := q.TopK
	if topK <= 0 {
		topK = p.cfg.TopK
	}
	threshold := *p.cfg.MinScore
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	scope := index.Scope{TenantID: q.TenantID, DocumentIDs: q.DocumentIDs}

	vec, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("embed query: %w: %w", appErr.ErrRetrieval, err)
		}
		logutil.GetLogger(ctx).Warn("embedding unavailable, falling back to text search", zap.Error(err))
		return p.textSearch(ctx, text, topK, scope)
	}
	hits, err := p.index.SimilaritySearch(ctx, vec, topK, threshold, scope)
	if err != nil {
		if appErr.IsInvalid(err) {
			return nil, err
		}
		return nil, fmt.Errorf("similarity search: %w: %w", appErr.ErrRetrieval, err)
	}
	out := &SearchResult{Results: make([]SearchHit, 0, len(hits)), SearchType: SearchTypeSemantic}
	for _, h := range hits {
		out.Results = append(out.Results, searchHit(h.Chunk, h.Score))
	}
	out.TotalResults = len(out.Results)
	return out, nil
}

func (p *Pipeline) textSearch(ctx context.Context, text string, limit int, scope index.Scope) (*SearchResult, error) {
	chunks, err := p.index.TextSearch(ctx, text, limit, scope)
	if err != nil {
		return nil, fmt.Errorf("text search: %w: %w", appErr.ErrRetrieval, err)
	}
	out := &SearchResult{Results: make([]SearchHit, 0, len(chunks)), SearchType: SearchTypeText}
	for _, c := range chunks {
		out.Results = append(out.Results, searchHit(c, 0))
	}
	out.TotalResults = len(out.Results)
	return out, nil
}

func searchHit(c model.ChunkEmbedding, score float64) SearchHit {
	return SearchHit{
		DocumentID:   c.DocumentID,
		ChunkID:      c.ChunkID,
		Content:      c.Content,
		DocumentType: c.Metadata.DocumentType,
		Section:      c.Metadata.Section,
		Page:         c.Metadata.Page,
		Score:        score,
	}
}
