package model

import "time"

type ChunkMetadata struct {
	DocumentType string `json:"document_type,omitempty"`
	Section      string `json:"section,omitempty"`
	Page         int    `json:"page,omitempty"`
}

// ChunkEmbedding is one chunk of a tender document with its vector. A nil
// Vector keeps the chunk out of similarity search.
type ChunkEmbedding struct {
	DocumentID string        `json:"document_id"`
	ChunkID    int           `json:"chunk_id"`
	TenantID   string        `json:"tenant_id"`
	Content    string        `json:"content"`
	Vector     []float32     `json:"vector,omitempty"`
	Metadata   ChunkMetadata `json:"metadata"`
	Confidence float64       `json:"confidence"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	DeletedAt  *time.Time    `json:"deleted_at,omitempty"`
}

func (c *ChunkEmbedding) Deleted() bool {
	return c.DeletedAt != nil
}

type ChunkHit struct {
	Chunk ChunkEmbedding `json:"chunk"`
	Score float64        `json:"score"`
}

type IndexStats struct {
	TotalDocuments             int64   `json:"total_documents"`
	IndexedDocuments           int64   `json:"indexed_documents"`
	TotalEmbeddings            int64   `json:"total_embeddings"`
	IndexingCoveragePercentage float64 `json:"indexing_coverage_percentage"`
}
