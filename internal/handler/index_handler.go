package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/response"
)

type indexService interface {
	IndexChunk(ctx context.Context, chunk model.ChunkEmbedding, computeEmbedding bool) error
	RemoveDocument(ctx context.Context, tenantID, documentID string) (int64, error)
	Stats(ctx context.Context, tenantID string) (*model.IndexStats, error)
}

type IndexHandler struct {
	index indexService
}

func NewIndexHandler(index indexService) *IndexHandler {
	return &IndexHandler{index: index}
}

type indexChunkRequest struct {
	DocumentID       string              `json:"document_id"`
	ChunkID          int                 `json:"chunk_id"`
	Content          string              `json:"content"`
	Vector           []float32           `json:"vector"`
	Metadata         model.ChunkMetadata `json:"metadata"`
	Confidence       float64             `json:"confidence"`
	ComputeEmbedding bool                `json:"compute_embedding"`
}

func (h *IndexHandler) IndexChunk(c *gin.Context) {
	var req indexChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	chunk := model.ChunkEmbedding{
		DocumentID: req.DocumentID,
		ChunkID:    req.ChunkID,
		TenantID:   getTenantID(c),
		Content:    req.Content,
		Vector:     req.Vector,
		Metadata:   req.Metadata,
		Confidence: req.Confidence,
	}
	if err := h.index.IndexChunk(c.Request.Context(), chunk, req.ComputeEmbedding); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"document_id": chunk.DocumentID, "chunk_id": chunk.ChunkID})
}

func (h *IndexHandler) RemoveDocument(c *gin.Context) {
	n, err := h.index.RemoveDocument(c.Request.Context(), getTenantID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"document_id": c.Param("id"), "chunks_removed": n})
}

func (h *IndexHandler) Stats(c *gin.Context) {
	stats, err := h.index.Stats(c.Request.Context(), getTenantID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
