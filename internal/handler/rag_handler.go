package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/response"
	"github.com/cisbeo/scorpiusProject-sub002/internal/rag"
	"github.com/cisbeo/scorpiusProject-sub002/internal/service"
)

type ragService interface {
	AnswerQuestion(ctx context.Context, req service.AskRequest) (*rag.Answer, error)
	Search(ctx context.Context, q rag.SearchQuery) (*rag.SearchResult, error)
	SubmitFeedback(ctx context.Context, fb *model.Feedback) error
}

type RAGHandler struct {
	rag ragService
}

func NewRAGHandler(rag ragService) *RAGHandler {
	return &RAGHandler{rag: rag}
}

type askRequest struct {
	Question string   `json:"question"`
	TopK     int      `json:"top_k"`
	MinScore *float64 `json:"min_score"`
}

func (h *RAGHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if req.TopK < 0 {
		badRequest(c, "top_k must not be negative")
		return
	}
	ans, err := h.rag.AnswerQuestion(c.Request.Context(), service.AskRequest{
		TenantID: getTenantID(c),
		TenderID: c.Param("id"),
		Question: req.Question,
		TopK:     req.TopK,
		MinScore: req.MinScore,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ans)
}

// Search takes q, top_k, threshold and any number of document_id filters.
func (h *RAGHandler) Search(c *gin.Context) {
	topK, ok := queryInt(c, "top_k")
	if !ok {
		badRequest(c, "invalid top_k")
		return
	}
	threshold, ok := queryFloat(c, "threshold")
	if !ok {
		badRequest(c, "invalid threshold")
		return
	}
	res, err := h.rag.Search(c.Request.Context(), rag.SearchQuery{
		TenantID:    getTenantID(c),
		DocumentIDs: c.QueryArray("document_id"),
		Query:       c.Query("q"),
		TopK:        topK,
		Threshold:   threshold,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

type feedbackRequest struct {
	CacheKey   string `json:"cache_key"`
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
	Helpful    bool   `json:"helpful"`
	Comment    string `json:"comment"`
}

func (h *RAGHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	fb := &model.Feedback{
		CacheKey:   req.CacheKey,
		TenantID:   getTenantID(c),
		DocumentID: req.DocumentID,
		Question:   req.Question,
		Helpful:    req.Helpful,
		Comment:    req.Comment,
	}
	if err := h.rag.SubmitFeedback(c.Request.Context(), fb); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fb)
}
