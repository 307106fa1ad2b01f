package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/response"
	"github.com/cisbeo/scorpiusProject-sub002/internal/service"
)

type matchService interface {
	SaveRequirements(ctx context.Context, tenantID string, set *model.RequirementSet) error
	ComputeMatch(ctx context.Context, tenantID, documentID, profileID string, opts service.MatchOptions) (*model.CapabilityMatch, error)
	GetMatch(ctx context.Context, tenantID, id string) (*model.CapabilityMatch, error)
}

type MatchHandler struct {
	matches matchService
}

func NewMatchHandler(matches matchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

type requirementsRequest struct {
	ExtractionConfidence *float64            `json:"extraction_confidence"`
	Requirements         []model.Requirement `json:"requirements"`
}

// SaveRequirements is where the external extractor lands its output.
func (h *MatchHandler) SaveRequirements(c *gin.Context) {
	var req requirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	set := &model.RequirementSet{
		DocumentID:           c.Param("id"),
		ExtractionConfidence: req.ExtractionConfidence,
		Requirements:         req.Requirements,
	}
	if err := h.matches.SaveRequirements(c.Request.Context(), getTenantID(c), set); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, set)
}

type matchRequest struct {
	DocumentID       string               `json:"document_id"`
	CompanyProfileID string               `json:"company_profile_id"`
	Options          service.MatchOptions `json:"options"`
}

func (h *MatchHandler) Compute(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	m, err := h.matches.ComputeMatch(c.Request.Context(), getTenantID(c), req.DocumentID, req.CompanyProfileID, req.Options)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, m)
}

func (h *MatchHandler) Get(c *gin.Context) {
	m, err := h.matches.GetMatch(c.Request.Context(), getTenantID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, m)
}
