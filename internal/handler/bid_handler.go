package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/response"
	"github.com/cisbeo/scorpiusProject-sub002/internal/service"
)

type bidService interface {
	CreateDraft(ctx context.Context, tenantID, userID, matchID string, sections []model.ResponseSection) (*model.BidResponse, error)
	Get(ctx context.Context, tenantID, id string) (*service.BidDetail, error)
	UpdateSections(ctx context.Context, tenantID, id string, sections []model.ResponseSection) (*model.BidResponse, error)
	EvaluateCompliance(ctx context.Context, tenantID, id string) (*service.ComplianceReport, error)
	Transition(ctx context.Context, tenantID, id string, to model.BidStatus) (*model.BidResponse, error)
	Submit(ctx context.Context, tenantID, id string) (*model.BidResponse, error)
	NewVersion(ctx context.Context, tenantID, id string) (*model.BidResponse, error)
}

type BidHandler struct {
	bids bidService
}

func NewBidHandler(bids bidService) *BidHandler {
	return &BidHandler{bids: bids}
}

type createBidRequest struct {
	CapabilityMatchID string                  `json:"capability_match_id"`
	Sections          []model.ResponseSection `json:"sections"`
}

func (h *BidHandler) Create(c *gin.Context) {
	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	bid, err := h.bids.CreateDraft(c.Request.Context(), getTenantID(c), getUserID(c), req.CapabilityMatchID, req.Sections)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bid)
}

func (h *BidHandler) Get(c *gin.Context) {
	bid, err := h.bids.Get(c.Request.Context(), getTenantID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bid)
}

type sectionsRequest struct {
	Sections []model.ResponseSection `json:"sections"`
}

func (h *BidHandler) UpdateSections(c *gin.Context) {
	var req sectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	bid, err := h.bids.UpdateSections(c.Request.Context(), getTenantID(c), c.Param("id"), req.Sections)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bid)
}

func (h *BidHandler) EvaluateCompliance(c *gin.Context) {
	report, err := h.bids.EvaluateCompliance(c.Request.Context(), getTenantID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}

type transitionRequest struct {
	Status model.BidStatus `json:"status"`
}

func (h *BidHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		badRequest(c, "status required")
		return
	}
	bid, err := h.bids.Transition(c.Request.Context(), getTenantID(c), c.Param("id"), req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bid)
}

func (h *BidHandler) Submit(c *gin.Context) {
	bid, err := h.bids.Submit(c.Request.Context(), getTenantID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bid)
}

func (h *BidHandler) NewVersion(c *gin.Context) {
	bid, err := h.bids.NewVersion(c.Request.Context(), getTenantID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bid)
}
