package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/compliance"
	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

type bidStore interface {
	Create(ctx context.Context, bid *model.BidResponse) error
	Update(ctx context.Context, bid *model.BidResponse, expected model.BidStatus) error
	GetByID(ctx context.Context, tenantID, id string) (*model.BidResponse, error)
}

type checkStore interface {
	Replace(ctx context.Context, bidID string, checks []model.ComplianceCheck) error
	ListByBid(ctx context.Context, bidID string) ([]model.ComplianceCheck, error)
}

type BidService struct {
	checker *compliance.Checker
	rules   compliance.RuleSet
	bids    bidStore
	checks  checkStore
	matches matchStore
	now     func() time.Time
}

func NewBidService(checker *compliance.Checker, rules compliance.RuleSet, bids bidStore, checks checkStore, matches matchStore) *BidService {
	return &BidService{checker: checker, rules: rules, bids: bids, checks: checks, matches: matches, now: time.Now}
}

type BidDetail struct {
	*model.BidResponse
	Checks []model.ComplianceCheck `json:"checks"`
}

type ComplianceReport struct {
	BidResponseID         string                  `json:"bid_response_id"`
	Status                model.BidStatus         `json:"status"`
	ComplianceScore       float64                 `json:"compliance_score"`
	HasUnresolvedCritical bool                    `json:"has_unresolved_critical"`
	Checks                []model.ComplianceCheck `json:"checks"`
	Issues                []model.ComplianceIssue `json:"issues"`
}

// CreateDraft opens version 1 of a response to the tender behind matchID.
func (s *BidService) CreateDraft(ctx context.Context, tenantID, userID, matchID string, sections []model.ResponseSection) (*model.BidResponse, error) {
	if matchID == "" {
		return nil, fmt.Errorf("%w: capability_match_id is required", appErr.ErrInvalid)
	}
	match, err := s.matches.GetByID(ctx, tenantID, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match: %w", err)
	}
	if sections == nil {
		sections = []model.ResponseSection{}
	}
	now := s.now().UTC()
	bid := &model.BidResponse{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		CapabilityMatchID: match.ID,
		DocumentID:        match.DocumentID,
		CompanyProfileID:  match.CompanyProfileID,
		CreatedBy:         userID,
		Status:            model.BidStatusDraft,
		Version:           1,
		Sections:          sections,
		ComplianceIssues:  []model.ComplianceIssue{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.bids.Create(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *BidService) Get(ctx context.Context, tenantID, id string) (*BidDetail, error) {
	bid, err := s.bids.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	checks, err := s.checks.ListByBid(ctx, bid.ID)
	if err != nil {
		return nil, err
	}
	if checks == nil {
		checks = []model.ComplianceCheck{}
	}
	return &BidDetail{BidResponse: bid, Checks: checks}, nil
}

// UpdateSections replaces the body of a draft.
func (s *BidService) UpdateSections(ctx context.Context, tenantID, id string, sections []model.ResponseSection) (*model.BidResponse, error) {
	bid, err := s.bids.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if bid.Status != model.BidStatusDraft {
		return nil, fmt.Errorf("%w: only drafts can be edited, bid is %s", appErr.ErrConflict, bid.Status)
	}
	if sections == nil {
		sections = []model.ResponseSection{}
	}
	bid.Sections = sections
	bid.UpdatedAt = s.now().UTC()
	if err := s.bids.Update(ctx, bid, model.BidStatusDraft); err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *BidService) EvaluateCompliance(ctx context.Context, tenantID, id string) (*ComplianceReport, error) {
	bid, err := s.bids.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if bid.Status == model.BidStatusFinal {
		return nil, fmt.Errorf("%w: bid %s is final", appErr.ErrConflict, bid.ID)
	}
	res, err := s.runChecks(ctx, bid)
	if err != nil {
		return nil, err
	}
	if err := s.bids.Update(ctx, bid, bid.Status); err != nil {
		return nil, err
	}
	return reportOf(bid, res), nil
}

// Transition moves the bid one step forward. Entering final always runs a
// fresh compliance evaluation and is refused on unresolved critical failures;
// the evaluation is stored either way.
func (s *BidService) Transition(ctx context.Context, tenantID, id string, to model.BidStatus) (*model.BidResponse, error) {
	bid, err := s.bids.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	prev := bid.Status
	var latest *compliance.Result
	if to == model.BidStatusFinal && prev == model.BidStatusReviewing {
		res, err := s.runChecks(ctx, bid)
		if err != nil {
			return nil, err
		}
		latest = &res
	}
	terr := compliance.Transition(bid, to, latest, s.now().UTC())
	if terr != nil && latest == nil {
		return nil, terr
	}
	if err := s.bids.Update(ctx, bid, prev); err != nil {
		return nil, err
	}
	if terr != nil {
		return nil, terr
	}
	logutil.GetLogger(ctx).Info("bid response transitioned",
		zap.String("bid_id", bid.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(to)),
		zap.Float64("compliance_score", bid.ComplianceScore))
	return bid, nil
}

func (s *BidService) Submit(ctx context.Context, tenantID, id string) (*model.BidResponse, error) {
	return s.Transition(ctx, tenantID, id, model.BidStatusFinal)
}

// NewVersion reopens a reviewed or final bid as a new draft. Drafts are
// edited in place instead.
func (s *BidService) NewVersion(ctx context.Context, tenantID, id string) (*model.BidResponse, error) {
	bid, err := s.bids.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if bid.Status == model.BidStatusDraft {
		return nil, fmt.Errorf("%w: bid %s is already a draft", appErr.ErrInvalidTransition, bid.ID)
	}
	next := compliance.NewVersion(*bid, uuid.NewString(), s.now().UTC())
	if err := s.bids.Create(ctx, &next); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("bid response versioned",
		zap.String("from_id", bid.ID),
		zap.String("to_id", next.ID),
		zap.Int("version", next.Version))
	return &next, nil
}

// runChecks evaluates bid, stores the checks and applies the result to bid in
// memory. A bid whose match is gone is evaluated without one.
func (s *BidService) runChecks(ctx context.Context, bid *model.BidResponse) (compliance.Result, error) {
	match, err := s.matches.GetByID(ctx, bid.TenantID, bid.CapabilityMatchID)
	if err != nil {
		if !appErr.IsNotFound(err) {
			return compliance.Result{}, fmt.Errorf("load match: %w", err)
		}
		match = nil
	}
	res := s.checker.Evaluate(*bid, match, s.rules)
	now := s.now().UTC()
	for i := range res.Checks {
		res.Checks[i].ID = uuid.NewString()
		res.Checks[i].CreatedAt = now
	}
	if err := s.checks.Replace(ctx, bid.ID, res.Checks); err != nil {
		return compliance.Result{}, fmt.Errorf("save compliance checks: %w", err)
	}
	compliance.ApplyResult(bid, res, now)
	logutil.GetLogger(ctx).Debug("compliance evaluated",
		zap.String("bid_id", bid.ID),
		zap.Float64("score", res.Score),
		zap.Int("issues", len(res.Issues)),
		zap.Bool("unresolved_critical", res.HasUnresolvedCritical))
	return res, nil
}

func reportOf(bid *model.BidResponse, res compliance.Result) *ComplianceReport {
	return &ComplianceReport{
		BidResponseID:         bid.ID,
		Status:                bid.Status,
		ComplianceScore:       res.Score,
		HasUnresolvedCritical: res.HasUnresolvedCritical,
		Checks:                res.Checks,
		Issues:                res.Issues,
	}
}
