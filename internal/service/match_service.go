package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/matching"
	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

type requirementStore interface {
	Save(ctx context.Context, set *model.RequirementSet) error
	GetByDocument(ctx context.Context, tenantID, documentID string) (*model.RequirementSet, error)
}

type profileStore interface {
	GetByID(ctx context.Context, tenantID, id string) (*model.CompanyProfile, error)
}

type matchStore interface {
	Create(ctx context.Context, m *model.CapabilityMatch) error
	GetByID(ctx context.Context, tenantID, id string) (*model.CapabilityMatch, error)
}

// MatchOptions override the engine thresholds for a single computation.
// DryRun skips persisting the result.
type MatchOptions struct {
	GapThreshold      *float64 `json:"gap_threshold,omitempty"`
	StrengthThreshold *float64 `json:"strength_threshold,omitempty"`
	DryRun            bool     `json:"dry_run,omitempty"`
}

type MatchService struct {
	engine   *matching.Engine
	docs     documentStore
	reqs     requirementStore
	profiles profileStore
	matches  matchStore
	now      func() time.Time
}

func NewMatchService(engine *matching.Engine, docs documentStore, reqs requirementStore, profiles profileStore, matches matchStore) *MatchService {
	return &MatchService{engine: engine, docs: docs, reqs: reqs, profiles: profiles, matches: matches, now: time.Now}
}

// SaveRequirements stores the extraction output of one tender document,
// replacing any earlier set.
func (s *MatchService) SaveRequirements(ctx context.Context, tenantID string, set *model.RequirementSet) error {
	if strings.TrimSpace(set.DocumentID) == "" {
		return fmt.Errorf("%w: document_id is required", appErr.ErrInvalid)
	}
	if err := matching.Validate(*set); err != nil {
		return err
	}
	if err := s.docs.EnsureExists(ctx, tenantID, set.DocumentID); err != nil {
		return err
	}
	return s.reqs.Save(ctx, set)
}

func (s *MatchService) ComputeMatch(ctx context.Context, tenantID, documentID, profileID string, opts MatchOptions) (*model.CapabilityMatch, error) {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(profileID) == "" {
		return nil, fmt.Errorf("%w: document_id and company_profile_id are required", appErr.ErrInvalid)
	}
	set, err := s.reqs.GetByDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	profile, err := s.profiles.GetByID(ctx, tenantID, profileID)
	if err != nil {
		return nil, fmt.Errorf("load company profile: %w", err)
	}
	engine, err := s.engineFor(opts)
	if err != nil {
		return nil, err
	}
	m, err := engine.ComputeMatch(*set, *profile)
	if err != nil {
		return nil, err
	}
	m.TenantID = tenantID
	m.CreatedAt = s.now().UTC()
	if !opts.DryRun {
		m.ID = uuid.NewString()
		if err := s.matches.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("save match: %w", err)
		}
	}
	logutil.GetLogger(ctx).Info("capability match computed",
		zap.String("match_id", m.ID),
		zap.String("document_id", documentID),
		zap.String("company_profile_id", profileID),
		zap.Float64("overall_score", m.OverallScore),
		zap.String("recommendation", string(m.Recommendation)),
		zap.Int("gaps", len(m.Gaps)),
		zap.Bool("low_confidence", m.LowConfidence))
	return m, nil
}

func (s *MatchService) engineFor(opts MatchOptions) (*matching.Engine, error) {
	if opts.GapThreshold == nil && opts.StrengthThreshold == nil {
		return s.engine, nil
	}
	cfg := s.engine.Config()
	if v := opts.GapThreshold; v != nil {
		if *v <= 0 || *v > 1 {
			return nil, fmt.Errorf("%w: gap_threshold must be in (0,1]", appErr.ErrInvalid)
		}
		cfg.GapThreshold = *v
	}
	if v := opts.StrengthThreshold; v != nil {
		if *v <= 0 || *v > 1 {
			return nil, fmt.Errorf("%w: strength_threshold must be in (0,1]", appErr.ErrInvalid)
		}
		cfg.StrengthThreshold = *v
	}
	if cfg.StrengthThreshold < cfg.GapThreshold {
		return nil, fmt.Errorf("%w: strength_threshold %.2f is below gap_threshold %.2f", appErr.ErrInvalid, cfg.StrengthThreshold, cfg.GapThreshold)
	}
	return s.engine.Derive(cfg), nil
}

func (s *MatchService) GetMatch(ctx context.Context, tenantID, id string) (*model.CapabilityMatch, error) {
	return s.matches.GetByID(ctx, tenantID, id)
}
