package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/dbutil"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

var matchColumns = []string{
	"id", "tenant_id", "document_id", "company_profile_id", "overall_score", "technical_score", "functional_score",
	"gaps", "strengths", "recommendation", "confidence_level", "low_confidence", "created_at",
}

type CapabilityMatchRepo struct {
	db *sql.DB
}

func NewCapabilityMatchRepo(db *sql.DB) *CapabilityMatchRepo {
	return &CapabilityMatchRepo{db: db}
}

func (r *CapabilityMatchRepo) Create(ctx context.Context, m *model.CapabilityMatch) error {
	gaps, err := json.Marshal(m.Gaps)
	if err != nil {
		return err
	}
	strengths, err := json.Marshal(m.Strengths)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":                 m.ID,
		"tenant_id":          m.TenantID,
		"document_id":        m.DocumentID,
		"company_profile_id": m.CompanyProfileID,
		"overall_score":      m.OverallScore,
		"technical_score":    m.TechnicalScore,
		"functional_score":   m.FunctionalScore,
		"gaps":               string(gaps),
		"strengths":          string(strengths),
		"recommendation":     string(m.Recommendation),
		"confidence_level":   m.ConfidenceLevel,
		"low_confidence":     m.LowConfidence,
		"created_at":         m.CreatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("capability_matches", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		if dbutil.IsMissingReference(err) {
			return fmt.Errorf("%w: document", appErr.ErrNotFound)
		}
		return err
	}
	return nil
}

func (r *CapabilityMatchRepo) GetByID(ctx context.Context, tenantID, id string) (*model.CapabilityMatch, error) {
	where := map[string]interface{}{
		"id":        id,
		"tenant_id": tenantID,
	}
	sqlStr, args, err := builder.BuildSelect("capability_matches", where, matchColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var m model.CapabilityMatch
	var gaps, strengths []byte
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&m.ID, &m.TenantID, &m.DocumentID, &m.CompanyProfileID,
		&m.OverallScore, &m.TechnicalScore, &m.FunctionalScore,
		&gaps, &strengths, &m.Recommendation, &m.ConfidenceLevel, &m.LowConfidence, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(gaps, &m.Gaps); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(strengths, &m.Strengths); err != nil {
		return nil, err
	}
	return &m, nil
}
