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

var bidColumns = []string{
	"id", "tenant_id", "capability_match_id", "document_id", "company_profile_id", "created_by", "status", "version",
	"sections", "compliance_score", "compliance_issues", "submitted_at", "created_at", "updated_at",
}

type BidResponseRepo struct {
	db *sql.DB
}

func NewBidResponseRepo(db *sql.DB) *BidResponseRepo {
	return &BidResponseRepo{db: db}
}

func (r *BidResponseRepo) Create(ctx context.Context, bid *model.BidResponse) error {
	sections, issues, err := encodeBidBlobs(bid)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":                  bid.ID,
		"tenant_id":           bid.TenantID,
		"capability_match_id": bid.CapabilityMatchID,
		"document_id":         bid.DocumentID,
		"company_profile_id":  bid.CompanyProfileID,
		"created_by":          bid.CreatedBy,
		"status":              string(bid.Status),
		"version":             bid.Version,
		"sections":            sections,
		"compliance_score":    bid.ComplianceScore,
		"compliance_issues":   issues,
		"submitted_at":        bid.SubmittedAt,
		"created_at":          bid.CreatedAt,
		"updated_at":          bid.UpdatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("bid_responses", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		if dbutil.IsMissingReference(err) {
			return fmt.Errorf("%w: capability match", appErr.ErrNotFound)
		}
		return err
	}
	return nil
}

// Update writes the mutable part of a bid. The expected status guards
// against a concurrent transition having moved the bid first.
func (r *BidResponseRepo) Update(ctx context.Context, bid *model.BidResponse, expected model.BidStatus) error {
	sections, issues, err := encodeBidBlobs(bid)
	if err != nil {
		return err
	}
	where := map[string]interface{}{
		"id":        bid.ID,
		"tenant_id": bid.TenantID,
		"status":    string(expected),
	}
	update := map[string]interface{}{
		"status":            string(bid.Status),
		"sections":          sections,
		"compliance_score":  bid.ComplianceScore,
		"compliance_issues": issues,
		"submitted_at":      bid.SubmittedAt,
		"updated_at":        bid.UpdatedAt,
	}
	sqlStr, args, err := builder.BuildUpdate("bid_responses", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrConflict
	}
	return nil
}

func (r *BidResponseRepo) GetByID(ctx context.Context, tenantID, id string) (*model.BidResponse, error) {
	where := map[string]interface{}{
		"id":        id,
		"tenant_id": tenantID,
	}
	sqlStr, args, err := builder.BuildSelect("bid_responses", where, bidColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	return scanBid(rows)
}

func encodeBidBlobs(bid *model.BidResponse) (string, string, error) {
	sections := bid.Sections
	if sections == nil {
		sections = []model.ResponseSection{}
	}
	issues := bid.ComplianceIssues
	if issues == nil {
		issues = []model.ComplianceIssue{}
	}
	s, err := json.Marshal(sections)
	if err != nil {
		return "", "", err
	}
	i, err := json.Marshal(issues)
	if err != nil {
		return "", "", err
	}
	return string(s), string(i), nil
}

func scanBid(rows *sql.Rows) (*model.BidResponse, error) {
	var bid model.BidResponse
	var sections, issues []byte
	if err := rows.Scan(
		&bid.ID, &bid.TenantID, &bid.CapabilityMatchID, &bid.DocumentID, &bid.CompanyProfileID, &bid.CreatedBy,
		&bid.Status, &bid.Version, &sections, &bid.ComplianceScore, &issues,
		&bid.SubmittedAt, &bid.CreatedAt, &bid.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sections, &bid.Sections); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(issues, &bid.ComplianceIssues); err != nil {
		return nil, err
	}
	return &bid, nil
}
