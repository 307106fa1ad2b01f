package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/dbutil"
)

type ComplianceCheckRepo struct {
	db *sql.DB
}

func NewComplianceCheckRepo(db *sql.DB) *ComplianceCheckRepo {
	return &ComplianceCheckRepo{db: db}
}

// Replace swaps the checks of a bid for a fresh evaluation atomically.
func (r *ComplianceCheckRepo) Replace(ctx context.Context, bidID string, checks []model.ComplianceCheck) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sqlStr, args := dbutil.Finalize("DELETE FROM compliance_checks WHERE bid_response_id=?", []interface{}{bidID})
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	if len(checks) > 0 {
		data := make([]map[string]interface{}, 0, len(checks))
		for _, c := range checks {
			data = append(data, map[string]interface{}{
				"id":              c.ID,
				"bid_response_id": bidID,
				"rule_category":   c.RuleCategory,
				"rule_name":       c.RuleName,
				"status":          string(c.Status),
				"severity":        string(c.Severity),
				"message":         c.Message,
				"auto_fixable":    c.AutoFixable,
				"created_at":      c.CreatedAt,
			})
		}
		sqlStr, args, err := builder.BuildInsert("compliance_checks", data)
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ComplianceCheckRepo) ListByBid(ctx context.Context, bidID string) ([]model.ComplianceCheck, error) {
	where := map[string]interface{}{
		"bid_response_id": bidID,
		"_orderby":        "created_at asc, rule_name asc",
	}
	sqlStr, args, err := builder.BuildSelect("compliance_checks", where, []string{
		"id", "bid_response_id", "rule_category", "rule_name", "status", "severity", "message", "auto_fixable", "created_at",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ComplianceCheck, 0)
	for rows.Next() {
		var c model.ComplianceCheck
		if err := rows.Scan(&c.ID, &c.BidResponseID, &c.RuleCategory, &c.RuleName, &c.Status, &c.Severity, &c.Message, &c.AutoFixable, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
