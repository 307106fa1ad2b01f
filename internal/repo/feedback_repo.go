package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/dbutil"
)

type FeedbackRepo struct {
	db *sql.DB
}

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

func (r *FeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	data := map[string]interface{}{
		"id":          fb.ID,
		"cache_key":   fb.CacheKey,
		"tenant_id":   fb.TenantID,
		"document_id": fb.DocumentID,
		"question":    fb.Question,
		"helpful":     fb.Helpful,
		"comment":     fb.Comment,
		"created_at":  fb.CreatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("query_feedback", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
