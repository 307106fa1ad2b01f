package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/dbutil"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

// DocumentRepo answers the few questions the engine has about documents;
// the documents themselves are owned by the upload service.
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	where := map[string]interface{}{
		"tenant_id":  tenantID,
		"deleted_at": builder.IsNull,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, []string{"COUNT(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var n int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// EnsureExists fails with ErrNotFound unless the tenant owns a live document
// with this id.
func (r *DocumentRepo) EnsureExists(ctx context.Context, tenantID, id string) error {
	where := map[string]interface{}{
		"id":         id,
		"tenant_id":  tenantID,
		"deleted_at": builder.IsNull,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, []string{"id"})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var got string
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&got)
	if err == sql.ErrNoRows {
		return appErr.ErrNotFound
	}
	return err
}
