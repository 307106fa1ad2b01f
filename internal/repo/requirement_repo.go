package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/dbutil"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

// RequirementRepo stores the output of the external requirement extractor,
// one set per document.
type RequirementRepo struct {
	db *sql.DB
}

func NewRequirementRepo(db *sql.DB) *RequirementRepo {
	return &RequirementRepo{db: db}
}

func (r *RequirementRepo) Save(ctx context.Context, set *model.RequirementSet) error {
	reqJSON, err := json.Marshal(set.Requirements)
	if err != nil {
		return err
	}
	sqlStr, args := dbutil.Finalize(`
		INSERT INTO requirement_summaries (document_id, extraction_confidence, requirements)
		VALUES (?, ?, ?)
		ON CONFLICT (document_id) DO UPDATE SET
			extraction_confidence = EXCLUDED.extraction_confidence,
			requirements = EXCLUDED.requirements,
			created_at = now()
	`, []interface{}{set.DocumentID, set.ExtractionConfidence, string(reqJSON)})
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *RequirementRepo) GetByDocument(ctx context.Context, tenantID, documentID string) (*model.RequirementSet, error) {
	sqlStr, args := dbutil.Finalize(`
		SELECT rs.document_id, rs.extraction_confidence, rs.requirements
		FROM requirement_summaries rs
		JOIN documents d ON d.id = rs.document_id
		WHERE rs.document_id = ? AND d.tenant_id = ? AND d.deleted_at IS NULL
	`, []interface{}{documentID, tenantID})
	var set model.RequirementSet
	var confidence sql.NullFloat64
	var reqJSON []byte
	err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&set.DocumentID, &confidence, &reqJSON)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if confidence.Valid {
		v := confidence.Float64
		set.ExtractionConfidence = &v
	}
	if err := json.Unmarshal(reqJSON, &set.Requirements); err != nil {
		return nil, err
	}
	return &set, nil
}
