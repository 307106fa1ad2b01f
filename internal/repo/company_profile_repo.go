package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/dbutil"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

// CompanyProfileRepo reads profiles maintained by the company service.
type CompanyProfileRepo struct {
	db *sql.DB
}

func NewCompanyProfileRepo(db *sql.DB) *CompanyProfileRepo {
	return &CompanyProfileRepo{db: db}
}

func (r *CompanyProfileRepo) GetByID(ctx context.Context, tenantID, id string) (*model.CompanyProfile, error) {
	where := map[string]interface{}{
		"id":        id,
		"tenant_id": tenantID,
	}
	sqlStr, args, err := builder.BuildSelect("company_profiles", where, []string{"id", "tenant_id", "name", "capabilities", "certifications", "keywords"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var p model.CompanyProfile
	var caps, certs, kws []byte
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&p.ID, &p.TenantID, &p.Name, &caps, &certs, &kws)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst *[]string
	}{{caps, &p.Capabilities}, {certs, &p.Certifications}, {kws, &p.Keywords}} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
