package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	"github.com/cisbeo/scorpiusProject-sub002/internal/querycache"
)

type QueryCacheRepo struct {
	db *sql.DB
}

func NewQueryCacheRepo(db *sql.DB) *QueryCacheRepo {
	return &QueryCacheRepo{db: db}
}

// Hit bumps a live entry in a single statement so concurrent readers never
// lose an increment. An expired row is removed and reported as absent.
func (r *QueryCacheRepo) Hit(ctx context.Context, key string, now time.Time) (*model.QueryCacheEntry, bool, error) {
	const query = `
		UPDATE query_cache
		SET hit_count = hit_count + 1, last_accessed_at = $2
		WHERE cache_key = $1 AND expires_at > $2
		RETURNING cache_key, query_text, scope, response, query_embedding::text, hit_count, ttl_seconds, created_at, last_accessed_at, expires_at
	`
	var entry model.QueryCacheEntry
	var response []byte
	var vec sql.NullString
	err := r.db.QueryRowContext(ctx, query, key, now).Scan(
		&entry.Key,
		&entry.QueryText,
		&entry.Scope,
		&response,
		&vec,
		&entry.HitCount,
		&entry.TTLSeconds,
		&entry.CreatedAt,
		&entry.LastAccessedAt,
		&entry.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM query_cache WHERE cache_key = $1 AND expires_at <= $2`, key, now); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	entry.Response = response
	if vec.Valid {
		v, err := parseVector(vec.String)
		if err != nil {
			return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
		}
		entry.QueryVector = v
	}
	return &entry, true, nil
}

func (r *QueryCacheRepo) Put(ctx context.Context, entry *model.QueryCacheEntry) error {
	const query = `
		INSERT INTO query_cache (cache_key, query_text, scope, response, query_embedding, hit_count, ttl_seconds, created_at, last_accessed_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (cache_key) DO UPDATE SET
			query_text = EXCLUDED.query_text,
			scope = EXCLUDED.scope,
			response = EXCLUDED.response,
			query_embedding = EXCLUDED.query_embedding,
			hit_count = EXCLUDED.hit_count,
			ttl_seconds = EXCLUDED.ttl_seconds,
			created_at = EXCLUDED.created_at,
			last_accessed_at = EXCLUDED.last_accessed_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.Key,
		entry.QueryText,
		entry.Scope,
		string(entry.Response),
		vectorArg(entry.QueryVector),
		entry.HitCount,
		entry.TTLSeconds,
		entry.CreatedAt,
		entry.LastAccessedAt,
		entry.ExpiresAt,
	)
	return err
}

func (r *QueryCacheRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM query_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ querycache.Store = (*QueryCacheRepo)(nil)
