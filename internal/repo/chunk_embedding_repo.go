package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/cisbeo/scorpiusProject-sub002/internal/index"
	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

const chunkColumns = "document_id, chunk_id, tenant_id, content, document_type, section, page, confidence, created_at, updated_at, deleted_at"

// ChunkEmbeddingRepo is the pgvector backed index store.
type ChunkEmbeddingRepo struct {
	db *sql.DB
}

func NewChunkEmbeddingRepo(db *sql.DB) *ChunkEmbeddingRepo {
	return &ChunkEmbeddingRepo{db: db}
}

func vectorArg(v []float32) interface{} {
	if v == nil {
		return nil
	}
	return pgvector.NewVector(v)
}

// Upsert registers the owning document if needed and writes the chunk,
// clearing any tombstone. A document registered under another tenant is a
// conflict and is left untouched.
func (r *ChunkEmbeddingRepo) Upsert(ctx context.Context, chunk *model.ChunkEmbedding) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const docQuery = `
		INSERT INTO documents (id, tenant_id, document_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET deleted_at = NULL
		WHERE documents.tenant_id = EXCLUDED.tenant_id
	`
	res, err := tx.ExecContext(ctx, docQuery, chunk.DocumentID, chunk.TenantID, chunk.Metadata.DocumentType, chunk.CreatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: document %s belongs to another tenant", appErr.ErrConflict, chunk.DocumentID)
	}
	const query = `
		INSERT INTO chunk_embeddings (document_id, chunk_id, tenant_id, content, embedding, document_type, section, page, confidence, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL)
		ON CONFLICT (document_id, chunk_id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			document_type = EXCLUDED.document_type,
			section = EXCLUDED.section,
			page = EXCLUDED.page,
			confidence = EXCLUDED.confidence,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		WHERE chunk_embeddings.tenant_id = EXCLUDED.tenant_id
	`
	_, err = tx.ExecContext(ctx, query,
		chunk.DocumentID,
		chunk.ChunkID,
		chunk.TenantID,
		chunk.Content,
		vectorArg(chunk.Vector),
		chunk.Metadata.DocumentType,
		chunk.Metadata.Section,
		chunk.Metadata.Page,
		chunk.Confidence,
		chunk.CreatedAt,
		chunk.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// scopeFilter appends tenant and document conditions, numbering their
// placeholders after the args already bound.
func scopeFilter(scope index.Scope, conds []string, args []interface{}) ([]string, []interface{}) {
	if scope.TenantID != "" {
		args = append(args, scope.TenantID)
		conds = append(conds, "tenant_id = $"+strconv.Itoa(len(args)))
	}
	if len(scope.DocumentIDs) > 0 {
		args = append(args, pq.Array(scope.DocumentIDs))
		conds = append(conds, "document_id = ANY($"+strconv.Itoa(len(args))+")")
	}
	return conds, args
}

func (r *ChunkEmbeddingRepo) Search(ctx context.Context, query []float32, minScore float64, limit int, scope index.Scope) ([]model.ChunkHit, error) {
	args := []interface{}{pgvector.NewVector(query), minScore}
	conds := []string{"deleted_at IS NULL", "embedding IS NOT NULL", "1 - (embedding <=> $1) >= $2"}
	conds, args = scopeFilter(scope, conds, args)
	args = append(args, limit)
	sqlStr := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1) AS score
		FROM chunk_embeddings
		WHERE %s
		ORDER BY score DESC, chunk_id ASC, document_id ASC
		LIMIT $%d
	`, chunkColumns, strings.Join(conds, " AND "), len(args))
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hits := make([]model.ChunkHit, 0, limit)
	for rows.Next() {
		var hit model.ChunkHit
		dest := append(chunkDest(&hit.Chunk), &hit.Score)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ChunkEmbeddingRepo) TextSearch(ctx context.Context, text string, limit int, scope index.Scope) ([]model.ChunkEmbedding, error) {
	args := []interface{}{"%" + escapeLike(text) + "%"}
	conds := []string{"deleted_at IS NULL", "content ILIKE $1"}
	conds, args = scopeFilter(scope, conds, args)
	args = append(args, limit)
	sqlStr := fmt.Sprintf(`
		SELECT %s
		FROM chunk_embeddings
		WHERE %s
		ORDER BY document_id ASC, chunk_id ASC
		LIMIT $%d
	`, chunkColumns, strings.Join(conds, " AND "), len(args))
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ChunkEmbedding, 0)
	for rows.Next() {
		var c model.ChunkEmbedding
		if err := rows.Scan(chunkDest(&c)...); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteDocument tombstones the document and all of its chunks in one
// transaction.
func (r *ChunkEmbeddingRepo) DeleteDocument(ctx context.Context, documentID string, at time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx,
		`UPDATE chunk_embeddings SET deleted_at = $1 WHERE document_id = $2 AND deleted_at IS NULL`,
		at, documentID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		at, documentID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *ChunkEmbeddingRepo) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM chunk_embeddings WHERE deleted_at IS NOT NULL AND deleted_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ChunkEmbeddingRepo) Stats(ctx context.Context, tenantID string) (int64, int64, error) {
	conds := []string{"deleted_at IS NULL", "embedding IS NOT NULL"}
	conds, args := scopeFilter(index.Scope{TenantID: tenantID}, conds, nil)
	sqlStr := "SELECT COUNT(*), COUNT(DISTINCT document_id) FROM chunk_embeddings WHERE " + strings.Join(conds, " AND ")
	var embeddings, documents int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&embeddings, &documents); err != nil {
		return 0, 0, err
	}
	return embeddings, documents, nil
}

// ListLive returns every live chunk with its vector, for rebuilding an
// in-memory index.
func (r *ChunkEmbeddingRepo) ListLive(ctx context.Context) ([]model.ChunkEmbedding, error) {
	sqlStr := fmt.Sprintf(`
		SELECT %s, embedding::text
		FROM chunk_embeddings
		WHERE deleted_at IS NULL
		ORDER BY document_id ASC, chunk_id ASC
	`, chunkColumns)
	rows, err := r.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ChunkEmbedding, 0)
	for rows.Next() {
		var c model.ChunkEmbedding
		var vec sql.NullString
		if err := rows.Scan(append(chunkDest(&c), &vec)...); err != nil {
			return nil, err
		}
		if vec.Valid {
			v, err := parseVector(vec.String)
			if err != nil {
				return nil, fmt.Errorf("chunk %s/%d: %w", c.DocumentID, c.ChunkID, err)
			}
			c.Vector = v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func chunkDest(c *model.ChunkEmbedding) []interface{} {
	return []interface{}{
		&c.DocumentID,
		&c.ChunkID,
		&c.TenantID,
		&c.Content,
		&c.Metadata.DocumentType,
		&c.Metadata.Section,
		&c.Metadata.Page,
		&c.Confidence,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.DeletedAt,
	}
}

// parseVector reads the pgvector text form "[1,2,3]". NULL vectors are
// handled by the caller since pgvector.Vector cannot scan NULL.
func parseVector(s string) ([]float32, error) {
	var v pgvector.Vector
	if err := v.Scan(s); err != nil {
		return nil, err
	}
	return v.Slice(), nil
}

var _ index.Store = (*ChunkEmbeddingRepo)(nil)
