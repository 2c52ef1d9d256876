package similarity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postpilot/core/pkg/vectorizer"
)

// PostgresRepository stores embeddings in the content_embeddings table and
// runs the cosine comparison in SQL over float8 arrays, so only rows that
// clear the threshold travel back to the process.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Postgres-backed embedding store. The
// schema is managed by the pg package's embedded migrations.
func NewPostgresRepository(pool *pgxpool.Pool) (*PostgresRepository, error) {
	if pool == nil {
		return nil, ErrRepositoryNil
	}
	return &PostgresRepository{pool: pool}, nil
}

// Upsert implements EmbeddingRepository. The unique constraint on
// (content_type, content_id) turns repeated stores into overwrites; the
// original created_at survives so the recency window is not reset by edits.
func (r *PostgresRepository) Upsert(ctx context.Context, emb *Embedding) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO content_embeddings (id, tenant_id, content_type, content_id,
			content_hash, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (content_type, content_id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			content_hash = EXCLUDED.content_hash,
			embedding = EXCLUDED.embedding,
			updated_at = now()`,
		emb.ID, emb.TenantID, emb.ContentType, emb.ContentID,
		emb.ContentHash, []float64(emb.Vector), emb.CreatedAt, emb.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	return nil
}

// Search implements EmbeddingRepository. The query computes
// dot(a, b) / (|a| * |b|) per candidate row; the query vector's norm is
// computed once here and passed in.
func (r *PostgresRepository) Search(ctx context.Context, tenantID uuid.UUID, vector vectorizer.Vector, threshold float64, since time.Time, limit int) ([]Match, error) {
	norm := vectorNorm(vector)
	if norm == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		WITH scored AS (
			SELECT content_type, content_id, created_at,
				(SELECT sum(x * y) FROM unnest(embedding, $2::float8[]) AS pair(x, y)) /
					(sqrt((SELECT sum(x * x) FROM unnest(embedding) AS e(x))) * $3) AS similarity
			FROM content_embeddings
			WHERE tenant_id = $1 AND created_at >= $4
		)
		SELECT content_type, content_id, created_at, similarity
		FROM scored
		WHERE similarity >= $5
		ORDER BY similarity DESC
		LIMIT $6`,
		tenantID, []float64(vector), norm, since, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ContentType, &m.ContentID, &m.CreatedAt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}

	return matches, nil
}

func vectorNorm(v vectorizer.Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
