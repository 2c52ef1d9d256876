package similarity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/core/pkg/vectorizer"
)

// ContentType distinguishes which entity an embedding belongs to.
type ContentType string

const (
	ContentTypeMaterial    ContentType = "material"
	ContentTypePendingPost ContentType = "pending_post"
	ContentTypePost        ContentType = "post"
)

// Embedding is one stored vector keyed by (ContentType, ContentID).
// At most one row exists per key; a repeated upsert overwrites.
type Embedding struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	ContentType ContentType
	ContentID   uuid.UUID
	ContentHash string
	Vector      vectorizer.Vector
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Match is one stored embedding that scored at or above the threshold.
type Match struct {
	ContentType ContentType
	ContentID   uuid.UUID
	Similarity  float64
	CreatedAt   time.Time
}

// EmbeddingRepository persists and queries content embeddings.
type EmbeddingRepository interface {
	// Upsert stores the embedding, replacing any existing row with the
	// same (ContentType, ContentID).
	Upsert(ctx context.Context, emb *Embedding) error

	// Search returns embeddings of the tenant created at or after since
	// whose cosine similarity to vector is >= threshold, ordered by
	// similarity descending and capped at limit.
	Search(ctx context.Context, tenantID uuid.UUID, vector vectorizer.Vector, threshold float64, since time.Time, limit int) ([]Match, error)
}
