package similarity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/core/pkg/vectorizer"
)

type embeddingKey struct {
	contentType ContentType
	contentID   uuid.UUID
}

// MemoryRepository is a brute-force in-memory EmbeddingRepository for tests
// and local development.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[embeddingKey]*Embedding
}

// NewMemoryRepository creates an empty in-memory embedding store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[embeddingKey]*Embedding)}
}

// Upsert implements EmbeddingRepository. The (ContentType, ContentID) key
// keeps its original CreatedAt across overwrites.
func (r *MemoryRepository) Upsert(ctx context.Context, emb *Embedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := embeddingKey{contentType: emb.ContentType, contentID: emb.ContentID}
	copied := *emb
	if existing, ok := r.rows[key]; ok {
		copied.ID = existing.ID
		copied.CreatedAt = existing.CreatedAt
	}
	r.rows[key] = &copied

	return nil
}

// Search implements EmbeddingRepository with a linear scan.
func (r *MemoryRepository) Search(ctx context.Context, tenantID uuid.UUID, vector vectorizer.Vector, threshold float64, since time.Time, limit int) ([]Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Match
	for _, emb := range r.rows {
		if emb.TenantID != tenantID || emb.CreatedAt.Before(since) {
			continue
		}
		sim := vectorizer.CosineSimilarity(vector, emb.Vector)
		if sim >= threshold {
			matches = append(matches, Match{
				ContentType: emb.ContentType,
				ContentID:   emb.ContentID,
				Similarity:  sim,
				CreatedAt:   emb.CreatedAt,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// Count returns the number of stored embeddings, useful in tests.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
