package similarity_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/core/pkg/vectorizer"
	"github.com/postpilot/core/svc/similarity"
)

// stubProvider returns canned vectors per text so similarity is fully
// deterministic without an embedding API.
type stubProvider struct {
	vectors map[string]vectorizer.Vector
	err     error
}

func (p *stubProvider) Vectorize(ctx context.Context, text string) (vectorizer.Vector, error) {
	if p.err != nil {
		return nil, p.err
	}
	v, ok := p.vectors[text]
	if !ok {
		return vectorizer.Vector{0, 0, 1}, nil
	}
	return v, nil
}

func (p *stubProvider) VectorizeBatch(ctx context.Context, texts []string) ([]vectorizer.Vector, error) {
	out := make([]vectorizer.Vector, 0, len(texts))
	for _, t := range texts {
		v, err := p.Vectorize(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *stubProvider) Dimensions() int { return 3 }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, provider vectorizer.Provider, repo similarity.EmbeddingRepository) *similarity.Service {
	t.Helper()
	svc, err := similarity.New(provider, repo, similarity.Config{
		Threshold:          0.85,
		PreFilterThreshold: 0.75,
		RecencyWindow:      720 * time.Hour,
		MaxMatches:         10,
	}, similarity.WithLogger(quietLogger()))
	require.NoError(t, err)
	return svc
}

func TestService_New(t *testing.T) {
	t.Parallel()

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()

		_, err := similarity.New(nil, similarity.NewMemoryRepository(), similarity.Config{})
		assert.ErrorIs(t, err, similarity.ErrProviderNil)
	})

	t.Run("nil repository", func(t *testing.T) {
		t.Parallel()

		_, err := similarity.New(&stubProvider{}, nil, similarity.Config{})
		assert.ErrorIs(t, err, similarity.ErrRepositoryNil)
	})

	t.Run("zero config gets defaults", func(t *testing.T) {
		t.Parallel()

		svc, err := similarity.New(&stubProvider{}, similarity.NewMemoryRepository(), similarity.Config{})
		require.NoError(t, err)
		assert.InDelta(t, 0.85, svc.Threshold(), 0.0001)
		assert.InDelta(t, 0.75, svc.PreFilterThreshold(), 0.0001)
	})
}

func TestService_CheckAndStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tenantID := uuid.New()

	provider := &stubProvider{vectors: map[string]vectorizer.Vector{
		"sunny day post":    {1, 0, 0},
		"sunny day post v2": {0.99, 0.14, 0}, // ~0.99 similar
		"rainy day post":    {0, 1, 0},       // orthogonal
	}}

	repo := similarity.NewMemoryRepository()
	svc := newService(t, provider, repo)

	require.NoError(t, svc.Store(ctx, similarity.ContentTypePost, uuid.New(), tenantID, "sunny day post"))

	t.Run("near duplicate detected", func(t *testing.T) {
		matches := svc.Check(ctx, "sunny day post v2", tenantID, 0)
		require.Len(t, matches, 1)
		assert.Greater(t, matches[0].Similarity, 0.85)
		assert.Equal(t, similarity.ContentTypePost, matches[0].ContentType)
	})

	t.Run("unrelated content passes", func(t *testing.T) {
		assert.Empty(t, svc.Check(ctx, "rainy day post", tenantID, 0))
	})

	t.Run("other tenant is not compared", func(t *testing.T) {
		assert.Empty(t, svc.Check(ctx, "sunny day post v2", uuid.New(), 0))
	})

	t.Run("explicit threshold overrides default", func(t *testing.T) {
		// Identical text scores 1.0; even a very strict gate matches it
		matches := svc.Check(ctx, "sunny day post", tenantID, 0.999)
		require.Len(t, matches, 1)
	})
}

func TestService_RecencyWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tenantID := uuid.New()
	provider := &stubProvider{vectors: map[string]vectorizer.Vector{
		"candidate": {1, 0, 0},
	}}

	repo := similarity.NewMemoryRepository()
	svc := newService(t, provider, repo)

	// A 40-day-old embedding falls outside the 30-day window even at 0.92+
	// similarity; a 10-day-old one is caught.
	old := &similarity.Embedding{
		ID: uuid.New(), TenantID: tenantID,
		ContentType: similarity.ContentTypePost, ContentID: uuid.New(),
		Vector:    vectorizer.Vector{1, 0, 0},
		CreatedAt: time.Now().Add(-40 * 24 * time.Hour),
	}
	recent := &similarity.Embedding{
		ID: uuid.New(), TenantID: tenantID,
		ContentType: similarity.ContentTypePost, ContentID: uuid.New(),
		Vector:    vectorizer.Vector{1, 0.05, 0},
		CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, old))
	require.NoError(t, repo.Upsert(ctx, recent))

	matches := svc.Check(ctx, "candidate", tenantID, 0)
	require.Len(t, matches, 1)
	assert.Equal(t, recent.ContentID, matches[0].ContentID)
}

func TestService_FailOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("provider failure yields no matches", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{err: errors.New("embedding api down")}
		svc := newService(t, provider, similarity.NewMemoryRepository())

		assert.Empty(t, svc.Check(ctx, "anything", tenantID, 0))
		assert.False(t, svc.IsDuplicate(ctx, "anything", tenantID))
	})

	t.Run("store failure is reported", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{err: errors.New("embedding api down")}
		svc := newService(t, provider, similarity.NewMemoryRepository())

		err := svc.Store(ctx, similarity.ContentTypeMaterial, uuid.New(), tenantID, "text")
		assert.Error(t, err)
	})
}

func TestMemoryRepository_UpsertOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := similarity.NewMemoryRepository()
	tenantID := uuid.New()
	contentID := uuid.New()

	first := &similarity.Embedding{
		ID: uuid.New(), TenantID: tenantID,
		ContentType: similarity.ContentTypePendingPost, ContentID: contentID,
		Vector: vectorizer.Vector{1, 0, 0}, CreatedAt: time.Now(),
	}
	second := &similarity.Embedding{
		ID: uuid.New(), TenantID: tenantID,
		ContentType: similarity.ContentTypePendingPost, ContentID: contentID,
		Vector: vectorizer.Vector{0, 1, 0}, CreatedAt: time.Now(),
	}

	require.NoError(t, repo.Upsert(ctx, first))
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, 1, repo.Count(), "same key must overwrite, not duplicate")

	// Only the new vector matches now
	matches, err := repo.Search(ctx, tenantID, vectorizer.Vector{0, 1, 0}, 0.9, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestMemoryRepository_SearchOrderAndLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := similarity.NewMemoryRepository()
	tenantID := uuid.New()

	vectors := []vectorizer.Vector{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0.8, 0.2, 0},
	}
	for _, v := range vectors {
		require.NoError(t, repo.Upsert(ctx, &similarity.Embedding{
			ID: uuid.New(), TenantID: tenantID,
			ContentType: similarity.ContentTypePost, ContentID: uuid.New(),
			Vector: v, CreatedAt: time.Now(),
		}))
	}

	matches, err := repo.Search(ctx, tenantID, vectorizer.Vector{1, 0, 0}, 0.5, time.Now().Add(-time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, matches, 2, "limit caps the result")
	assert.GreaterOrEqual(t, matches[0].Similarity, matches[1].Similarity, "sorted descending")
	assert.InDelta(t, 1.0, matches[0].Similarity, 0.0001)
}
