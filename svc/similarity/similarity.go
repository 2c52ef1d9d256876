package similarity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/core/pkg/vectorizer"
)

// Config holds the similarity service tuning knobs.
type Config struct {
	// Threshold is the final duplicate gate applied to generated content.
	Threshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.85"`
	// PreFilterThreshold is the looser gate applied before generation.
	PreFilterThreshold float64 `env:"SIMILARITY_PREFILTER_THRESHOLD" envDefault:"0.75"`
	// RecencyWindow bounds how far back stored embeddings are compared.
	RecencyWindow time.Duration `env:"SIMILARITY_RECENCY_WINDOW" envDefault:"720h"`
	// MaxMatches caps how many matches a check returns.
	MaxMatches int `env:"SIMILARITY_MAX_MATCHES" envDefault:"10"`
}

// Service embeds texts and checks them against a tenant's recent content.
type Service struct {
	provider      vectorizer.Provider
	repo          EmbeddingRepository
	threshold     float64
	preFilter     float64
	recencyWindow time.Duration
	maxMatches    int
	logger        *slog.Logger
}

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithLogger sets the logger used for fail-open warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a similarity service from its collaborators and config.
func New(provider vectorizer.Provider, repo EmbeddingRepository, cfg Config, opts ...Option) (*Service, error) {
	if provider == nil {
		return nil, ErrProviderNil
	}
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	s := &Service{
		provider:      provider,
		repo:          repo,
		threshold:     cfg.Threshold,
		preFilter:     cfg.PreFilterThreshold,
		recencyWindow: cfg.RecencyWindow,
		maxMatches:    cfg.MaxMatches,
		logger:        slog.Default(),
	}
	if s.threshold <= 0 {
		s.threshold = 0.85
	}
	if s.preFilter <= 0 {
		s.preFilter = 0.75
	}
	if s.recencyWindow <= 0 {
		s.recencyWindow = 720 * time.Hour
	}
	if s.maxMatches <= 0 {
		s.maxMatches = 10
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Threshold returns the final duplicate gate.
func (s *Service) Threshold() float64 { return s.threshold }

// PreFilterThreshold returns the looser pre-generation gate.
func (s *Service) PreFilterThreshold() float64 { return s.preFilter }

// Check returns the tenant's recent embeddings that are at least threshold
// similar to text, most similar first. A non-positive threshold uses the
// configured default. Provider or store failures degrade to "no duplicates
// found": the error is logged and an empty result returned.
func (s *Service) Check(ctx context.Context, text string, tenantID uuid.UUID, threshold float64) []Match {
	if threshold <= 0 {
		threshold = s.threshold
	}

	vec, err := s.provider.Vectorize(ctx, text)
	if err != nil {
		s.logger.WarnContext(ctx, "similarity check degraded to no matches",
			slog.String("tenant_id", tenantID.String()),
			slog.String("stage", "embed"),
			slog.String("error", err.Error()))
		return nil
	}

	since := time.Now().Add(-s.recencyWindow)
	matches, err := s.repo.Search(ctx, tenantID, vec, threshold, since, s.maxMatches)
	if err != nil {
		s.logger.WarnContext(ctx, "similarity check degraded to no matches",
			slog.String("tenant_id", tenantID.String()),
			slog.String("stage", "search"),
			slog.String("error", err.Error()))
		return nil
	}

	return matches
}

// IsDuplicate reports whether text matches any recent content at the final
// threshold.
func (s *Service) IsDuplicate(ctx context.Context, text string, tenantID uuid.UUID) bool {
	return len(s.Check(ctx, text, tenantID, s.threshold)) > 0
}

// Store embeds text and upserts it keyed by (contentType, contentID),
// together with a content hash for change detection. Unlike Check, a store
// failure is returned: losing an embedding silently would degrade every
// future duplicate check.
func (s *Service) Store(ctx context.Context, contentType ContentType, contentID, tenantID uuid.UUID, text string) error {
	vec, err := s.provider.Vectorize(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed content %s/%s: %w", contentType, contentID, err)
	}

	now := time.Now()
	emb := &Embedding{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ContentType: contentType,
		ContentID:   contentID,
		ContentHash: hashContent(text),
		Vector:      vec,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Upsert(ctx, emb); err != nil {
		return fmt.Errorf("failed to store embedding %s/%s: %w", contentType, contentID, err)
	}
	return nil
}

func hashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
