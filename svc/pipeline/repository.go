package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/core/svc/content"
)

// MaterialRepository is the material access the processors need.
type MaterialRepository interface {
	GetMaterial(ctx context.Context, id uuid.UUID) (*content.Material, error)
	UpdateMaterial(ctx context.Context, m *content.Material) error
}

// ScheduleRepository loads the schedule configuration behind a generation.
type ScheduleRepository interface {
	GetSchedule(ctx context.Context, id uuid.UUID) (*content.Schedule, error)
}

// PendingPostRepository persists generated variations awaiting approval.
type PendingPostRepository interface {
	GetPendingPost(ctx context.Context, id uuid.UUID) (*content.PendingPost, error)
	CreatePendingPost(ctx context.Context, p *content.PendingPost) error
	UpdatePendingPost(ctx context.Context, p *content.PendingPost) error
}

// PostRepository persists published posts and their metrics.
type PostRepository interface {
	GetPost(ctx context.Context, id uuid.UUID) (*content.Post, error)
	CreatePost(ctx context.Context, p *content.Post) error
	UpdatePostMetrics(ctx context.Context, id uuid.UUID, metrics content.Metrics, engagementRate float64, updatedAt time.Time) error
}

// AccountRepository loads social accounts and persists refreshed tokens.
type AccountRepository interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*content.SocialAccount, error)
	GetAccountByPlatform(ctx context.Context, tenantID uuid.UUID, platform content.Platform) (*content.SocialAccount, error)
	UpdateAccountTokens(ctx context.Context, a *content.SocialAccount) error
}
