package content

import (
	"time"

	"github.com/google/uuid"
)

// PendingPostStatus is the lifecycle state of a generated variation.
// PENDING_APPROVAL|APPROVED -> PUBLISHED|FAILED.
type PendingPostStatus string

const (
	PendingPostStatusPendingApproval PendingPostStatus = "PENDING_APPROVAL"
	PendingPostStatusApproved        PendingPostStatus = "APPROVED"
	PendingPostStatusPublished       PendingPostStatus = "PUBLISHED"
	PendingPostStatusFailed          PendingPostStatus = "FAILED"
)

// Terminal reports whether a pending post reached an end state.
func (s PendingPostStatus) Terminal() bool {
	return s == PendingPostStatusPublished || s == PendingPostStatusFailed
}

// PendingPost is a generated, not-yet-published content variation.
// Exactly one Material and one Schedule back each pending post; ScheduleID
// is nil for manually triggered generations.
type PendingPost struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	MaterialID   uuid.UUID
	ScheduleID   *uuid.UUID
	AccountID    uuid.UUID
	Platform     Platform
	Content      string
	MediaURLs    []string
	Status       PendingPostStatus
	Error        *string
	ScheduledFor *time.Time // nil means publish immediately after approval
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Metrics is the rolling engagement snapshot for a published post.
type Metrics struct {
	Likes       int
	Comments    int
	Shares      int
	Impressions int
	Reach       int
	Clicks      int
}

// EngagementRate is the percentage of impressions that produced an
// interaction. Zero impressions yield zero rather than dividing by zero.
func (m Metrics) EngagementRate() float64 {
	if m.Impressions == 0 {
		return 0
	}
	return 100 * float64(m.Likes+m.Comments+m.Shares) / float64(m.Impressions)
}

// Post is a published artifact with its platform identifiers and metrics.
// Created once by publishing; only the metrics fields are updated afterward.
type Post struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	PendingPostID    uuid.UUID
	MaterialID       uuid.UUID
	ScheduleID       *uuid.UUID
	AccountID        uuid.UUID
	Platform         Platform
	PlatformPostID   string
	Content          string
	Metrics          Metrics
	EngagementRate   float64
	PublishedAt      time.Time
	MetricsUpdatedAt *time.Time
	CreatedAt        time.Time
}
