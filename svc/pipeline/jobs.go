package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/core/svc/content"
)

// Job payloads carried through the queue. Each job kind has its own fixed
// schema and its own handler; dispatch is by task name derived from the
// payload type.

// AnalyzeJob asks for AI analysis of an uploaded material.
type AnalyzeJob struct {
	MaterialID uuid.UUID `json:"material_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
}

// GenerateJob asks for content variations from a material for a schedule
// run. ScheduledFor carries the schedule's preferred publish slot; nil means
// publish immediately once approved.
type GenerateJob struct {
	ScheduleID     uuid.UUID          `json:"schedule_id"`
	MaterialID     uuid.UUID          `json:"material_id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	Platforms      []content.Platform `json:"platforms"`
	VariationCount int                `json:"variation_count"`
	ScheduledFor   *time.Time         `json:"scheduled_for,omitempty"`
}

// PublishJob asks for an approved pending post to go out.
type PublishJob struct {
	PendingPostID uuid.UUID `json:"pending_post_id"`
	TenantID      uuid.UUID `json:"tenant_id"`
}

// AnalyticsJob asks for a metrics refresh of a published post.
type AnalyticsJob struct {
	PostID   uuid.UUID `json:"post_id"`
	TenantID uuid.UUID `json:"tenant_id"`
}
