package content

import (
	"time"

	"github.com/google/uuid"
)

// MaterialStatus is the lifecycle state of a material.
// UPLOADED -> PROCESSING -> READY|FAILED -> USED. A material is immutable
// after READY except for usage bookkeeping.
type MaterialStatus string

const (
	MaterialStatusUploaded   MaterialStatus = "UPLOADED"
	MaterialStatusProcessing MaterialStatus = "PROCESSING"
	MaterialStatusReady      MaterialStatus = "READY"
	MaterialStatusFailed     MaterialStatus = "FAILED"
	MaterialStatusUsed       MaterialStatus = "USED"
)

// Terminal reports whether the status is an end state of analysis.
func (s MaterialStatus) Terminal() bool {
	return s == MaterialStatusReady || s == MaterialStatusFailed || s == MaterialStatusUsed
}

// MaterialType identifies the kind of content source.
type MaterialType string

const (
	MaterialTypeText  MaterialType = "text"
	MaterialTypeURL   MaterialType = "url"
	MaterialTypeFile  MaterialType = "file"
	MaterialTypeImage MaterialType = "image"
	MaterialTypeVideo MaterialType = "video"
)

// Material is a content source awaiting or having completed AI analysis.
type Material struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Type       MaterialType
	Title      string
	Body       string // raw text, or extracted text after analysis
	SourceURL  string // for url/file/image/video materials
	Summary    string // filled by analysis
	Priority   int    // used by the PRIORITY selection strategy
	Status     MaterialStatus
	Error      *string
	UsageCount int
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MarkUsed records one more consumption of the material.
func (m *Material) MarkUsed(now time.Time) {
	m.UsageCount++
	m.LastUsedAt = &now
	m.UpdatedAt = now
}
