package content

import (
	"time"

	"github.com/google/uuid"
)

// SocialAccount holds a tenant's credentials for one platform.
// Tokens are mutated by the publish pipeline when a refresh succeeds.
type SocialAccount struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Platform     Platform
	Handle       string
	PageID       string // platform page/channel id where required
	AccessToken  string
	RefreshToken string
	TokenExpiry  *time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenExpired reports whether the access token needs a refresh before use.
// A nil expiry means the platform issued a non-expiring token.
func (a *SocialAccount) TokenExpired(now time.Time) bool {
	return a.TokenExpiry != nil && !a.TokenExpiry.After(now)
}
