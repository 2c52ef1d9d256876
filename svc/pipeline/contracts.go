package pipeline

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/postpilot/core/svc/content"
)

// Constraints bound what GenerateCopy is allowed to produce for a platform.
type Constraints struct {
	MaxLength      int
	RequiredTerms  []string
	ForbiddenTerms []string
}

// AIProvider is the language-model collaborator behind analysis and
// generation. Embeddings are handled separately by the vectorizer.
type AIProvider interface {
	// GenerateCopy produces n post variations from a material, written in
	// the given brand voice and respecting the platform constraints.
	GenerateCopy(ctx context.Context, material *content.Material, brandVoice string, platform content.Platform, constraints Constraints, n int) ([]string, error)

	// Summarize condenses extracted material text for downstream prompts.
	Summarize(ctx context.Context, text string) (string, error)

	// AnalyzeImage describes the image at url.
	AnalyzeImage(ctx context.Context, url string) (string, error)

	// AnalyzeVideo describes the video at url.
	AnalyzeVideo(ctx context.Context, url string) (string, error)
}

// PublishRequest carries everything a connector needs to create a post.
type PublishRequest struct {
	Content     string
	MediaURLs   []string
	AccessToken string
	PageID      string // platform page/channel id, empty where not applicable
}

// PublishResult is the platform's acknowledgement of a created post.
type PublishResult struct {
	PlatformPostID string
}

// Connector is one social platform's API surface.
type Connector interface {
	// Publish creates a post and returns its platform id.
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)

	// Analytics fetches the current metrics of a published post.
	Analytics(ctx context.Context, platformPostID, accessToken string) (content.Metrics, error)

	// RefreshToken exchanges a refresh token for a fresh access token.
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// ConnectorRegistry maps platforms to their connectors. It is constructed
// explicitly and injected so tests can run with isolated instances.
type ConnectorRegistry struct {
	mu         sync.RWMutex
	connectors map[content.Platform]Connector
}

// NewConnectorRegistry creates an empty registry.
func NewConnectorRegistry() *ConnectorRegistry {
	return &ConnectorRegistry{connectors: make(map[content.Platform]Connector)}
}

// Register adds or replaces the connector for a platform.
func (r *ConnectorRegistry) Register(platform content.Platform, c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[platform] = c
}

// Get returns the connector for a platform, or ErrConnectorNotFound.
func (r *ConnectorRegistry) Get(platform content.Platform) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connectors[platform]
	if !ok {
		return nil, ErrConnectorNotFound
	}
	return c, nil
}
