package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilot/core/pkg/faults"
	"github.com/postpilot/core/pkg/logger"
	"github.com/postpilot/core/svc/content"
)

// HandleAnalytics refreshes the metrics of a published post. Re-running is
// harmless; the fetch simply overwrites the snapshot with fresher numbers.
func (p *Processor) HandleAnalytics(ctx context.Context, job AnalyticsJob) error {
	start := p.now()
	log := p.logger.With(
		slog.String("job", "analytics"),
		logger.PostID(job.PostID),
		logger.TenantID(job.TenantID),
	)

	post, err := p.deps.Posts.GetPost(ctx, job.PostID)
	if err != nil {
		return fmt.Errorf("failed to load post %s: %w", job.PostID, err)
	}
	if post.PlatformPostID == "" {
		// Nothing to query the platform with; retrying cannot fix it.
		err := faults.NotFound(fmt.Sprintf("post %s has no platform post id", post.ID))
		log.ErrorContext(ctx, "analytics fetch impossible", logger.Error(err))
		return err
	}
	log = log.With(logger.Platform(string(post.Platform)))

	account, err := p.deps.Accounts.GetAccount(ctx, post.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", post.AccountID, err)
	}

	conn, err := p.deps.Connectors.Get(post.Platform)
	if err != nil {
		return fmt.Errorf("%w: %s", err, post.Platform)
	}

	var metrics content.Metrics
	err = p.doWithBreaker(ctx, string(post.Platform), func(ctx context.Context) error {
		m, err := conn.Analytics(ctx, post.PlatformPostID, account.AccessToken)
		if err != nil {
			return err
		}
		metrics = m
		return nil
	})
	if err != nil {
		class := faults.Classify(err)
		log.ErrorContext(ctx, "analytics fetch failed",
			logger.Category(string(class.Category)),
			slog.Bool("retryable", class.Retryable),
			logger.Error(err))
		return err
	}

	rate := metrics.EngagementRate()
	if err := p.deps.Posts.UpdatePostMetrics(ctx, post.ID, metrics, rate, p.now()); err != nil {
		return fmt.Errorf("failed to persist post metrics: %w", err)
	}

	log.InfoContext(ctx, "post metrics updated",
		slog.Int("impressions", metrics.Impressions),
		slog.Float64("engagement_rate", rate),
		logger.Duration(time.Since(start)))
	return nil
}
