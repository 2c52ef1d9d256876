package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/core/pkg/faults"
	"github.com/postpilot/core/pkg/logger"
	"github.com/postpilot/core/pkg/queue"
	"github.com/postpilot/core/svc/content"
	"github.com/postpilot/core/svc/similarity"
)

// HandlePublish sends an approved pending post to its platform. The terminal
// status check up front makes redelivery a no-op: an already PUBLISHED post
// triggers no platform call and creates no post record.
func (p *Processor) HandlePublish(ctx context.Context, job PublishJob) error {
	start := p.now()
	log := p.logger.With(
		slog.String("job", "publish"),
		slog.String("pending_post_id", job.PendingPostID.String()),
		logger.TenantID(job.TenantID),
	)

	pp, err := p.deps.Pending.GetPendingPost(ctx, job.PendingPostID)
	if err != nil {
		return fmt.Errorf("failed to load pending post %s: %w", job.PendingPostID, err)
	}
	log = log.With(logger.Platform(string(pp.Platform)))

	if pp.Status.Terminal() {
		log.InfoContext(ctx, "pending post already in terminal state, skipping",
			slog.String("status", string(pp.Status)))
		return nil
	}
	if pp.Status != content.PendingPostStatusApproved {
		// A publish job for an unapproved post is stray; dropping it is
		// safer than failing a post the user may still approve.
		log.WarnContext(ctx, "pending post is not approved, dropping job",
			slog.String("status", string(pp.Status)))
		return nil
	}

	account, err := p.deps.Accounts.GetAccount(ctx, pp.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", pp.AccountID, err)
	}
	if !account.IsActive {
		return p.failPending(ctx, log, pp, faults.ReauthRequired(
			fmt.Sprintf("account %s is disconnected", account.ID)))
	}

	res, err := p.deps.Limiter.Check(ctx, string(pp.Platform), account.ID.String())
	if err != nil {
		return fmt.Errorf("failed to check publish rate limit: %w", err)
	}
	if !res.Allowed {
		// Retryable with the window boundary as the delay, so the queue
		// reschedules instead of busy-retrying.
		return faults.RateLimited(
			fmt.Sprintf("%s publish limit reached (%s, %d/%d)", pp.Platform, res.Reason, res.Current, res.Limit),
			res.RetryAfter)
	}

	conn, err := p.deps.Connectors.Get(pp.Platform)
	if err != nil {
		return fmt.Errorf("%w: %s", err, pp.Platform)
	}

	if account.TokenExpired(p.now()) {
		if err := p.refreshAccountToken(ctx, log, conn, account); err != nil {
			return p.failPending(ctx, log, pp, err)
		}
	}

	var result *PublishResult
	err = p.doWithBreaker(ctx, string(pp.Platform), func(ctx context.Context) error {
		r, err := conn.Publish(ctx, PublishRequest{
			Content:     pp.Content,
			MediaURLs:   pp.MediaURLs,
			AccessToken: account.AccessToken,
			PageID:      account.PageID,
		})
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return p.failPending(ctx, log, pp, err)
	}
	log.InfoContext(ctx, "platform accepted post",
		slog.String("platform_post_id", result.PlatformPostID))

	now := p.now()
	post := &content.Post{
		ID:             uuid.New(),
		TenantID:       pp.TenantID,
		PendingPostID:  pp.ID,
		MaterialID:     pp.MaterialID,
		ScheduleID:     pp.ScheduleID,
		AccountID:      pp.AccountID,
		Platform:       pp.Platform,
		PlatformPostID: result.PlatformPostID,
		Content:        pp.Content,
		PublishedAt:    now,
		CreatedAt:      now,
	}
	if err := p.deps.Posts.CreatePost(ctx, post); err != nil {
		return fmt.Errorf("failed to record published post: %w", err)
	}

	p.recordPublishSideEffects(ctx, log, pp, post)

	pp.Status = content.PendingPostStatusPublished
	pp.Error = nil
	pp.UpdatedAt = p.now()
	if err := p.deps.Pending.UpdatePendingPost(ctx, pp); err != nil {
		return fmt.Errorf("failed to mark pending post published: %w", err)
	}

	log.InfoContext(ctx, "post published",
		logger.PostID(post.ID),
		logger.Duration(time.Since(start)))
	return nil
}

// refreshAccountToken exchanges the refresh token through the platform
// breaker and persists the new credentials before they are used.
func (p *Processor) refreshAccountToken(ctx context.Context, log *slog.Logger, conn Connector, account *content.SocialAccount) error {
	err := p.doWithBreaker(ctx, string(account.Platform), func(ctx context.Context) error {
		tok, err := conn.RefreshToken(ctx, account.RefreshToken)
		if err != nil {
			return err
		}

		account.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			account.RefreshToken = tok.RefreshToken
		}
		if tok.Expiry.IsZero() {
			account.TokenExpiry = nil
		} else {
			expiry := tok.Expiry
			account.TokenExpiry = &expiry
		}
		account.UpdatedAt = p.now()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to refresh token for account %s: %w", account.ID, err)
	}

	if err := p.deps.Accounts.UpdateAccountTokens(ctx, account); err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	log.InfoContext(ctx, "access token refreshed", logger.AccountID(account.ID))
	return nil
}

// recordPublishSideEffects runs the bookkeeping that follows a successful
// platform call. None of it is worth failing the job over once the post
// exists: the analytics scheduler sweeps up posts whose first metrics job
// was never enqueued, and a missed usage bump or embedding only skews
// selection and dedup slightly.
func (p *Processor) recordPublishSideEffects(ctx context.Context, log *slog.Logger, pp *content.PendingPost, post *content.Post) {
	now := p.now()

	if m, err := p.deps.Materials.GetMaterial(ctx, pp.MaterialID); err != nil {
		log.WarnContext(ctx, "failed to load material for usage update", logger.Error(err))
	} else {
		m.MarkUsed(now)
		if err := p.deps.Materials.UpdateMaterial(ctx, m); err != nil {
			log.WarnContext(ctx, "failed to update material usage", logger.Error(err))
		}
	}

	if err := p.deps.Similarity.Store(ctx, similarity.ContentTypePost, post.ID, post.TenantID, post.Content); err != nil {
		log.WarnContext(ctx, "failed to store post embedding", logger.Error(err))
	}

	if err := p.deps.Limiter.Record(ctx, string(post.Platform), post.AccountID.String()); err != nil {
		log.WarnContext(ctx, "failed to record rate limit usage", logger.Error(err))
	}

	err := p.deps.Enqueuer.Enqueue(ctx, AnalyticsJob{PostID: post.ID, TenantID: post.TenantID},
		queue.WithQueue(QueueAnalytics),
		queue.WithDelay(p.analyticsDelay),
		queue.WithIdempotencyKey("analytics:"+post.ID.String()),
	)
	if err != nil {
		log.WarnContext(ctx, "failed to enqueue analytics job", logger.Error(err))
	}
}

// failPending flips the pending post to FAILED on a non-retryable error and
// always returns the original cause unmodified.
func (p *Processor) failPending(ctx context.Context, log *slog.Logger, pp *content.PendingPost, cause error) error {
	class := faults.Classify(cause)
	if !class.Retryable {
		msg := cause.Error()
		pp.Status = content.PendingPostStatusFailed
		pp.Error = &msg
		pp.UpdatedAt = p.now()
		if err := p.deps.Pending.UpdatePendingPost(ctx, pp); err != nil {
			log.ErrorContext(ctx, "failed to mark pending post failed", logger.Error(err))
		}
	}

	log.ErrorContext(ctx, "publish failed",
		logger.Category(string(class.Category)),
		slog.Bool("retryable", class.Retryable),
		logger.Error(cause))
	return cause
}
