package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/postpilot/core/pkg/faults"
	"github.com/postpilot/core/pkg/logger"
	"github.com/postpilot/core/svc/content"
	"github.com/postpilot/core/svc/similarity"
)

// HandleGenerate produces content variations from a material for each target
// platform, validates them against platform constraints, filters out
// near-duplicates and persists the survivors as pending posts.
//
// Redelivery after a partial run can generate fresh variations; the
// similarity gate suppresses any that repeat what the first run stored.
func (p *Processor) HandleGenerate(ctx context.Context, job GenerateJob) error {
	start := p.now()
	log := p.logger.With(
		slog.String("job", "generate"),
		logger.MaterialID(job.MaterialID),
		logger.TenantID(job.TenantID),
	)

	m, err := p.deps.Materials.GetMaterial(ctx, job.MaterialID)
	if err != nil {
		return fmt.Errorf("failed to load material %s: %w", job.MaterialID, err)
	}
	if m.Status != content.MaterialStatusReady && m.Status != content.MaterialStatusUsed {
		return faults.Validation(fmt.Sprintf("material %s is not ready for generation (status %s)", m.ID, m.Status))
	}

	var sched *content.Schedule
	if job.ScheduleID != uuid.Nil {
		sched, err = p.deps.Schedules.GetSchedule(ctx, job.ScheduleID)
		if err != nil {
			return fmt.Errorf("failed to load schedule %s: %w", job.ScheduleID, err)
		}
	}

	// Looser pre-generation gate on the source itself: skip the whole run
	// before spending AI calls when the material already resembles recent
	// content.
	source := m.Summary
	if source == "" {
		source = m.Body
	}
	if matches := p.deps.Similarity.Check(ctx, source, job.TenantID, p.deps.Similarity.PreFilterThreshold()); len(matches) > 0 {
		log.WarnContext(ctx, "material too similar to recent content, skipping generation",
			slog.Float64("similarity", matches[0].Similarity),
			slog.String("matched_content_id", matches[0].ContentID.String()))
		return nil
	}

	n := job.VariationCount
	if n <= 0 && sched != nil {
		n = sched.VariationCount
	}
	if n <= 0 {
		n = 1
	}

	created := 0
	for _, platform := range job.Platforms {
		count, err := p.generateForPlatform(ctx, log, m, sched, job, platform, n)
		if err != nil {
			return err
		}
		created += count
	}

	if created == 0 {
		return ErrNoVariations
	}

	log.InfoContext(ctx, "content generated",
		slog.Int("pending_posts", created),
		logger.Duration(time.Since(start)))
	return nil
}

func (p *Processor) generateForPlatform(ctx context.Context, log *slog.Logger, m *content.Material, sched *content.Schedule, job GenerateJob, platform content.Platform, n int) (int, error) {
	log = log.With(logger.Platform(string(platform)))

	account, err := p.deps.Accounts.GetAccountByPlatform(ctx, job.TenantID, platform)
	if err != nil {
		log.WarnContext(ctx, "no usable account for platform, skipping", logger.Error(err))
		return 0, nil
	}

	var brandVoice string
	constraints := Constraints{MaxLength: platform.MaxContentLength()}
	if sched != nil {
		brandVoice = sched.BrandVoice
		constraints.RequiredTerms = sched.RequiredTerms
		constraints.ForbiddenTerms = sched.ForbiddenTerms
	}

	var variations []string
	err = p.doWithBreaker(ctx, breakerOpenAI, func(ctx context.Context) error {
		v, err := p.deps.AI.GenerateCopy(ctx, m, brandVoice, platform, constraints, n)
		if err != nil {
			return err
		}
		variations = v
		return nil
	})
	if err != nil {
		class := faults.Classify(err)
		log.ErrorContext(ctx, "copy generation failed",
			logger.Category(string(class.Category)),
			slog.Bool("retryable", class.Retryable),
			logger.Error(err))
		return 0, err
	}

	created := 0
	for _, text := range variations {
		if err := validateContent(text, constraints); err != nil {
			log.WarnContext(ctx, "variation rejected by validation",
				slog.String("reason", err.Error()))
			continue
		}
		if p.deps.Similarity.IsDuplicate(ctx, text, job.TenantID) {
			log.WarnContext(ctx, "variation rejected as near-duplicate")
			continue
		}

		now := p.now()
		post := &content.PendingPost{
			ID:           uuid.New(),
			TenantID:     job.TenantID,
			MaterialID:   m.ID,
			AccountID:    account.ID,
			Platform:     platform,
			Content:      text,
			Status:       content.PendingPostStatusPendingApproval,
			ScheduledFor: job.ScheduledFor,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if sched != nil {
			id := sched.ID
			post.ScheduleID = &id
		}

		if err := p.deps.Pending.CreatePendingPost(ctx, post); err != nil {
			return created, fmt.Errorf("failed to create pending post: %w", err)
		}
		if err := p.deps.Similarity.Store(ctx, similarity.ContentTypePendingPost, post.ID, job.TenantID, text); err != nil {
			// The post exists either way; a missing embedding only
			// weakens future duplicate checks.
			log.WarnContext(ctx, "failed to store pending post embedding",
				slog.String("pending_post_id", post.ID.String()),
				logger.Error(err))
		}
		created++
	}
	return created, nil
}

// validateContent enforces the platform constraints on one variation.
func validateContent(text string, c Constraints) error {
	if strings.TrimSpace(text) == "" {
		return faults.Validation("variation is empty")
	}
	if c.MaxLength > 0 && utf8.RuneCountInString(text) > c.MaxLength {
		return faults.Validation(fmt.Sprintf("variation exceeds %d characters", c.MaxLength))
	}

	lower := strings.ToLower(text)
	for _, term := range c.RequiredTerms {
		if term != "" && !strings.Contains(lower, strings.ToLower(term)) {
			return faults.Validation(fmt.Sprintf("variation is missing required term %q", term))
		}
	}
	for _, term := range c.ForbiddenTerms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return faults.Validation(fmt.Sprintf("variation contains forbidden term %q", term))
		}
	}
	return nil
}
