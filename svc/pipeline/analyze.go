package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/postpilot/core/pkg/faults"
	"github.com/postpilot/core/pkg/logger"
	"github.com/postpilot/core/svc/content"
	"github.com/postpilot/core/svc/similarity"
)

// HandleAnalyze extracts and summarizes a material, stores its embedding and
// transitions it to READY. A material already in a terminal state is left
// untouched, so redelivery is a no-op.
func (p *Processor) HandleAnalyze(ctx context.Context, job AnalyzeJob) error {
	start := p.now()
	log := p.logger.With(
		slog.String("job", "analyze"),
		logger.MaterialID(job.MaterialID),
		logger.TenantID(job.TenantID),
	)

	m, err := p.deps.Materials.GetMaterial(ctx, job.MaterialID)
	if err != nil {
		return fmt.Errorf("failed to load material %s: %w", job.MaterialID, err)
	}
	if m.Status.Terminal() {
		log.InfoContext(ctx, "material already analyzed, skipping",
			slog.String("status", string(m.Status)))
		return nil
	}

	m.Status = content.MaterialStatusProcessing
	m.UpdatedAt = p.now()
	if err := p.deps.Materials.UpdateMaterial(ctx, m); err != nil {
		return fmt.Errorf("failed to mark material processing: %w", err)
	}
	log.InfoContext(ctx, "material analysis started", slog.String("type", string(m.Type)))

	if err := p.analyzeMaterial(ctx, m); err != nil {
		return p.failMaterial(ctx, log, m, err)
	}

	text := m.Summary
	if text == "" {
		text = m.Body
	}
	if err := p.deps.Similarity.Store(ctx, similarity.ContentTypeMaterial, m.ID, m.TenantID, text); err != nil {
		// Retryable: the material stays in PROCESSING and redelivery
		// re-runs the whole analysis.
		return fmt.Errorf("failed to store material embedding: %w", err)
	}

	m.Status = content.MaterialStatusReady
	m.Error = nil
	m.UpdatedAt = p.now()
	if err := p.deps.Materials.UpdateMaterial(ctx, m); err != nil {
		return fmt.Errorf("failed to mark material ready: %w", err)
	}

	log.InfoContext(ctx, "material analyzed",
		logger.Duration(time.Since(start)))
	return nil
}

// analyzeMaterial fills Summary (and Body for visual materials) via the AI
// provider, guarded by the shared model breaker.
func (p *Processor) analyzeMaterial(ctx context.Context, m *content.Material) error {
	switch m.Type {
	case content.MaterialTypeImage:
		return p.doWithBreaker(ctx, breakerOpenAI, func(ctx context.Context) error {
			desc, err := p.deps.AI.AnalyzeImage(ctx, m.SourceURL)
			if err != nil {
				return err
			}
			m.Summary = desc
			if m.Body == "" {
				m.Body = desc
			}
			return nil
		})
	case content.MaterialTypeVideo:
		return p.doWithBreaker(ctx, breakerOpenAI, func(ctx context.Context) error {
			desc, err := p.deps.AI.AnalyzeVideo(ctx, m.SourceURL)
			if err != nil {
				return err
			}
			m.Summary = desc
			if m.Body == "" {
				m.Body = desc
			}
			return nil
		})
	default:
		if strings.TrimSpace(m.Body) == "" {
			return faults.Validation("material has no text content to analyze")
		}
		return p.doWithBreaker(ctx, breakerOpenAI, func(ctx context.Context) error {
			summary, err := p.deps.AI.Summarize(ctx, m.Body)
			if err != nil {
				return err
			}
			m.Summary = summary
			return nil
		})
	}
}

// failMaterial flips the material to FAILED on a non-retryable error and
// always returns the original cause so the queue's retry policy sees it.
func (p *Processor) failMaterial(ctx context.Context, log *slog.Logger, m *content.Material, cause error) error {
	class := faults.Classify(cause)
	if !class.Retryable {
		msg := cause.Error()
		m.Status = content.MaterialStatusFailed
		m.Error = &msg
		m.UpdatedAt = p.now()
		if err := p.deps.Materials.UpdateMaterial(ctx, m); err != nil {
			log.ErrorContext(ctx, "failed to mark material failed", logger.Error(err))
		}
	}

	log.ErrorContext(ctx, "material analysis failed",
		logger.Category(string(class.Category)),
		slog.Bool("retryable", class.Retryable),
		logger.Error(cause))
	return cause
}
