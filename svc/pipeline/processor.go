package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilot/core/pkg/breaker"
	"github.com/postpilot/core/pkg/faults"
	"github.com/postpilot/core/pkg/queue"
	"github.com/postpilot/core/pkg/throttle"
	"github.com/postpilot/core/svc/similarity"
)

// breakerOpenAI guards all language-model calls; connector calls use the
// platform name as the breaker name.
const breakerOpenAI = "openai"

// Enqueuer abstracts task submission, satisfied by *queue.Enqueuer.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error
}

// Deps are the collaborators the processors operate on. All fields are
// required.
type Deps struct {
	Materials  MaterialRepository
	Schedules  ScheduleRepository
	Pending    PendingPostRepository
	Posts      PostRepository
	Accounts   AccountRepository
	AI         AIProvider
	Connectors *ConnectorRegistry
	Breakers   *breaker.Registry
	Limiter    *throttle.Limiter
	Similarity *similarity.Service
	Enqueuer   Enqueuer
}

// Processor hosts the four pipeline job handlers. Every handler is safe to
// re-run from the top: a terminal-status check precedes any side effect, so
// queue redelivery after a crash cannot duplicate external calls.
type Processor struct {
	deps           Deps
	analyticsDelay time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// Option is a functional option for configuring the Processor.
type Option func(*Processor)

// WithLogger sets the logger for processor checkpoints.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// New validates the dependency set and builds a Processor.
func New(deps Deps, cfg Config, opts ...Option) (*Processor, error) {
	if deps.Materials == nil || deps.Schedules == nil || deps.Pending == nil ||
		deps.Posts == nil || deps.Accounts == nil {
		return nil, fmt.Errorf("%w: repository", ErrDependencyNil)
	}
	if deps.AI == nil || deps.Connectors == nil || deps.Breakers == nil ||
		deps.Limiter == nil || deps.Similarity == nil || deps.Enqueuer == nil {
		return nil, fmt.Errorf("%w: collaborator", ErrDependencyNil)
	}

	p := &Processor{
		deps:           deps,
		analyticsDelay: cfg.AnalyticsDelay,
		logger:         slog.Default(),
		now:            time.Now,
	}
	if p.analyticsDelay <= 0 {
		p.analyticsDelay = time.Hour
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Handlers returns all four job handlers for registration on a worker that
// consumes every pipeline queue.
func (p *Processor) Handlers() []queue.Handler {
	return []queue.Handler{
		queue.NewTaskHandler(p.HandleAnalyze),
		queue.NewTaskHandler(p.HandleGenerate),
		queue.NewTaskHandler(p.HandlePublish),
		queue.NewTaskHandler(p.HandleAnalytics),
	}
}

// doWithBreaker runs fn through the named circuit breaker. An open breaker
// surfaces as a retryable unavailability carrying the remaining cool-down,
// so the queue reschedules instead of burning attempts against a dead
// dependency.
func (p *Processor) doWithBreaker(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	err := p.deps.Breakers.Get(name).Do(ctx, fn)

	var openErr *breaker.OpenError
	if errors.As(err, &openErr) {
		return faults.Unavailable(openErr.Error(), openErr.RetryAfter, err)
	}
	return err
}

// Workers builds one worker per job kind with its own concurrency limit, so
// slow AI-bound work cannot starve I/O-bound publishing.
func (p *Processor) Workers(repo queue.WorkerRepository, cfg Config, opts ...queue.WorkerOption) ([]*queue.Worker, error) {
	kinds := []struct {
		queueName   string
		concurrency int
		handler     queue.Handler
	}{
		{QueueAnalyze, cfg.AnalyzeConcurrency, queue.NewTaskHandler(p.HandleAnalyze)},
		{QueueGenerate, cfg.GenerateConcurrency, queue.NewTaskHandler(p.HandleGenerate)},
		{QueuePublish, cfg.PublishConcurrency, queue.NewTaskHandler(p.HandlePublish)},
		{QueueAnalytics, cfg.AnalyticsConcurrency, queue.NewTaskHandler(p.HandleAnalytics)},
	}

	workers := make([]*queue.Worker, 0, len(kinds))
	for _, k := range kinds {
		workerOpts := append([]queue.WorkerOption{
			queue.WithQueues(k.queueName),
		}, opts...)
		if k.concurrency > 0 {
			workerOpts = append(workerOpts, queue.WithMaxConcurrentTasks(k.concurrency))
		}

		w, err := queue.NewWorker(repo, workerOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s worker: %w", k.queueName, err)
		}
		if err := w.RegisterHandler(k.handler); err != nil {
			return nil, fmt.Errorf("failed to register %s handler: %w", k.queueName, err)
		}
		workers = append(workers, w)
	}
	return workers, nil
}
