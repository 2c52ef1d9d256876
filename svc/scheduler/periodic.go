package scheduler

import (
	"time"

	"github.com/postpilot/core/pkg/queue"
)

// Periodic task names, shared between the queue scheduler that creates the
// rows and the worker handlers that execute them.
const (
	PeriodicTaskContent   = "scheduler.content.tick"
	PeriodicTaskAnalytics = "scheduler.analytics.tick"
)

// PeriodicQueueName is the queue the tick tasks run on, separate from the
// pipeline queues so a backlog of jobs cannot starve scheduling.
const PeriodicQueueName = "scheduling"

// PeriodicHandlers returns worker handlers that execute the scheduler ticks
// as queue tasks, for deployments that drive scheduling through the durable
// queue instead of in-process Run loops. The distributed lock inside each
// tick still applies, so a queue-driven tick and a Run-loop tick can never
// overlap.
func PeriodicHandlers(cs *ContentScheduler, as *AnalyticsScheduler) []queue.Handler {
	return []queue.Handler{
		queue.NewPeriodicTaskHandler(PeriodicTaskContent, cs.Tick),
		queue.NewPeriodicTaskHandler(PeriodicTaskAnalytics, as.Tick),
	}
}

// RegisterPeriodic registers both tick tasks on a queue scheduler using the
// configured intervals. Tick tasks get no retries: the next interval is the
// retry.
func RegisterPeriodic(s *queue.Scheduler, cfg Config) error {
	if cfg.ContentTickInterval <= 0 {
		cfg.ContentTickInterval = time.Minute
	}
	if cfg.AnalyticsTickInterval <= 0 {
		cfg.AnalyticsTickInterval = 5 * time.Minute
	}

	if err := s.AddTask(PeriodicTaskContent, queue.EveryInterval(cfg.ContentTickInterval),
		queue.WithTaskQueue(PeriodicQueueName),
		queue.WithTaskMaxRetries(0),
	); err != nil {
		return err
	}

	return s.AddTask(PeriodicTaskAnalytics, queue.EveryInterval(cfg.AnalyticsTickInterval),
		queue.WithTaskQueue(PeriodicQueueName),
		queue.WithTaskMaxRetries(0),
	)
}
