package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SchedulerRepository is the storage slice the scheduler needs: creating
// periodic task rows and checking whether one is already pending, which is
// how multiple instances avoid double-scheduling the same run.
type SchedulerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
	GetPendingTaskByName(ctx context.Context, taskName string) (*Task, error)
}

// Scheduler materializes registered periodic tasks as queue rows when their
// schedule comes due. It creates the rows; workers with a matching
// PeriodicTaskHandler execute them.
type Scheduler struct {
	repo     SchedulerRepository
	tasks    map[string]*periodicTask
	mu       sync.RWMutex
	interval time.Duration
	logger   *slog.Logger
}

// periodicTask is one registered recurring task and its scheduling state.
type periodicTask struct {
	name            string
	schedule        Schedule
	queue           string
	priority        Priority
	maxRetries      int8
	lastScheduledAt *time.Time
}

// NewScheduler creates a periodic task scheduler over the given storage.
func NewScheduler(repo SchedulerRepository, opts ...SchedulerOption) (*Scheduler, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &schedulerOptions{
		checkInterval: 30 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Scheduler{
		repo:     repo,
		tasks:    make(map[string]*periodicTask),
		interval: options.checkInterval,
		logger:   options.logger,
	}, nil
}

// AddTask registers a named periodic task. The name must match the handler
// registered on the worker side and be unique within this scheduler.
func (s *Scheduler) AddTask(name string, schedule Schedule, opts ...SchedulerTaskOption) error {
	taskOpts := &schedulerTaskOptions{
		queue:      DefaultQueueName,
		priority:   PriorityDefault,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(taskOpts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[name]; exists {
		return ErrTaskAlreadyRegistered
	}

	s.tasks[name] = &periodicTask{
		name:       name,
		schedule:   schedule,
		queue:      taskOpts.queue,
		priority:   taskOpts.priority,
		maxRetries: taskOpts.maxRetries,
	}

	s.logger.Info("registered periodic task",
		slog.String("task_name", name),
		slog.String("schedule", schedule.String()))
	return nil
}

// Start checks registered tasks on the configured interval until the context
// is cancelled. The first check fires immediately. Returns
// ErrSchedulerNotConfigured when no task was registered, which always points
// at a wiring mistake.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.RLock()
	taskCount := len(s.tasks)
	s.mu.RUnlock()

	if taskCount == 0 {
		return ErrSchedulerNotConfigured
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.checkTasks(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.checkTasks(ctx)
		}
	}
}

// checkTasks schedules every due task. One task's failure is logged and must
// not block the rest of the batch.
func (s *Scheduler) checkTasks(ctx context.Context) {
	s.mu.RLock()
	tasks := make([]*periodicTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	s.mu.RUnlock()

	now := time.Now()
	for _, task := range tasks {
		if err := s.scheduleIfDue(ctx, task, now); err != nil {
			s.logger.Error("failed to schedule periodic task",
				slog.String("task_name", task.name),
				slog.String("error", err.Error()))
		}
	}
}

// scheduleIfDue creates the next queue row for a task whose schedule has
// come due. A pending row with the same name counts as already scheduled;
// its time is adopted so restarts do not double-create runs.
func (s *Scheduler) scheduleIfDue(ctx context.Context, task *periodicTask, now time.Time) error {
	var nextRun time.Time
	if task.lastScheduledAt == nil {
		nextRun = task.schedule.Next(now)
	} else {
		nextRun = task.schedule.Next(*task.lastScheduledAt)
		if nextRun.After(now) {
			return nil
		}
	}

	if existing, err := s.repo.GetPendingTaskByName(ctx, task.name); err == nil && existing != nil {
		s.setLastScheduled(task.name, existing.ScheduledAt)
		s.logger.Debug("periodic task already pending",
			slog.String("task_name", task.name),
			slog.Time("scheduled_for", existing.ScheduledAt))
		return nil
	}

	row := &Task{
		ID:          uuid.New(),
		Queue:       task.queue,
		TaskType:    TaskTypePeriodic,
		TaskName:    task.name,
		Status:      TaskStatusPending,
		Priority:    task.priority,
		MaxRetries:  task.maxRetries,
		ScheduledAt: nextRun,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateTask(ctx, row); err != nil {
		return fmt.Errorf("failed to create periodic task: %w", err)
	}

	s.setLastScheduled(task.name, nextRun)
	s.logger.Info("created periodic task",
		slog.String("task_name", task.name),
		slog.Time("scheduled_for", nextRun))
	return nil
}

func (s *Scheduler) setLastScheduled(taskName string, scheduledAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[taskName]; ok {
		t.lastScheduledAt = &scheduledAt
	}
}

// RemoveTask unregisters a periodic task. Rows already created keep running.
func (s *Scheduler) RemoveTask(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, name)

	s.logger.Info("removed periodic task",
		slog.String("task_name", name))
}

// ListTasks returns the names of all registered periodic tasks.
func (s *Scheduler) ListTasks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	return names
}
