package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements all queue repository interfaces for testing and local development
type MemoryStorage struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
	dlq   map[uuid.UUID]*TasksDlq

	// Indexes for efficient queries
	byQueue    map[string][]uuid.UUID
	byStatus   map[TaskStatus][]uuid.UUID
	byIdemKey  map[string]uuid.UUID

	// Lock management
	lockTicker *time.Ticker
	done       chan struct{}
}

// NewMemoryStorage creates a new in-memory storage implementation
func NewMemoryStorage() *MemoryStorage {
	ms := &MemoryStorage{
		tasks:     make(map[uuid.UUID]*Task),
		dlq:       make(map[uuid.UUID]*TasksDlq),
		byQueue:   make(map[string][]uuid.UUID),
		byStatus:  make(map[TaskStatus][]uuid.UUID),
		byIdemKey: make(map[string]uuid.UUID),
		done:      make(chan struct{}),
	}

	// Start lock expiration manager
	ms.lockTicker = time.NewTicker(time.Second)
	go ms.lockExpirationManager()

	return ms
}

// Close stops the background goroutines
func (ms *MemoryStorage) Close() error {
	close(ms.done)
	ms.lockTicker.Stop()
	return nil
}

// CreateTask implements EnqueuerRepository and SchedulerRepository
func (ms *MemoryStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}

	// Idempotency keys dedup only among tasks that have not finished yet
	if task.IdempotencyKey != nil {
		if _, exists := ms.byIdemKey[*task.IdempotencyKey]; exists {
			return ErrDuplicateTask
		}
		ms.byIdemKey[*task.IdempotencyKey] = task.ID
	}

	// Clone task to prevent external modifications
	taskCopy := *task
	ms.tasks[task.ID] = &taskCopy

	// Update indexes
	ms.byQueue[task.Queue] = append(ms.byQueue[task.Queue], task.ID)
	ms.byStatus[task.Status] = append(ms.byStatus[task.Status], task.ID)

	return nil
}

// GetPendingTaskByName implements SchedulerRepository
func (ms *MemoryStorage) GetPendingTaskByName(ctx context.Context, taskName string) (*Task, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, taskID := range ms.byStatus[TaskStatusPending] {
		task := ms.tasks[taskID]
		if task.TaskName == taskName {
			taskCopy := *task
			return &taskCopy, nil
		}
	}

	return nil, ErrTaskNotFound
}

// ClaimTask implements WorkerRepository
func (ms *MemoryStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	var bestTask *Task
	var bestPriority Priority = -1

	// Priority-first selection, earliest schedule breaks ties within a tier
	for _, taskID := range ms.byStatus[TaskStatusPending] {
		task := ms.tasks[taskID]

		// Skip tasks not in requested queues
		if !slices.Contains(queues, task.Queue) {
			continue
		}

		// Skip tasks scheduled for future execution (delayed tasks)
		if task.ScheduledAt.After(now) {
			continue
		}

		// Skip tasks still locked by other workers (shouldn't happen in pending status)
		if task.LockedUntil != nil && task.LockedUntil.After(now) {
			continue
		}

		if bestTask == nil ||
			task.Priority > bestPriority ||
			(task.Priority == bestPriority && task.ScheduledAt.Before(bestTask.ScheduledAt)) {
			bestTask = task
			bestPriority = task.Priority
		}
	}

	if bestTask == nil {
		return nil, ErrNoTaskToClaim
	}

	// Claim the task
	lockUntil := now.Add(lockDuration)
	bestTask.Status = TaskStatusProcessing
	bestTask.LockedUntil = &lockUntil
	bestTask.LockedBy = &workerID

	// Update status index
	ms.removeFromStatusIndex(bestTask.ID, TaskStatusPending)
	ms.byStatus[TaskStatusProcessing] = append(ms.byStatus[TaskStatusProcessing], bestTask.ID)

	// Return a copy to prevent external modifications
	taskCopy := *bestTask
	return &taskCopy, nil
}

// CompleteTask implements WorkerRepository
func (ms *MemoryStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, exists := ms.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}

	if task.Status != TaskStatusProcessing {
		return fmt.Errorf("task %s is not in processing state", taskID)
	}

	now := time.Now()
	task.Status = TaskStatusCompleted
	task.ProcessedAt = &now
	task.LockedUntil = nil
	task.LockedBy = nil

	// Update status index
	ms.removeFromStatusIndex(taskID, TaskStatusProcessing)
	ms.byStatus[TaskStatusCompleted] = append(ms.byStatus[TaskStatusCompleted], taskID)

	// Key is free for reuse once the task finished
	ms.releaseIdemKey(task)

	return nil
}

// FailTask implements WorkerRepository. A positive retryAfter overrides the
// default linear backoff (30s, 60s, 90s...) for the next attempt.
func (ms *MemoryStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string, retryAfter time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, exists := ms.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}

	if task.Status != TaskStatusProcessing {
		return fmt.Errorf("task %s is not in processing state", taskID)
	}

	task.RetryCount++
	task.Error = &errorMsg
	task.LockedUntil = nil
	task.LockedBy = nil

	if task.RetryCount >= task.MaxRetries {
		task.Status = TaskStatusFailed
		ms.removeFromStatusIndex(taskID, TaskStatusProcessing)
		ms.byStatus[TaskStatusFailed] = append(ms.byStatus[TaskStatusFailed], taskID)
		ms.releaseIdemKey(task)
	} else {
		// Reset to pending for retry
		task.Status = TaskStatusPending
		ms.removeFromStatusIndex(taskID, TaskStatusProcessing)
		ms.byStatus[TaskStatusPending] = append(ms.byStatus[TaskStatusPending], taskID)

		backoff := retryAfter
		if backoff <= 0 {
			backoff = time.Duration(task.RetryCount) * 30 * time.Second
		}
		task.ScheduledAt = time.Now().Add(backoff)
	}

	return nil
}

// MoveToDLQ implements WorkerRepository
func (ms *MemoryStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, exists := ms.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}

	dlqEntry := &TasksDlq{
		ID:         uuid.New(),
		TaskID:     task.ID,
		Queue:      task.Queue,
		TaskType:   task.TaskType,
		TaskName:   task.TaskName,
		Payload:    task.Payload,
		Priority:   task.Priority,
		Error:      "",
		RetryCount: task.RetryCount,
		FailedAt:   time.Now(),
		CreatedAt:  time.Now(),
	}

	if task.Error != nil {
		dlqEntry.Error = *task.Error
	}

	ms.dlq[dlqEntry.ID] = dlqEntry

	// Remove from main storage and indexes
	ms.removeFromStatusIndex(taskID, task.Status)
	ms.removeFromQueueIndex(taskID, task.Queue)
	ms.releaseIdemKey(task)
	delete(ms.tasks, taskID)

	return nil
}

// ExtendLock implements WorkerRepository
func (ms *MemoryStorage) ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, exists := ms.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}

	if task.Status != TaskStatusProcessing {
		return fmt.Errorf("task %s is not in processing state", taskID)
	}

	lockUntil := time.Now().Add(duration)
	task.LockedUntil = &lockUntil

	return nil
}

// DLQEntries returns a snapshot of the dead letter queue, useful in tests
// and for manual inspection tooling.
func (ms *MemoryStorage) DLQEntries() []TasksDlq {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entries := make([]TasksDlq, 0, len(ms.dlq))
	for _, e := range ms.dlq {
		entries = append(entries, *e)
	}
	return entries
}

// TasksByName returns copies of all tasks with the given name in creation
// order, useful in tests.
func (ms *MemoryStorage) TasksByName(taskName string) []Task {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var tasks []Task
	for _, queueIDs := range ms.byQueue {
		for _, id := range queueIDs {
			if task, ok := ms.tasks[id]; ok && task.TaskName == taskName {
				tasks = append(tasks, *task)
			}
		}
	}
	slices.SortFunc(tasks, func(a, b Task) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return tasks
}

// GetTask returns a copy of a task by ID, useful in tests.
func (ms *MemoryStorage) GetTask(taskID uuid.UUID) (*Task, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	task, exists := ms.tasks[taskID]
	if !exists {
		return nil, ErrTaskNotFound
	}
	taskCopy := *task
	return &taskCopy, nil
}

// Helper methods

func (ms *MemoryStorage) removeFromStatusIndex(taskID uuid.UUID, status TaskStatus) {
	ms.byStatus[status] = slices.DeleteFunc(ms.byStatus[status], func(id uuid.UUID) bool {
		return id == taskID
	})
}

func (ms *MemoryStorage) removeFromQueueIndex(taskID uuid.UUID, queue string) {
	ms.byQueue[queue] = slices.DeleteFunc(ms.byQueue[queue], func(id uuid.UUID) bool {
		return id == taskID
	})
}

func (ms *MemoryStorage) releaseIdemKey(task *Task) {
	if task.IdempotencyKey == nil {
		return
	}
	if owner, ok := ms.byIdemKey[*task.IdempotencyKey]; ok && owner == task.ID {
		delete(ms.byIdemKey, *task.IdempotencyKey)
	}
}

// lockExpirationManager runs in background to recover tasks from dead workers.
// Without it, tasks locked by crashed workers would be stuck forever.
func (ms *MemoryStorage) lockExpirationManager() {
	for {
		select {
		case <-ms.lockTicker.C:
			ms.expireLocks()
		case <-ms.done:
			return
		}
	}
}

// expireLocks resets processing tasks whose lock has passed back to pending.
// The retry count is preserved so failure history survives the reclaim.
func (ms *MemoryStorage) expireLocks() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()

	// Collect first: reindexing inside the range would mutate the slice
	// being iterated.
	var expired []uuid.UUID
	for _, taskID := range ms.byStatus[TaskStatusProcessing] {
		task := ms.tasks[taskID]
		if task.LockedUntil != nil && task.LockedUntil.Before(now) {
			expired = append(expired, taskID)
		}
	}

	for _, taskID := range expired {
		task := ms.tasks[taskID]
		task.Status = TaskStatusPending
		task.LockedUntil = nil
		task.LockedBy = nil

		ms.removeFromStatusIndex(taskID, TaskStatusProcessing)
		ms.byStatus[TaskStatusPending] = append(ms.byStatus[TaskStatusPending], taskID)
	}
}
