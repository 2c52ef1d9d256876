package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postpilot/core/pkg/pg"
)

// PostgresStorage implements all queue repository interfaces on top of a
// pgx connection pool. Claims rely on FOR UPDATE SKIP LOCKED so multiple
// worker processes can poll the same table without contending, and expired
// locks are reclaimed inside the claim query rather than by a background
// sweeper.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a Postgres-backed queue storage. The schema is
// managed by the pg package's embedded migrations.
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrRepositoryNil
	}
	return &PostgresStorage{pool: pool}, nil
}

const taskColumns = `id, queue, task_type, task_name, payload, status, priority,
	retry_count, max_retries, idempotency_key, scheduled_at, locked_until,
	locked_by, processed_at, error, created_at`

// CreateTask implements EnqueuerRepository and SchedulerRepository.
// Returns ErrDuplicateTask when the idempotency key collides with a task
// that is still pending or processing.
func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, queue, task_type, task_name, payload, status,
			priority, retry_count, max_retries, idempotency_key, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		task.ID, task.Queue, task.TaskType, task.TaskName, task.Payload,
		task.Status, task.Priority, task.RetryCount, task.MaxRetries,
		task.IdempotencyKey, task.ScheduledAt, task.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateTask
		}
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// GetPendingTaskByName implements SchedulerRepository
func (s *PostgresStorage) GetPendingTaskByName(ctx context.Context, taskName string) (*Task, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE task_name = $1 AND status = $2
		ORDER BY scheduled_at
		LIMIT 1`,
		taskName, TaskStatusPending)

	task, err := scanTask(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to query pending task by name: %w", err)
	}

	return task, nil
}

// ClaimTask implements WorkerRepository. The inner select picks the highest
// priority due task, including processing tasks whose lock has expired, and
// SKIP LOCKED keeps concurrent workers from blocking on the same row.
func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tasks SET
			status = $1,
			locked_until = now() + $2,
			locked_by = $3
		WHERE id = (
			SELECT id FROM tasks
			WHERE queue = ANY($4)
			  AND (
			    (status = $5 AND scheduled_at <= now())
			    OR (status = $1 AND locked_until < now())
			  )
			ORDER BY priority DESC, scheduled_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+taskColumns,
		TaskStatusProcessing, lockDuration, workerID, queues, TaskStatusPending)

	task, err := scanTask(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNoTaskToClaim
		}
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}

	return task, nil
}

// CompleteTask implements WorkerRepository
func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET
			status = $1,
			processed_at = now(),
			locked_until = NULL,
			locked_by = NULL
		WHERE id = $2 AND status = $3`,
		TaskStatusCompleted, taskID, TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s is not in processing state", taskID)
	}

	return nil
}

// FailTask implements WorkerRepository. The whole retry decision runs in a
// single statement so a concurrent lock-expiry reclaim cannot observe a
// half-updated row. A positive retryAfter overrides the default linear
// backoff (30s per attempt) for the next run.
func (s *PostgresStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string, retryAfter time.Duration) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET
			retry_count = retry_count + 1,
			error = $1,
			locked_until = NULL,
			locked_by = NULL,
			status = CASE
				WHEN retry_count + 1 >= max_retries THEN $2
				ELSE $3
			END,
			scheduled_at = CASE
				WHEN retry_count + 1 >= max_retries THEN scheduled_at
				WHEN $4::double precision > 0 THEN now() + make_interval(secs => $4)
				ELSE now() + make_interval(secs => (retry_count + 1) * 30)
			END
		WHERE id = $5 AND status = $6`,
		errorMsg, TaskStatusFailed, TaskStatusPending,
		retryAfter.Seconds(), taskID, TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to fail task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s is not in processing state", taskID)
	}

	return nil
}

// MoveToDLQ implements WorkerRepository. Copy and delete run in one
// transaction so the task is never visible in both tables.
func (s *PostgresStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		INSERT INTO tasks_dlq (id, task_id, queue, task_type, task_name,
			payload, priority, error, retry_count, failed_at, created_at)
		SELECT $1, id, queue, task_type, task_name, payload, priority,
			COALESCE(error, ''), retry_count, now(), now()
		FROM tasks WHERE id = $2`,
		uuid.New(), taskID)
	if err != nil {
		return fmt.Errorf("failed to copy task to DLQ: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to delete task after DLQ copy: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit DLQ move: %w", err)
	}

	return nil
}

// ExtendLock implements WorkerRepository
func (s *PostgresStorage) ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET locked_until = now() + $1
		WHERE id = $2 AND status = $3`,
		duration, taskID, TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to extend lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s is not in processing state", taskID)
	}

	return nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.Queue, &t.TaskType, &t.TaskName, &t.Payload, &t.Status,
		&t.Priority, &t.RetryCount, &t.MaxRetries, &t.IdempotencyKey,
		&t.ScheduledAt, &t.LockedUntil, &t.LockedBy, &t.ProcessedAt,
		&t.Error, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
