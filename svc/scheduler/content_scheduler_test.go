package scheduler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/core/pkg/distlock"
	"github.com/postpilot/core/pkg/queue"
	"github.com/postpilot/core/svc/content"
	"github.com/postpilot/core/svc/pipeline"
	"github.com/postpilot/core/svc/scheduler"
)

// memoryContentRepo is an in-memory ContentRepository for tests.
type memoryContentRepo struct {
	mu        sync.Mutex
	schedules []*content.Schedule
	materials map[uuid.UUID][]*content.Material
	platforms map[uuid.UUID][]content.Platform
	advanced  map[uuid.UUID]time.Time
}

func newMemoryContentRepo() *memoryContentRepo {
	return &memoryContentRepo{
		materials: make(map[uuid.UUID][]*content.Material),
		platforms: make(map[uuid.UUID][]content.Platform),
		advanced:  make(map[uuid.UUID]time.Time),
	}
}

func (r *memoryContentRepo) DueSchedules(ctx context.Context, now time.Time) ([]*content.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*content.Schedule
	for _, s := range r.schedules {
		if s.IsDue(now) {
			due = append(due, s)
		}
	}
	return due, nil
}

func (r *memoryContentRepo) ReadyMaterials(ctx context.Context, tenantID uuid.UUID) ([]*content.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.materials[tenantID], nil
}

func (r *memoryContentRepo) ActivePlatforms(ctx context.Context, tenantID uuid.UUID, platforms []content.Platform) ([]content.Platform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := r.platforms[tenantID]
	var out []content.Platform
	for _, p := range platforms {
		for _, a := range active {
			if p == a {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *memoryContentRepo) UpdateNextRunAt(ctx context.Context, scheduleID uuid.UUID, nextRunAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanced[scheduleID] = nextRunAt
	for _, s := range r.schedules {
		if s.ID == scheduleID {
			t := nextRunAt
			s.NextRunAt = &t
		}
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type contentFixture struct {
	repo    *memoryContentRepo
	storage *queue.MemoryStorage
	sched   *scheduler.ContentScheduler
	locker  *distlock.MemoryLocker
	now     time.Time
}

func newContentFixture(t *testing.T, opts ...scheduler.ContentOption) *contentFixture {
	t.Helper()

	repo := newMemoryContentRepo()
	storage := queue.NewMemoryStorage()
	t.Cleanup(func() { _ = storage.Close() })

	enqueuer, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	locker := distlock.NewMemoryLocker()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	opts = append([]scheduler.ContentOption{
		scheduler.WithContentLogger(quietLogger()),
		scheduler.WithContentClock(func() time.Time { return now }),
	}, opts...)

	sched, err := scheduler.NewContentScheduler(repo, locker, enqueuer, scheduler.Config{}, opts...)
	require.NoError(t, err)

	return &contentFixture{repo: repo, storage: storage, sched: sched, locker: locker, now: now}
}

func (f *contentFixture) generateJobs(t *testing.T) []pipeline.GenerateJob {
	t.Helper()

	tasks := f.storage.TasksByName("pipeline.GenerateJob")
	jobs := make([]pipeline.GenerateJob, 0, len(tasks))
	for _, task := range tasks {
		var job pipeline.GenerateJob
		require.NoError(t, json.Unmarshal(task.Payload, &job))
		jobs = append(jobs, job)
	}
	return jobs
}

func dueSchedule(tenantID uuid.UUID, strategy content.SelectionStrategy) *content.Schedule {
	return &content.Schedule{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Frequency:      content.FrequencyDaily,
		Interval:       1,
		Platforms:      []content.Platform{content.PlatformTwitter},
		Strategy:       strategy,
		VariationCount: 3,
		IsActive:       true,
	}
}

func readyMaterial(tenantID uuid.UUID) *content.Material {
	return &content.Material{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Status:    content.MaterialStatusReady,
		CreatedAt: time.Now(),
	}
}

func TestContentScheduler_Tick(t *testing.T) {
	t.Parallel()

	t.Run("due schedule produces exactly one generation job", func(t *testing.T) {
		t.Parallel()

		f := newContentFixture(t)
		tenantID := uuid.New()
		sched := dueSchedule(tenantID, content.SelectionRoundRobin)
		material := readyMaterial(tenantID)

		f.repo.schedules = []*content.Schedule{sched}
		f.repo.materials[tenantID] = []*content.Material{material}
		f.repo.platforms[tenantID] = []content.Platform{content.PlatformTwitter}

		require.NoError(t, f.sched.Tick(context.Background()))

		jobs := f.generateJobs(t)
		require.Len(t, jobs, 1)
		assert.Equal(t, material.ID, jobs[0].MaterialID)
		assert.Equal(t, sched.ID, jobs[0].ScheduleID)
		assert.Equal(t, []content.Platform{content.PlatformTwitter}, jobs[0].Platforms)
		assert.Equal(t, 3, jobs[0].VariationCount)

		// NextRunAt advanced by one day
		next, ok := f.repo.advanced[sched.ID]
		require.True(t, ok)
		assert.Equal(t, f.now.Add(24*time.Hour), next)
	})

	t.Run("lock held elsewhere skips the tick", func(t *testing.T) {
		t.Parallel()

		f := newContentFixture(t)
		tenantID := uuid.New()
		f.repo.schedules = []*content.Schedule{dueSchedule(tenantID, content.SelectionRoundRobin)}
		f.repo.materials[tenantID] = []*content.Material{readyMaterial(tenantID)}
		f.repo.platforms[tenantID] = []content.Platform{content.PlatformTwitter}

		f.locker.InjectHolder("scheduler:content", "other-instance", time.Minute)

		require.NoError(t, f.sched.Tick(context.Background()))
		assert.Empty(t, f.generateJobs(t))
		assert.Empty(t, f.repo.advanced)
	})

	t.Run("no ready material skips but advances", func(t *testing.T) {
		t.Parallel()

		f := newContentFixture(t)
		tenantID := uuid.New()
		sched := dueSchedule(tenantID, content.SelectionRoundRobin)
		f.repo.schedules = []*content.Schedule{sched}
		f.repo.platforms[tenantID] = []content.Platform{content.PlatformTwitter}

		require.NoError(t, f.sched.Tick(context.Background()))
		assert.Empty(t, f.generateJobs(t))
		_, advanced := f.repo.advanced[sched.ID]
		assert.True(t, advanced, "a skipped run still advances to avoid hot-looping")
	})

	t.Run("no active platform connection skips", func(t *testing.T) {
		t.Parallel()

		f := newContentFixture(t)
		tenantID := uuid.New()
		sched := dueSchedule(tenantID, content.SelectionRoundRobin)
		f.repo.schedules = []*content.Schedule{sched}
		f.repo.materials[tenantID] = []*content.Material{readyMaterial(tenantID)}
		// tenant connected only to linkedin, schedule targets twitter
		f.repo.platforms[tenantID] = []content.Platform{content.PlatformLinkedIn}

		require.NoError(t, f.sched.Tick(context.Background()))
		assert.Empty(t, f.generateJobs(t))
	})

	t.Run("repeated tick for the same due time dedups", func(t *testing.T) {
		t.Parallel()

		f := newContentFixture(t)
		tenantID := uuid.New()
		sched := dueSchedule(tenantID, content.SelectionRoundRobin)
		due := f.now.Add(-time.Minute)
		sched.NextRunAt = &due
		f.repo.schedules = []*content.Schedule{sched}
		f.repo.materials[tenantID] = []*content.Material{readyMaterial(tenantID)}
		f.repo.platforms[tenantID] = []content.Platform{content.PlatformTwitter}

		require.NoError(t, f.sched.Tick(context.Background()))

		// Simulate a crash before the advance was persisted: the schedule
		// is due again with the same run time.
		sched.NextRunAt = &due
		require.NoError(t, f.sched.Tick(context.Background()))

		assert.Len(t, f.generateJobs(t), 1, "same run time must not enqueue twice")
	})
}

func TestContentScheduler_SelectionStrategies(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	dayAgo := base.Add(-24 * time.Hour)
	weekAgo := base.Add(-7 * 24 * time.Hour)

	fresh := &content.Material{ID: uuid.New(), TenantID: tenantID,
		Status: content.MaterialStatusReady, CreatedAt: base, UsageCount: 5, LastUsedAt: &dayAgo}
	dusty := &content.Material{ID: uuid.New(), TenantID: tenantID,
		Status: content.MaterialStatusReady, CreatedAt: base.Add(time.Hour), UsageCount: 3, LastUsedAt: &weekAgo}
	never := &content.Material{ID: uuid.New(), TenantID: tenantID,
		Status: content.MaterialStatusReady, CreatedAt: base.Add(2 * time.Hour), UsageCount: 0, Priority: 9}

	tests := []struct {
		name     string
		strategy content.SelectionStrategy
		opts     []scheduler.ContentOption
		wantID   uuid.UUID
	}{
		{"round robin picks never used", content.SelectionRoundRobin, nil, never.ID},
		{"least used picks lowest count", content.SelectionLeastUsed, nil, never.ID},
		{"priority picks highest", content.SelectionPriority, nil, never.ID},
		{"random uses injected source", content.SelectionRandom,
			[]scheduler.ContentOption{scheduler.WithContentRand(func(n int) int { return 1 })}, dusty.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newContentFixture(t, tt.opts...)
			f.repo.schedules = []*content.Schedule{dueSchedule(tenantID, tt.strategy)}
			f.repo.materials[tenantID] = []*content.Material{fresh, dusty, never}
			f.repo.platforms[tenantID] = []content.Platform{content.PlatformTwitter}

			require.NoError(t, f.sched.Tick(context.Background()))

			jobs := f.generateJobs(t)
			require.Len(t, jobs, 1)
			assert.Equal(t, tt.wantID, jobs[0].MaterialID)
		})
	}
}

func TestContentScheduler_RoundRobinTiebreak(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	used := base.Add(-48 * time.Hour)

	older := &content.Material{ID: uuid.New(), TenantID: tenantID,
		Status: content.MaterialStatusReady, CreatedAt: base, LastUsedAt: &used}
	newer := &content.Material{ID: uuid.New(), TenantID: tenantID,
		Status: content.MaterialStatusReady, CreatedAt: base.Add(time.Hour), LastUsedAt: &used}

	f := newContentFixture(t)
	f.repo.schedules = []*content.Schedule{dueSchedule(tenantID, content.SelectionRoundRobin)}
	f.repo.materials[tenantID] = []*content.Material{newer, older}
	f.repo.platforms[tenantID] = []content.Platform{content.PlatformTwitter}

	require.NoError(t, f.sched.Tick(context.Background()))

	jobs := f.generateJobs(t)
	require.Len(t, jobs, 1)
	assert.Equal(t, older.ID, jobs[0].MaterialID, "equal LastUsedAt breaks ties by creation time")
}
