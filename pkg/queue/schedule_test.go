package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/postpilot/core/pkg/queue"
)

func TestSchedule_Interval(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 3, 10, 13, 30, 0, 0, time.UTC)

	assert.Equal(t, from.Add(15*time.Minute), queue.EveryMinutes(15).Next(from))
	assert.Equal(t, from.Add(2*time.Hour), queue.EveryHours(2).Next(from))
	assert.Equal(t, from.Add(time.Minute), queue.EveryMinute().Next(from))
	assert.Equal(t, from.Add(time.Hour), queue.Hourly().Next(from))
	assert.Equal(t, from.Add(90*time.Second), queue.EveryInterval(90*time.Second).Next(from))
}

func TestSchedule_Daily(t *testing.T) {
	t.Parallel()

	t.Run("target time still ahead today", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
		next := queue.DailyAt(14, 30).Next(from)
		assert.Equal(t, time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC), next)
	})

	t.Run("target time already passed rolls to tomorrow", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
		next := queue.DailyAt(14, 30).Next(from)
		assert.Equal(t, time.Date(2025, 3, 11, 14, 30, 0, 0, time.UTC), next)
	})

	t.Run("midnight default", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 0, 0, 1, 0, time.UTC)
		next := queue.Daily().Next(from)
		assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), next)
	})
}

func TestSchedule_Weekly(t *testing.T) {
	t.Parallel()

	// 2025-03-10 is a Monday
	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("later this week", func(t *testing.T) {
		t.Parallel()

		next := queue.WeeklyOn(time.Friday, 9, 0).Next(from)
		assert.Equal(t, time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("same weekday but time passed wraps a week", func(t *testing.T) {
		t.Parallel()

		next := queue.WeeklyOn(time.Monday, 9, 0).Next(from)
		assert.Equal(t, time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("midnight default", func(t *testing.T) {
		t.Parallel()

		next := queue.Weekly(time.Sunday).Next(from)
		assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), next)
	})
}

func TestSchedule_Hourly(t *testing.T) {
	t.Parallel()

	t.Run("minute still ahead this hour", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 13, 10, 0, 0, time.UTC)
		next := queue.HourlyAt(45).Next(from)
		assert.Equal(t, time.Date(2025, 3, 10, 13, 45, 0, 0, time.UTC), next)
	})

	t.Run("minute passed rolls to next hour", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 13, 50, 0, 0, time.UTC)
		next := queue.HourlyAt(45).Next(from)
		assert.Equal(t, time.Date(2025, 3, 10, 14, 45, 0, 0, time.UTC), next)
	})
}
