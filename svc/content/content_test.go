package content_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/core/svc/content"
)

func TestMetrics_EngagementRate(t *testing.T) {
	t.Parallel()

	t.Run("zero impressions", func(t *testing.T) {
		t.Parallel()

		m := content.Metrics{Likes: 10, Comments: 5, Shares: 2}
		assert.Zero(t, m.EngagementRate())
	})

	t.Run("typical post", func(t *testing.T) {
		t.Parallel()

		m := content.Metrics{Likes: 150, Comments: 25, Shares: 10, Impressions: 5000}
		assert.InDelta(t, 3.7, m.EngagementRate(), 0.0001)
	})
}

func TestSchedule_IsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		active    bool
		nextRunAt *time.Time
		want      bool
	}{
		{"never ran", true, nil, true},
		{"due in the past", true, &past, true},
		{"due exactly now", true, &now, true},
		{"not due yet", true, &future, false},
		{"inactive schedule", false, &past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := content.Schedule{IsActive: tt.active, NextRunAt: tt.nextRunAt}
			assert.Equal(t, tt.want, s.IsDue(now))
		})
	}
}

func TestSchedule_NextRunAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("frequency steps", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name      string
			frequency content.Frequency
			interval  int
			want      time.Time
		}{
			{"hourly", content.FrequencyHourly, 1, now.Add(time.Hour)},
			{"every 3 hours", content.FrequencyHourly, 3, now.Add(3 * time.Hour)},
			{"daily", content.FrequencyDaily, 1, now.Add(24 * time.Hour)},
			{"weekly", content.FrequencyWeekly, 1, now.Add(7 * 24 * time.Hour)},
			{"custom 45 minutes", content.FrequencyCustom, 45, now.Add(45 * time.Minute)},
			{"zero interval defaults to one unit", content.FrequencyHourly, 0, now.Add(time.Hour)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				s := content.Schedule{Frequency: tt.frequency, Interval: tt.interval, NextRunAt: &now}
				assert.Equal(t, tt.want, s.NextRunAfter(now))
			})
		}
	})

	t.Run("stale next run catches up monotonically", func(t *testing.T) {
		t.Parallel()

		// Paused for three days, hourly cadence: the next run lands after
		// now, not three days of hourly slots in the past.
		stale := now.Add(-72 * time.Hour)
		s := content.Schedule{Frequency: content.FrequencyHourly, Interval: 1, NextRunAt: &stale}

		next := s.NextRunAfter(now)
		assert.True(t, next.After(now))
		assert.LessOrEqual(t, next.Sub(now), time.Hour)
	})
}

func TestSchedule_NextPreferredTime(t *testing.T) {
	t.Parallel()

	t.Run("no preferred hours means immediate", func(t *testing.T) {
		t.Parallel()

		s := content.Schedule{}
		assert.Nil(t, s.NextPreferredTime(time.Now()))
	})

	t.Run("earliest slot later today", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
		s := content.Schedule{PreferredHours: []int{9, 14, 18}, Timezone: "UTC"}

		got := s.NextPreferredTime(now)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC), *got)
	})

	t.Run("all slots passed rolls to tomorrow", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
		s := content.Schedule{PreferredHours: []int{9, 14, 18}, Timezone: "UTC"}

		got := s.NextPreferredTime(now)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), *got)
	})

	t.Run("respects timezone", func(t *testing.T) {
		t.Parallel()

		// 12:00 UTC is 14:00 in Berlin during summer time, so the 13:00
		// Berlin slot has already passed.
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		s := content.Schedule{PreferredHours: []int{13, 17}, Timezone: "Europe/Berlin"}

		got := s.NextPreferredTime(now)
		require.NotNil(t, got)

		loc, err := time.LoadLocation("Europe/Berlin")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 1, 17, 0, 0, 0, loc).Unix(), got.Unix())
	})

	t.Run("bad timezone falls back to UTC", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
		s := content.Schedule{PreferredHours: []int{9}, Timezone: "Not/AZone"}

		got := s.NextPreferredTime(now)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).Unix(), got.Unix())
	})
}

func TestSocialAccount_TokenExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	assert.False(t, (&content.SocialAccount{}).TokenExpired(now), "nil expiry never expires")
	assert.True(t, (&content.SocialAccount{TokenExpiry: &past}).TokenExpired(now))
	assert.False(t, (&content.SocialAccount{TokenExpiry: &future}).TokenExpired(now))
}

func TestMaterial_MarkUsed(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := content.Material{Status: content.MaterialStatusReady, UsageCount: 2}
	m.MarkUsed(now)

	assert.Equal(t, 3, m.UsageCount)
	require.NotNil(t, m.LastUsedAt)
	assert.Equal(t, now, *m.LastUsedAt)
}

func TestMaterialStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.True(t, content.MaterialStatusReady.Terminal())
	assert.True(t, content.MaterialStatusFailed.Terminal())
	assert.True(t, content.MaterialStatusUsed.Terminal())
	assert.False(t, content.MaterialStatusUploaded.Terminal())
	assert.False(t, content.MaterialStatusProcessing.Terminal())
}
