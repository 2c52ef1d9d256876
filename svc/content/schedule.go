package content

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Frequency is how often a schedule fires.
type Frequency string

const (
	FrequencyHourly Frequency = "HOURLY"
	FrequencyDaily  Frequency = "DAILY"
	FrequencyWeekly Frequency = "WEEKLY"
	// FrequencyCustom interprets Interval as minutes.
	FrequencyCustom Frequency = "CUSTOM"
)

// SelectionStrategy decides which READY material a schedule consumes next.
type SelectionStrategy string

const (
	SelectionRoundRobin SelectionStrategy = "ROUND_ROBIN" // least recently used
	SelectionRandom     SelectionStrategy = "RANDOM"
	SelectionPriority   SelectionStrategy = "PRIORITY"
	SelectionLeastUsed  SelectionStrategy = "LEAST_USED"
)

// Schedule is a per-brand recurring content trigger.
type Schedule struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Name           string
	Frequency      Frequency
	Interval       int // units of Frequency; minutes for CUSTOM
	Platforms      []Platform
	Strategy       SelectionStrategy
	BrandVoice     string // tone/style context passed to generation
	VariationCount int
	// RequiredTerms must each appear in every generated variation;
	// ForbiddenTerms must not. Both match case-insensitively.
	RequiredTerms  []string
	ForbiddenTerms []string
	// PreferredHours are hours-of-day (0-23) in Timezone when posts should
	// go out. Empty means publish immediately after approval.
	PreferredHours []int
	Timezone       string
	IsActive       bool
	NextRunAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDue reports whether the schedule should fire at now. A nil NextRunAt
// means the schedule has never run and is due immediately.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	return s.NextRunAt == nil || !s.NextRunAt.After(now)
}

// NextRunAfter computes the next run time one frequency step ahead. The
// step is taken from the current NextRunAt, but never produces a time at or
// before now, so NextRunAt stays monotonically non-decreasing even when a
// schedule was paused past several due times.
func (s *Schedule) NextRunAfter(now time.Time) time.Time {
	base := now
	if s.NextRunAt != nil && s.NextRunAt.After(now) {
		base = *s.NextRunAt
	}

	step := s.step()
	next := base.Add(step)
	for !next.After(now) {
		next = next.Add(step)
	}
	return next
}

func (s *Schedule) step() time.Duration {
	n := s.Interval
	if n <= 0 {
		n = 1
	}

	switch s.Frequency {
	case FrequencyHourly:
		return time.Duration(n) * time.Hour
	case FrequencyDaily:
		return time.Duration(n) * 24 * time.Hour
	case FrequencyWeekly:
		return time.Duration(n) * 7 * 24 * time.Hour
	case FrequencyCustom:
		return time.Duration(n) * time.Minute
	default:
		return 24 * time.Hour
	}
}

// NextPreferredTime resolves the earliest configured preferred hour after
// now in the schedule's timezone. Returns nil when no preferred hours are
// configured, which callers treat as "publish immediately after approval".
// An unparseable timezone falls back to UTC rather than failing the tick.
func (s *Schedule) NextPreferredTime(now time.Time) *time.Time {
	if len(s.PreferredHours) == 0 {
		return nil
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil || s.Timezone == "" {
		loc = time.UTC
	}

	local := now.In(loc)
	hours := slices.Clone(s.PreferredHours)
	slices.Sort(hours)

	for _, h := range hours {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, loc)
		if candidate.After(local) {
			return &candidate
		}
	}

	// All of today's slots have passed, take tomorrow's first slot
	tomorrow := local.AddDate(0, 0, 1)
	first := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hours[0], 0, 0, 0, loc)
	return &first
}
