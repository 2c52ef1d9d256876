package scheduler

import "time"

// Config holds both schedulers' tuning knobs.
type Config struct {
	ContentTickInterval   time.Duration `env:"SCHEDULER_CONTENT_TICK_INTERVAL" envDefault:"1m"`
	ContentLockTTL        time.Duration `env:"SCHEDULER_CONTENT_LOCK_TTL" envDefault:"2m"`
	AnalyticsTickInterval time.Duration `env:"SCHEDULER_ANALYTICS_TICK_INTERVAL" envDefault:"5m"`
	AnalyticsLockTTL      time.Duration `env:"SCHEDULER_ANALYTICS_LOCK_TTL" envDefault:"5m"`
	// AnalyticsLookback bounds how far back published posts are considered.
	AnalyticsLookback time.Duration `env:"SCHEDULER_ANALYTICS_LOOKBACK" envDefault:"168h"`
	// AnalyticsMinInterval skips posts whose metrics were refreshed recently.
	AnalyticsMinInterval time.Duration `env:"SCHEDULER_ANALYTICS_MIN_INTERVAL" envDefault:"6h"`
	// AnalyticsStagger spaces consecutive metric jobs apart so a tick does
	// not burst the platform rate limits.
	AnalyticsStagger time.Duration `env:"SCHEDULER_ANALYTICS_STAGGER" envDefault:"1s"`
}
