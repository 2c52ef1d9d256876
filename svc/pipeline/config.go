package pipeline

import "time"

// Queue names, one per job kind so each worker pool can be sized on its own.
const (
	QueueAnalyze   = "analyze"
	QueueGenerate  = "generate"
	QueuePublish   = "publish"
	QueueAnalytics = "analytics"
)

// Config holds pipeline tuning knobs. Analyze and generate are AI-latency
// bound and kept low; publish and analytics are I/O bound.
type Config struct {
	AnalyzeConcurrency   int `env:"PIPELINE_ANALYZE_CONCURRENCY" envDefault:"2"`
	GenerateConcurrency  int `env:"PIPELINE_GENERATE_CONCURRENCY" envDefault:"2"`
	PublishConcurrency   int `env:"PIPELINE_PUBLISH_CONCURRENCY" envDefault:"5"`
	AnalyticsConcurrency int `env:"PIPELINE_ANALYTICS_CONCURRENCY" envDefault:"10"`

	// AnalyticsDelay is how long after publishing the first metrics fetch
	// is scheduled.
	AnalyticsDelay time.Duration `env:"PIPELINE_ANALYTICS_DELAY" envDefault:"1h"`
}
