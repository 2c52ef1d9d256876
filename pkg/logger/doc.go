// Package logger builds structured slog loggers for the execution core.
//
// Workers and schedulers log with structured context so a single job can be
// traced across enqueue, processing, retries and follow-up jobs. The factory
// produces JSON output for production aggregation or text for development,
// and a handler decorator injects request-scoped attributes from context at
// log time.
//
//	log := logger.New(
//		logger.WithProduction("worker"),
//		logger.WithContextValue("job_id", jobIDKey),
//	)
//	log.Info("post published", logger.PostID(post.ID), logger.Platform("instagram"))
package logger
