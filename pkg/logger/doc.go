// Package logger builds the service's slog loggers.
//
// Output is JSON or text on stdout depending on [Config.Format]. Context
// extractors add request-scoped attributes, such as the request id or the
// calling worker, to every record logged with a context:
//
//	log := logger.New(cfg, middlewares.RequestIDExtractor(), middlewares.WorkerIDExtractor())
//	log.InfoContext(ctx, "job claimed", slog.Int64("job_id", id))
//
// [NewWithSentry] also forwards records to Sentry when SENTRY_DSN is set:
// errors become issues and records at or above SENTRY_MIN_LEVEL are stored
// as Sentry logs. Without a DSN it is the same as [New].
package logger
