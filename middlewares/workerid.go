package middlewares

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/fuzzfleet/internal"
	"github.com/dmitrymomot/fuzzfleet/pkg/logger"
)

// WorkerIDHeader is the header fuzzing workers identify themselves with.
const WorkerIDHeader = "X-Worker-ID"

type workerIDKey struct{}

// WorkerID records the calling worker's identity, taken from the
// X-Worker-ID header or the worker_id query parameter. Requests without one
// pass through unchanged.
func WorkerID() internal.Middleware {
	ex := internal.NewExtractor(
		internal.FromHeader(WorkerIDHeader),
		internal.FromQuery("worker_id"),
	)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if id, ok := ex.Extract(c); ok {
				c.Set(workerIDKey{}, id)
			}
			return next(c)
		}
	}
}

// GetWorkerID returns the calling worker's ID, or "".
func GetWorkerID(c internal.Context) string {
	v, _ := c.Get(workerIDKey{}).(string)
	return v
}

// WorkerIDExtractor adds "worker_id" to log records made with a request context.
func WorkerIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(workerIDKey{}).(string); ok && v != "" {
			return slog.String("worker_id", v), true
		}
		return slog.Attr{}, false
	}
}
