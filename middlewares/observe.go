package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/fuzzfleet/internal"
)

// RequestObserver records finished requests. pkg/metrics implements it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics reports every request to obs, labelled by the matched chi route
// pattern rather than the raw path so job ids do not explode cardinality.
func Metrics(obs RequestObserver) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)
			obs.ObserveRequest(c.Request().Method, routePattern(c), statusOf(c, err), time.Since(start))
			return err
		}
	}
}

// AccessLog logs one line per request at info level, or warn for 5xx.
func AccessLog() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			status := statusOf(c, err)
			attrs := []any{
				slog.String("method", c.Request().Method),
				slog.String("route", routePattern(c)),
				slog.Int("status", status),
				slog.Duration("elapsed", time.Since(start)),
			}
			if status >= http.StatusInternalServerError {
				c.LogWarn("request served", attrs...)
			} else {
				c.LogInfo("request served", attrs...)
			}
			return err
		}
	}
}

func routePattern(c internal.Context) string {
	if rc := chi.RouteContext(c.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusOf guesses the final status: errors are rendered by the app's
// ErrorHandler after this middleware returns.
func statusOf(c internal.Context, err error) int {
	if err == nil || c.Written() {
		return c.ResponseWriter().Status()
	}
	if httpErr := internal.AsHTTPError(err); httpErr != nil {
		return httpErr.Code
	}
	if _, ok := AsTimeoutError(err); ok {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
