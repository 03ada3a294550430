package fuzzfleet

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/fuzzfleet/internal"
)

// Type aliases - public API
type (
	// App is the HTTP application: routing, middleware and graceful shutdown.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler renders errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// HTTPError is an error carrying an HTTP status and a client-facing message.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// ValidationErrors is returned by Context.BindJSON when struct validation fails.
	ValidationErrors = internal.ValidationErrors

	// FieldError is one failed struct field.
	FieldError = internal.FieldError

	// ResponseWriter wraps http.ResponseWriter and tracks status and size.
	ResponseWriter = internal.ResponseWriter

	// Extractor pulls a string value from a request.
	Extractor = internal.Extractor

	// ExtractorSource is one place an Extractor looks.
	ExtractorSource = internal.ExtractorSource
)

// New creates an application. The App is immutable after creation.
//
// Example:
//
//	app := fuzzfleet.New(
//	    fuzzfleet.WithLogger(log),
//	    fuzzfleet.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    fuzzfleet.WithHandlers(handlers.NewJobs(svc)),
//	)
//
//	err := app.Run(":8080", fuzzfleet.Logger(log))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// WithMiddleware adds global middleware, applied in the order given.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers route handlers.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithMount attaches a plain http.Handler, such as a metrics endpoint.
func WithMount(pattern string, h http.Handler) Option {
	return internal.WithMount(pattern, h)
}

// WithErrorHandler sets the renderer for handler errors.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return internal.WithMethodNotAllowedHandler(h)
}

// WithHealthChecks configures the liveness and readiness endpoints.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger sets the logger handed to every request context.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named dependency check to the readiness endpoint.
func WithReadinessCheck(name string, fn func(context.Context) error) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// WithOptionalReadinessCheck adds a readiness check that only degrades the service when it fails.
func WithOptionalReadinessCheck(name string, fn func(context.Context) error) HealthOption {
	return internal.WithOptionalReadinessCheck(name, fn)
}

// Logger sets the logger for server lifecycle events.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown. Default is 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs before the listener opens. An error aborts startup.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs after the server stops accepting requests.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context. Cancelling it shuts the server down.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Errors

// NewHTTPError creates an HTTPError with the given status and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

func WithErrorCode(code string) HTTPErrorOption {
	return internal.WithErrorCode(code)
}

func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

func WithDetails(details any) HTTPErrorOption {
	return internal.WithDetails(details)
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrConflict(message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrServiceUnavailable(message, opts...)
}

// AsHTTPError returns the HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

var (
	ErrInvalidParam         = internal.ErrInvalidParam
	ErrUnsupportedMediaType = internal.ErrUnsupportedMediaType
	ErrMalformedBody        = internal.ErrMalformedBody
)

// Request helpers

// ContextValue returns a typed request-scoped value, or the zero value.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param parses a URL path parameter. Fails with ErrInvalidParam.
func Param[T ~string | ~int | ~int64 | ~bool](c Context, name string) (T, error) {
	return internal.Param[T](c, name)
}

// Query parses a query parameter and reports whether it was present.
func Query[T ~string | ~int | ~int64 | ~bool](c Context, name string) (T, bool, error) {
	return internal.Query[T](c, name)
}

// QueryDefault parses a query parameter, returning defaultValue when absent or invalid.
func QueryDefault[T ~string | ~int | ~int64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// NewExtractor tries each source in order and returns the first non-empty value.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

func FromHeader(name string) ExtractorSource { return internal.FromHeader(name) }
func FromQuery(name string) ExtractorSource  { return internal.FromQuery(name) }
func FromParam(name string) ExtractorSource  { return internal.FromParam(name) }
func FromBearerToken() ExtractorSource       { return internal.FromBearerToken() }
