package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fuzzfleet"
	"github.com/dmitrymomot/fuzzfleet/handlers"
	"github.com/dmitrymomot/fuzzfleet/middlewares"
	"github.com/dmitrymomot/fuzzfleet/pkg/job"
	"github.com/dmitrymomot/fuzzfleet/pkg/storage"
)

type routes func(r fuzzfleet.Router)

func (f routes) Routes(r fuzzfleet.Router) { f(r) }

func failing(err error) fuzzfleet.Handler {
	return routes(func(r fuzzfleet.Router) {
		r.GET("/fail", func(fuzzfleet.Context) error { return err })
	})
}

func TestErrorHandler_Mapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &job.ValidationError{Err: job.ErrUnknownTarget, Field: "target_id", Value: 7}, http.StatusBadRequest, handlers.CodeUnknownTarget},
		{"not found", fmt.Errorf("%w: job 3", job.ErrNotFound), http.StatusNotFound, handlers.CodeNotFound},
		{"already assigned", job.ErrAlreadyAssigned, http.StatusConflict, handlers.CodeAlreadyAssigned},
		{"invalid transition", &job.TransitionError{Err: job.ErrInvalidTransition, From: job.StatusQueued, To: job.StatusRunning}, http.StatusConflict, handlers.CodeInvalidTransition},
		{"duplicate target", job.ErrDuplicateTarget, http.StatusConflict, handlers.CodeDuplicateTarget},
		{"store unavailable", fmt.Errorf("%w: dial tcp: refused", job.ErrStoreUnavailable), http.StatusServiceUnavailable, handlers.CodeStoreUnavailable},
		{"internal", fmt.Errorf("%w: panic in mutation", job.ErrInternal), http.StatusInternalServerError, handlers.CodeInternal},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, handlers.CodeInternal},
		{"seed too large", storage.ErrObjectTooLarge, http.StatusRequestEntityTooLarge, handlers.CodeSeedTooLarge},
		{"upload failed", storage.ErrUploadFailed, http.StatusBadGateway, handlers.CodeStorageUnavailable},
		{"timeout", &middlewares.TimeoutError{Duration: time.Second, Err: context.DeadlineExceeded}, http.StatusServiceUnavailable, handlers.CodeTimeout},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, handlers.CodeTimeout},
		{"http error", fuzzfleet.ErrConflict("busy"), http.StatusConflict, "conflict"},
		{"http error with code", fuzzfleet.ErrBadRequest("nope", fuzzfleet.WithErrorCode("custom")), http.StatusBadRequest, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := newApp(failing(tt.err))
			rec := do(t, app, http.MethodGet, "/fail", "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

			e := decodeError(t, rec)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Message)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestErrorHandler_HidesInternalMessages(t *testing.T) {
	t.Parallel()

	app := newApp(failing(errors.New("pq: password authentication failed for user admin")))
	rec := do(t, app, http.MethodGet, "/fail", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), decodeError(t, rec).Message)
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := do(t, f.app, http.MethodPost, "/inputs", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	e := decodeError(t, rec)
	assert.Equal(t, handlers.CodeValidationFailed, e.Code)
	details, ok := e.Details.([]any)
	require.True(t, ok, "details: %#v", e.Details)
	require.Len(t, details, 1)
	assert.Equal(t, "path", details[0].(map[string]any)["field"])
}

func TestErrorHandler_Panic(t *testing.T) {
	t.Parallel()

	app := newApp(routes(func(r fuzzfleet.Router) {
		r.GET("/panic", func(fuzzfleet.Context) error { panic("nil map write") })
	}))

	rec := do(t, app, http.MethodGet, "/panic", "", "X-Request-ID", "req-panic")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	e := decodeError(t, rec)
	assert.Equal(t, handlers.CodeInternal, e.Code)
	assert.Equal(t, "req-panic", e.RequestID)
	assert.NotContains(t, e.Message, "nil map")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := do(t, f.app, http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handlers.CodeNotFound, decodeError(t, rec).Code)

	rec = do(t, f.app, http.MethodDelete, "/targets/1", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, handlers.CodeMethodNotAllowed, decodeError(t, rec).Code)
}

type unavailableJobs struct {
	*job.Service
}

func (unavailableJobs) Get(context.Context, int64) (job.Job, error) {
	return job.Job{}, fmt.Errorf("%w: connection refused", job.ErrStoreUnavailable)
}

func TestJobs_StoreUnavailable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	app := newApp(handlers.NewJobs(unavailableJobs{f.svc}))
	rec := do(t, app, http.MethodGet, "/jobs/1", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, handlers.CodeStoreUnavailable, decodeError(t, rec).Code)
}
