package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fuzzfleet/internal"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

func serve(t *testing.T, app *internal.App, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

type createTarget struct {
	Name     string `json:"name" validate:"required,max=8"`
	Priority int    `json:"priority" validate:"gt=0"`
}

func TestApp_Routing(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) internal.Middleware {
		return func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	app := internal.New(
		internal.WithMiddleware(mark("global")),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.Route("/jobs", func(r internal.Router) {
				r.GET("/{id}", func(c internal.Context) error {
					id, err := internal.Param[int64](c, "id")
					if err != nil {
						return internal.ErrBadRequest(err.Error())
					}
					return c.JSON(http.StatusOK, map[string]int64{"id": id})
				}, mark("first"), mark("second"))
			})
		})),
	)

	rec := serve(t, app, http.MethodGet, "/jobs/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42}`, rec.Body.String())
	assert.Equal(t, []string{"global", "first", "second"}, order)

	rec = serve(t, app, http.MethodGet, "/jobs/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid parameter: id")
}

func TestApp_ErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("default hides internal errors", func(t *testing.T) {
		t.Parallel()

		app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
			r.GET("/boom", func(internal.Context) error { return errors.New("secret") })
		})))

		rec := serve(t, app, http.MethodGet, "/boom", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("custom handler", func(t *testing.T) {
		t.Parallel()

		app := internal.New(
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				return c.JSON(http.StatusTeapot, map[string]string{"error": err.Error()})
			}),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/boom", func(internal.Context) error { return errors.New("boom") })
			})),
		)

		rec := serve(t, app, http.MethodGet, "/boom", "")
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
	})

	t.Run("error after write is ignored", func(t *testing.T) {
		t.Parallel()

		app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
			r.GET("/late", func(c internal.Context) error {
				_ = c.NoContent(http.StatusAccepted)
				return errors.New("late")
			})
		})))

		rec := serve(t, app, http.MethodGet, "/late", "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestContext_BindJSON(t *testing.T) {
	t.Parallel()

	var (
		got  createTarget
		errs internal.ValidationErrors
	)
	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/targets", func(c internal.Context) error {
			got = createTarget{}
			var err error
			errs, err = c.BindJSON(&got)
			if err != nil {
				return internal.ErrBadRequest(err.Error(), internal.WithError(err))
			}
			if len(errs) > 0 {
				return c.JSON(http.StatusUnprocessableEntity, errs)
			}
			return c.NoContent(http.StatusCreated)
		})
	})))

	t.Run("valid", func(t *testing.T) {
		rec := serve(t, app, http.MethodPost, "/targets", `{"name":"libpng","priority":1}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, createTarget{Name: "libpng", Priority: 1}, got)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		rec := serve(t, app, http.MethodPost, "/targets", `{"name":"","priority":0}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body []internal.FieldError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, errs.Has("name"))
		assert.True(t, errs.Has("priority"))
		assert.Len(t, body, 2)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := serve(t, app, http.MethodPost, "/targets", `{"name":"x","priority":1,"extra":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed", func(t *testing.T) {
		rec := serve(t, app, http.MethodPost, "/targets", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "malformed request body")
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/targets", strings.NewReader("name=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unsupported media type")
	})
}

func TestApp_HealthAndMount(t *testing.T) {
	t.Parallel()

	failing := errors.New("db unreachable")
	app := internal.New(
		internal.WithMount("metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("jobs_total 1"))
		})),
		internal.WithHealthChecks(
			internal.WithReadinessCheck("db", func(context.Context) error { return failing }),
			internal.WithReadinessCheck("nil", nil),
		),
	)

	rec := serve(t, app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jobs_total 1", rec.Body.String())

	rec = serve(t, app, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, app, http.MethodGet, "/health/ready?format=json", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db unreachable")
}

func TestOptionalReadinessCheck(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHealthChecks(
		internal.WithReadinessCheck("db", func(context.Context) error { return nil }),
		internal.WithOptionalReadinessCheck("storage", func(context.Context) error {
			return errors.New("bucket unreachable")
		}),
	))

	rec := serve(t, app, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", rec.Body.String())
}

func TestQueryHelpers(t *testing.T) {
	t.Parallel()

	type result struct {
		TargetID int64 `json:"target_id"`
		Present  bool  `json:"present"`
		Limit    int   `json:"limit"`
		Err      bool  `json:"err"`
	}

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.GET("/jobs", func(c internal.Context) error {
			id, ok, err := internal.Query[int64](c, "target_id")
			return c.JSON(http.StatusOK, result{
				TargetID: id,
				Present:  ok,
				Limit:    internal.QueryDefault(c, "limit", 10),
				Err:      err != nil,
			})
		})
	})))

	tests := []struct {
		query string
		want  result
	}{
		{"", result{Limit: 10}},
		{"?target_id=7&limit=3", result{TargetID: 7, Present: true, Limit: 3}},
		{"?target_id=x&limit=y", result{Present: true, Limit: 10, Err: true}},
	}
	for _, tt := range tests {
		rec := serve(t, app, http.MethodGet, "/jobs"+tt.query, "")
		var got result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, tt.want, got, tt.query)
	}
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	ex := internal.NewExtractor(internal.FromHeader("X-Worker-ID"), internal.FromQuery("worker_id"))
	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.GET("/who", func(c internal.Context) error {
			v, ok := ex.Extract(c)
			if !ok {
				return c.NoContent(http.StatusNoContent)
			}
			return c.String(http.StatusOK, v)
		})
	})))

	req := httptest.NewRequest(http.MethodGet, "/who?worker_id=from-query", nil)
	req.Header.Set("X-Worker-ID", "from-header")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, "from-header", rec.Body.String())

	rec = serve(t, app, http.MethodGet, "/who?worker_id=from-query", "")
	assert.Equal(t, "from-query", rec.Body.String())

	rec = serve(t, app, http.MethodGet, "/who", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
