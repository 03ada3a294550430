package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fuzzfleet/internal"
	"github.com/dmitrymomot/fuzzfleet/middlewares"
)

func TestWorkerID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		target string
		want   string
	}{
		{"header", "fuzzer-03", "/jobs/claim", "fuzzer-03"},
		{"query", "", "/jobs/claim?worker_id=fuzzer-04", "fuzzer-04"},
		{"header wins", "fuzzer-03", "/jobs/claim?worker_id=fuzzer-04", "fuzzer-03"},
		{"absent", "", "/jobs/claim", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(middlewares.WorkerIDHeader, tt.header)
			}
			c := newTestContext(httptest.NewRecorder(), req)

			var got string
			handler := middlewares.WorkerID()(func(c internal.Context) error {
				got = middlewares.GetWorkerID(c)
				return nil
			})
			require.NoError(t, handler(c))
			assert.Equal(t, tt.want, got)

			attr, ok := middlewares.WorkerIDExtractor()(c.Context())
			assert.Equal(t, tt.want != "", ok)
			if ok {
				assert.Equal(t, tt.want, attr.Value.String())
			}
		})
	}

	_, ok := middlewares.WorkerIDExtractor()(context.Background())
	assert.False(t, ok)
}
