package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/v1/events":          "/api/v1/events",
		"/api/v1/events/42":       "/api/v1/events/:id",
		"/api/v1/users/7/events":  "/api/v1/users/:id/events",
		"/healthz":                "/healthz",
		"/api/v1/events/not-a-id": "/api/v1/events/not-a-id",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizePath(in), in)
	}
}

func TestHTTPMiddlewareRecordsStatus(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/99", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())

	counter, err := HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/api/v1/events/:id", "418")
	require.NoError(t, err)
	require.NotNil(t, counter)
}

func TestHTTPMiddlewareDefaultsTo200(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
