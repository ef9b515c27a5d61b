package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	route  string
	status int
}

type fakeCollector struct {
	observed []observation
}

func (f *fakeCollector) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	f.observed = append(f.observed, observation{method: method, route: route, status: status})
}

func TestMetricsMiddleware_RouteTemplate(t *testing.T) {
	collector := &fakeCollector{}

	r := mux.NewRouter()
	r.Use(MetricsMiddleware(collector))
	r.HandleFunc("/api/v1/appointments/{appointmentId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/appointments/42", nil))

	require.Len(t, collector.observed, 1)
	assert.Equal(t, observation{
		method: http.MethodGet,
		route:  "/api/v1/appointments/{appointmentId}",
		status: http.StatusNotFound,
	}, collector.observed[0])
}

func TestMetricsMiddleware_DefaultStatus(t *testing.T) {
	collector := &fakeCollector{}
	h := MetricsMiddleware(collector)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/whatever", nil))

	require.Len(t, collector.observed, 1)
	assert.Equal(t, unmatchedRoute, collector.observed[0].route)
	assert.Equal(t, http.StatusOK, collector.observed[0].status)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	const given = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, given)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, given, seen)
	assert.Equal(t, given, rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not a uuid; drop table")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not a uuid; drop table", seen)
}
