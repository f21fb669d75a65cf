package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(srv *http.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSetupServerRoutes(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_requests_total"})
	require.NoError(t, reg.Register(counter))
	counter.Inc()

	srv := SetupServer(":0", api, reg, nil)
	assert.Equal(t, ":0", srv.Addr)

	assert.Equal(t, http.StatusTeapot, serve(srv, "/v1/taxon").Code)

	rec := serve(srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_requests_total 1")

	rec = serve(srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(srv, "/swagger/").Code)
}

func TestSetupServerUnhealthy(t *testing.T) {
	srv := SetupServer(":0", http.NotFoundHandler(), nil, func(context.Context) error {
		return errors.New("workspace unreachable")
	})

	rec := serve(srv, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "workspace unreachable")
	assert.Equal(t, http.StatusNotFound, serve(srv, "/metrics").Code)
}
