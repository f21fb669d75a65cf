package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

// HealthFunc reports whether the service can answer requests.
type HealthFunc func(ctx context.Context) error

// SetupServer sets up the HTTP server with the data API, metrics and health endpoints
func SetupServer(httpAddr string, api http.Handler, gatherer prometheus.Gatherer, health HealthFunc) *http.Server {
	httpMux := http.NewServeMux()

	if gatherer != nil {
		httpMux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	httpMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if health != nil {
			if err := health(ctx); err != nil {
				klog.V(2).InfoS("Health check failed", "error", err)
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") {
			api.ServeHTTP(w, r)
			return
		}

		httpMux.ServeHTTP(w, r)
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return httpServer
}
