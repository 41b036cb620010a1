package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ridgegate-systems/fwbridge/internal/handlers"
	"github.com/ridgegate-systems/fwbridge/internal/middleware"
)

// NewRouter constructs a ServeMux with the bridge API routes
// registered. API routes sit behind the bearer-auth middleware;
// probes and metrics stay open.
func NewRouter(h *handlers.Handler, apiSecret string) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/v1/events", h.Events)
	api.HandleFunc("/api/v1/threats", h.Threats)
	api.HandleFunc("/api/v1/stats", h.Stats)
	api.HandleFunc("/api/v1/health", h.Connectivity)

	mux := http.NewServeMux()
	mux.Handle("/api/", middleware.BearerAuth(apiSecret)(api))

	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
