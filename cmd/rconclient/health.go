package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/rcon-web/internal/connection"
	"github.com/rickgao/rcon-web/internal/metrics"
	"github.com/rickgao/rcon-web/internal/version"
)

type sessionSource interface {
	Current() *connection.Session
}

// newHealthHandler serves /health and the Prometheus metrics at metricsPath.
func newHealthHandler(sessions sessionSource, g prometheus.Gatherer, metricsPath string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, metrics.Handler(g))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status  string            `json:"status"`
			Version string            `json:"version"`
			Session *connection.Stats `json:"session,omitempty"`
		}{
			Status:  "healthy",
			Version: version.Version,
		}

		if s := sessions.Current(); s == nil {
			health.Status = "starting"
		} else {
			st := s.Stats()
			health.Session = &st
			if s.State() != connection.StateOpen {
				health.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(health); err != nil {
			slog.Warn("write health response", "error", err)
		}
	})

	return mux
}
