package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/rcon-web/internal/api"
	"github.com/rickgao/rcon-web/internal/connection"
	"github.com/rickgao/rcon-web/internal/metrics"
)

type stubSessions struct {
	s *connection.Session
}

func (s stubSessions) Current() *connection.Session { return s.s }

func TestHealthHandler(t *testing.T) {
	idle := connection.NewSession(connection.SessionConfig{}, fixedConfig{cfg: api.WSConfig{}})
	defer idle.Dispose()

	tests := []struct {
		name       string
		session    *connection.Session
		wantCode   int
		wantStatus string
	}{
		{"no session yet", nil, http.StatusServiceUnavailable, "starting"},
		{"disconnected session", idle, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHealthHandler(stubSessions{tt.session}, prometheus.NewRegistry(), "/metrics")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body struct {
				Status  string            `json:"status"`
				Session *connection.Stats `json:"session"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			if tt.session != nil && (body.Session == nil || body.Session.State != "disconnected") {
				t.Errorf("session = %+v, want disconnected stats", body.Session)
			}
			if tt.session == nil && body.Session != nil {
				t.Errorf("session = %+v, want omitted before the first session", body.Session)
			}
		})
	}
}

func TestHealthHandler_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Restarts.Inc()

	h := newHealthHandler(stubSessions{}, reg, "/metrics")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "rconclient_restarts_total 1") {
		t.Errorf("metrics output missing restarts counter:\n%s", rec.Body.String())
	}
}
