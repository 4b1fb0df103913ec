package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rickgao/rcon-web/internal/auth"
	"github.com/rickgao/rcon-web/internal/connection"
	"github.com/rickgao/rcon-web/internal/metrics"
	"github.com/rickgao/rcon-web/internal/view"
)

type runnerConfig struct {
	Session  connection.SessionConfig
	View     string
	ViewData json.RawMessage
}

// runner keeps one session alive. When a session asks for a restart it is
// disposed and replaced by a fresh one, the way a reloaded page starts over.
type runner struct {
	cfg     runnerConfig
	configs connection.ConfigSource
	creds   auth.Source
	view    view.Renderer
	metrics *metrics.Metrics
	logger  *slog.Logger
	dial    func(connection.ClientConfig, *slog.Logger) connection.Client

	restarts chan struct{}

	mu      sync.RWMutex
	current *connection.Session
}

func newRunner(cfg runnerConfig, configs connection.ConfigSource, creds auth.Source,
	r view.Renderer, m *metrics.Metrics, logger *slog.Logger) *runner {
	return &runner{
		cfg:      cfg,
		configs:  configs,
		creds:    creds,
		view:     r,
		metrics:  m,
		logger:   logger,
		dial:     connection.NewClient,
		restarts: make(chan struct{}, 1),
	}
}

// Run connects sessions until ctx is cancelled. A config fetch failure ends it.
func (r *runner) Run(ctx context.Context) error {
	for {
		s := r.newSession()
		r.setCurrent(s)

		if err := s.Connect(ctx, r.onReady(s)); err != nil {
			s.Dispose()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			s.Dispose()
			return nil
		case <-r.restarts:
			s.Dispose()
			r.logger.Info("restarting session", "previous", s.ID())
		}
	}
}

func (r *runner) newSession() *connection.Session {
	s := connection.NewSession(r.cfg.Session, r.configs,
		connection.WithLogger(r.logger),
		connection.WithRenderer(r.view),
		connection.WithCredentials(r.creds),
		connection.WithMetrics(r.metrics),
		connection.WithRestart(r.requestRestart),
		connection.WithDialer(r.dial),
	)

	// Pushed frames have no request to return to, so they are rendered here.
	s.Bus().Subscribe(func(f connection.Frame) {
		if f.CallbackID == nil && f.Action != connection.ActionServerDisconnect {
			r.view.Render(f.Action, f.MessageData)
		}
	})
	return s
}

func (r *runner) onReady(s *connection.Session) connection.ReadyFunc {
	return func(connection.Frame) {
		if r.cfg.View == "" {
			return
		}
		if err := s.LoadView(r.cfg.View, r.cfg.ViewData); err != nil {
			r.logger.Warn("failed to load view", "view", r.cfg.View, "error", err)
		}
	}
}

func (r *runner) requestRestart() {
	select {
	case r.restarts <- struct{}{}:
	default:
	}
}

func (r *runner) setCurrent(s *connection.Session) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
}

// Current returns the live session, or nil before the first one starts.
func (r *runner) Current() *connection.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
