package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/rcon-web/internal/api"
	"github.com/rickgao/rcon-web/internal/auth"
	"github.com/rickgao/rcon-web/internal/metrics"
	"github.com/rickgao/rcon-web/internal/view"
)

// DisconnectNotice is shown when the connection closes.
const DisconnectNotice = "Connection to the server lost, restarting"

// ConfigSource provides the socket connection parameters.
type ConfigSource interface {
	Load(ctx context.Context) (api.WSConfig, error)
}

// ReadyFunc is called with the handshake reply once the session is usable.
type ReadyFunc func(reply Frame)

// SessionConfig configures a Session.
type SessionConfig struct {
	Page        Page          // origin the client runs under
	Client      ClientConfig  // URL is filled in from the socket config
	ReloadDelay time.Duration // delay before the restart action after a close
}

// Stats is a point-in-time view of a Session.
type Stats struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Queued   int    `json:"queued"`
	Pending  int    `json:"pending"`
	Handlers int    `json:"handlers"`
}

// Session is the client's transport: one connection, its pending requests,
// sends queued before the handshake and the broadcast handlers.
type Session struct {
	id      string
	cfg     SessionConfig
	configs ConfigSource
	creds   auth.Source
	view    view.Renderer
	restart func()
	logger  *slog.Logger
	metrics *metrics.Metrics
	dial    func(ClientConfig, *slog.Logger) Client

	registry *Registry
	queue    *Queue
	bus      *EventBus

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	dispatching atomic.Bool // set while the read loop runs handlers

	mu           sync.Mutex
	state        State
	client       Client
	onReady      ReadyFunc
	restartTimer *time.Timer
	disposed     bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRenderer sets where notices, errors and views are shown.
func WithRenderer(r view.Renderer) SessionOption {
	return func(s *Session) {
		s.view = r
	}
}

// WithCredentials sets the source of the login attached to every frame.
func WithCredentials(src auth.Source) SessionOption {
	return func(s *Session) {
		s.creds = src
	}
}

// WithMetrics sets the collectors the session updates.
func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithRestart sets the action run ReloadDelay after the connection closes.
func WithRestart(fn func()) SessionOption {
	return func(s *Session) {
		s.restart = fn
	}
}

// WithDialer replaces the WebSocket client constructor.
func WithDialer(fn func(ClientConfig, *slog.Logger) Client) SessionOption {
	return func(s *Session) {
		s.dial = fn
	}
}

// NewSession creates a disconnected session.
func NewSession(cfg SessionConfig, configs ConfigSource, opts ...SessionOption) *Session {
	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		configs: configs,
		creds:   auth.Static{},
		view:    view.Discard{},
		restart: func() {},
		logger:  slog.Default(),
		dial:    NewClient,
		state:   StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}

	s.logger = s.logger.With("session", s.id)
	s.registry = NewRegistry(s.view, s.logger)
	s.queue = NewQueue()
	s.bus = NewEventBus(s.logger)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Bus returns the broadcast handlers for inbound frames.
func (s *Session) Bus() *EventBus {
	return s.bus
}

// State returns the connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns the session's current counters.
func (s *Session) Stats() Stats {
	return Stats{
		ID:       s.id,
		State:    s.State().String(),
		Queued:   s.queue.Len(),
		Pending:  s.registry.Len(),
		Handlers: s.bus.Len(),
	}
}

func (s *Session) setStateLocked(st State) {
	s.state = st
	s.metrics.ConnectionState.Set(float64(st))
}

// Connect loads the socket config, opens the connection and sends the
// handshake. onReady runs after the handshake reply, before queued sends are
// flushed. Only a config failure is returned: a failed dial is handled like a
// closed connection.
func (s *Session) Connect(ctx context.Context, onReady ReadyFunc) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.setStateLocked(StateConnecting)
	s.onReady = onReady
	s.mu.Unlock()

	wsCfg, err := s.configs.Load(ctx)
	if err != nil {
		s.mu.Lock()
		if !s.disposed {
			s.setStateLocked(StateDisconnected)
		}
		s.mu.Unlock()
		return fmt.Errorf("load socket config: %w", err)
	}

	clientCfg := s.cfg.Client
	clientCfg.URL = SelectAddress(wsCfg, s.cfg.Page)
	c := s.dial(clientCfg, s.logger.With("url", clientCfg.URL))

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.client = c
	s.mu.Unlock()

	if err := c.Connect(ctx); err != nil {
		s.logger.Warn("socket error", "url", clientCfg.URL, "error", err)
		s.handleClose(c)
		return nil
	}

	s.mu.Lock()
	if s.disposed || s.client != c {
		s.mu.Unlock()
		c.Close()
		return ErrDisposed
	}
	s.setStateLocked(StateOpen)
	s.registry.Reset()
	s.wg.Add(1)
	s.mu.Unlock()

	go s.readLoop(c)

	s.logger.Info("socket connected", "url", clientCfg.URL)

	if err := s.Send(ActionInit, nil, s.handleHandshake); err != nil {
		// The close that follows a failed write drives recovery.
		s.logger.Warn("handshake send failed", "error", err)
	}
	return nil
}

func (s *Session) handleHandshake(reply Frame) {
	if info, err := ParseHandshake(reply.MessageData); err != nil {
		s.logger.Warn("unreadable handshake reply", "error", err)
	} else if info.Package.Version != "" {
		s.view.SetVersion(info.Package.Version, info.UpdateAvailable())
		s.logger.Info("handshake complete",
			"server", info.Package.Name,
			"version", info.Package.Version,
			"latest", info.LatestVersion,
		)
	}

	s.mu.Lock()
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
	onReady := s.onReady
	s.mu.Unlock()

	if onReady != nil {
		onReady(reply)
	}

	n := s.queue.Flush(func(q QueuedSend) {
		if err := s.send(q.Action, q.MessageData, q.Callback); err != nil {
			s.logger.Warn("queued send failed", "action", q.Action, "error", err)
		}
	})
	if n > 0 {
		s.logger.Debug("flushed queued sends", "count", n)
	}
}

// Send transmits action with messageData, calling callback with the reply.
// Before the connection is open the send is queued and replayed after the
// handshake. messageData may be nil, a json.RawMessage, or any value that
// encodes to JSON.
func (s *Session) Send(action string, messageData any, callback ResponseHandler) error {
	data, err := encodeData(messageData)
	if err != nil {
		return err
	}
	return s.send(action, data, callback)
}

func (s *Session) send(action string, data json.RawMessage, callback ResponseHandler) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	c := s.client
	if s.state != StateOpen || c == nil {
		s.mu.Unlock()
		s.queue.Enqueue(QueuedSend{Action: action, MessageData: data, Callback: callback})
		s.metrics.FramesQueued.Inc()
		s.logger.Debug("queued send", "action", action)
		return nil
	}
	s.mu.Unlock()

	frame := OutboundFrame{Action: action, MessageData: data}
	if callback != nil {
		id := s.registry.Register(callback)
		frame.CallbackID = &id
		s.metrics.PendingCallbacks.Set(float64(s.registry.Len()))
	}
	creds := s.creds.Credentials(s.ctx)
	frame.LoginName = creds.LoginName
	frame.LoginHash = creds.LoginHash

	raw, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := c.Send(raw); err != nil {
		s.logger.Warn("socket write failed", "action", action, "error", err)
		return fmt.Errorf("send %s: %w", action, err)
	}

	s.metrics.FramesSent.Inc()
	if frame.CallbackID != nil {
		s.logger.Debug("sent frame", "action", action, "callback_id", *frame.CallbackID)
	} else {
		s.logger.Debug("sent frame", "action", action)
	}
	return nil
}

// LoadView requests the named view and renders the reply.
func (s *Session) LoadView(name string, messageData json.RawMessage) error {
	return s.Send(ActionView, struct {
		View        string          `json:"view"`
		MessageData json.RawMessage `json:"messageData"`
	}{name, messageData}, func(reply Frame) {
		s.view.Render(reply.Action, reply.MessageData)
	})
}

// readLoop handles every event of one connection on a single goroutine.
func (s *Session) readLoop(c Client) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case err := <-c.Errors():
			s.logger.Warn("socket error", "error", err)

		case data := <-c.Messages():
			s.handleMessage(data)

		case <-c.Done():
			s.drain(c)
			s.handleClose(c)
			return
		}
	}
}

// drain handles what the client produced before its read loop stopped.
func (s *Session) drain(c Client) {
	for {
		select {
		case err := <-c.Errors():
			s.logger.Warn("socket error", "error", err)
		case data := <-c.Messages():
			s.handleMessage(data)
		default:
			return
		}
	}
}

func (s *Session) handleMessage(data []byte) {
	if s.ctx.Err() != nil {
		return
	}
	s.dispatching.Store(true)
	defer s.dispatching.Store(false)

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		s.metrics.MalformedFrames.Inc()
		s.logger.Debug("dropping malformed frame", "error", err, "bytes", len(data))
		return
	}
	if f.Action == "" {
		s.metrics.MalformedFrames.Inc()
		s.logger.Debug("dropping frame without action", "bytes", len(data))
		return
	}
	s.metrics.FramesReceived.WithLabelValues(f.Action).Inc()

	if f.CallbackID != nil {
		if s.registry.Resolve(*f.CallbackID, f) {
			if f.ServerErr() != nil {
				s.metrics.ServerErrors.Inc()
			}
		} else {
			s.metrics.UnknownCallbacks.Inc()
		}
		s.metrics.PendingCallbacks.Set(float64(s.registry.Len()))
	}

	s.bus.Dispatch(f)

	if f.Action == ActionServerDisconnect {
		var d struct {
			ServerName string `json:"servername"`
		}
		_ = json.Unmarshal(f.MessageData, &d)
		s.view.Note("Server disconnected: "+d.ServerName, view.LevelDanger, false)
	}
}

// handleClose runs once per connection: it drops the connection, abandons
// pending requests and schedules the restart action.
func (s *Session) handleClose(c Client) {
	s.mu.Lock()
	if s.disposed || c == nil || s.client != c {
		s.mu.Unlock()
		return
	}
	s.client = nil
	s.setStateLocked(StateDisconnected)
	s.registry.Reset()
	if s.restartTimer != nil {
		s.restartTimer.Stop()
	}
	delay := s.cfg.ReloadDelay
	s.restartTimer = time.AfterFunc(delay, s.fireRestart)
	s.mu.Unlock()

	c.Close()
	s.metrics.PendingCallbacks.Set(0)
	s.metrics.Restarts.Inc()
	s.logger.Warn("socket closed, restart scheduled", "delay", delay)

	s.view.Note(DisconnectNotice, view.LevelDanger, true)
	s.view.ShowSpinner()
}

func (s *Session) fireRestart() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.restartTimer = nil
	restart := s.restart
	s.mu.Unlock()

	s.logger.Info("restarting client")
	restart()
}

// Close force-closes the live connection and runs the close handling.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	c := s.client
	s.mu.Unlock()

	if c == nil {
		return ErrNotConnected
	}
	c.Close()
	s.handleClose(c)
	return nil
}

// Dispose shuts the session down for good. No restart is scheduled and
// later sends fail with ErrDisposed. Called from a callback or bus handler it
// returns without waiting and the read loop exits after that handler.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
	c := s.client
	s.client = nil
	s.setStateLocked(StateClosed)
	s.mu.Unlock()

	s.cancel()
	if c != nil {
		c.Close()
	}
	if !s.dispatching.Load() {
		s.wg.Wait()
	}

	s.registry.Clear()
	s.logger.Debug("session disposed", "dropped_queued", s.queue.Len())
}
