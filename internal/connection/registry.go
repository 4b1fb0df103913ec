package connection

import (
	"log/slog"
	"sync"

	"github.com/rickgao/rcon-web/internal/view"
)

// ResponseHandler receives the reply to a request.
type ResponseHandler func(reply Frame)

// Registry correlates replies with the requests that are waiting for them.
// Ids are handed out sequentially from 0 and are not reused until Reset.
type Registry struct {
	view   view.Renderer
	logger *slog.Logger

	mu      sync.Mutex
	next    uint64
	pending map[uint64]ResponseHandler
}

// NewRegistry creates an empty registry. Notes and server errors carried by
// replies are shown through r.
func NewRegistry(r view.Renderer, logger *slog.Logger) *Registry {
	if r == nil {
		r = view.Discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		view:    r,
		logger:  logger,
		pending: make(map[uint64]ResponseHandler),
	}
}

// Register stores handler and returns its callback id.
func (r *Registry) Register(handler ResponseHandler) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.pending[id] = r.wrap(handler)
	return id
}

// wrap shows the reply's note, and on a server error shows it and abandons
// every pending request instead of calling handler.
func (r *Registry) wrap(handler ResponseHandler) ResponseHandler {
	return func(reply Frame) {
		if n := reply.Notice(); n != nil {
			level := view.Level(n.Type)
			if level == "" {
				level = view.LevelInfo
			}
			r.view.Note(n.Message, level, false)
		}
		if e := reply.ServerErr(); e != nil {
			r.logger.Warn("server error",
				"action", reply.Action,
				"message", e.Message,
			)
			r.view.ShowError(e.Display())
			r.Clear()
			return
		}
		if handler != nil {
			handler(reply)
		}
	}
}

// Resolve removes the handler for id and calls it with reply. It reports
// whether a handler was found.
func (r *Registry) Resolve(id uint64, reply Frame) bool {
	r.mu.Lock()
	handler, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Error("no callback for id, possible duplicate dispatch",
			"callback_id", id,
			"action", reply.Action,
		)
		return false
	}
	handler(reply)
	return true
}

// Clear drops every pending handler without calling it. The id sequence
// continues so late replies cannot reach a newer request.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.pending = make(map[uint64]ResponseHandler)
	r.mu.Unlock()
}

// Reset clears the registry and restarts ids at 0.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.pending = make(map[uint64]ResponseHandler)
	r.next = 0
	r.mu.Unlock()
}

// Len returns the number of pending handlers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
