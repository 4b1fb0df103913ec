package connection

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// EventHandler receives every inbound frame.
type EventHandler func(Frame)

type subscription struct {
	id      string
	handler EventHandler
}

// EventBus broadcasts inbound frames to handlers in registration order.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *slog.Logger
}

// NewEventBus creates an event bus.
func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{logger: logger}
}

// On registers handler under id. Registering an existing id replaces its
// handler and keeps its position.
func (b *EventBus) On(id string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.subs {
		if b.subs[i].id == id {
			b.subs[i].handler = handler
			return
		}
	}
	b.subs = append(b.subs, subscription{id: id, handler: handler})
}

// Off removes the handler registered under id.
func (b *EventBus) Off(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Subscribe registers handler under a generated id.
// Returns an unsubscribe function.
func (b *EventBus) Subscribe(handler EventHandler) func() {
	id := uuid.NewString()
	b.On(id, handler)
	return func() { b.Off(id) }
}

// Dispatch calls every handler with f on the calling goroutine. Nil handlers
// are skipped. Panicking handlers are recovered.
func (b *EventBus) Dispatch(f Frame) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.handler == nil {
			continue
		}
		b.call(s, f)
	}
}

func (b *EventBus) call(s subscription, f Frame) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"handler", s.id,
				"action", f.Action,
				"panic", r,
			)
		}
	}()
	s.handler(f)
}

// Len returns the number of registered handlers.
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
