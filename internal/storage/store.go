package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")

// Backend persists raw JSON values by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Store layers a session scope over a persistent scope.
type Store struct {
	session Backend
	local   Backend
}

// New creates a Store. A nil session backend gets an in-memory one.
func New(session, local Backend) *Store {
	if session == nil {
		session = NewMemory()
	}
	return &Store{session: session, local: local}
}

// Get returns the JSON value for key from the session scope, falling back to
// the persistent scope. ok is false when neither has it.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	value, ok, err := s.session.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("get %q from session: %w", key, err)
	}
	if ok {
		return value, true, nil
	}

	value, ok, err = s.local.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value as JSON in the session scope when session is true,
// otherwise in the persistent scope. A nil value removes the key from that scope.
func (s *Store) Set(ctx context.Context, key string, value any, session bool) error {
	target := s.local
	if session {
		target = s.session
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if bytes.Equal(data, []byte("null")) {
		if err := target.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
		return nil
	}

	if err := target.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Close closes both scopes.
func (s *Store) Close() error {
	return errors.Join(s.session.Close(), s.local.Close())
}
