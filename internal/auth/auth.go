// Package auth supplies the login credentials attached to every outbound frame.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Storage keys the server's login page writes and every frame reads.
const (
	KeyLoginName = "loginName"
	KeyLoginHash = "loginHash"
)

var jsonNull = json.RawMessage("null")

// Credentials are the raw JSON values of the stored login. A missing value is
// JSON null so the frame still carries the field.
type Credentials struct {
	LoginName json.RawMessage
	LoginHash json.RawMessage
}

// Source returns the credentials current at the time of the call.
type Source interface {
	Credentials(ctx context.Context) Credentials
}

// Getter reads a stored JSON value.
type Getter interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
}

// Setter stores a value as JSON. session selects the process-lifetime scope.
type Setter interface {
	Set(ctx context.Context, key string, value any, session bool) error
}

// StoreSource reads credentials from a Getter on every call, so a login
// stored while connected applies to the next frame.
type StoreSource struct {
	store  Getter
	logger *slog.Logger
}

// NewStoreSource creates a Source backed by store.
func NewStoreSource(store Getter, logger *slog.Logger) *StoreSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSource{store: store, logger: logger}
}

// Credentials implements Source. Read errors are logged and yield null.
func (s *StoreSource) Credentials(ctx context.Context) Credentials {
	return Credentials{
		LoginName: s.lookup(ctx, KeyLoginName),
		LoginHash: s.lookup(ctx, KeyLoginHash),
	}
}

func (s *StoreSource) lookup(ctx context.Context, key string) json.RawMessage {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("credential lookup failed", "key", key, "error", err)
		return jsonNull
	}
	if !ok || len(v) == 0 {
		return jsonNull
	}
	return v
}

// Static is a fixed Source.
type Static Credentials

// Credentials implements Source.
func (c Static) Credentials(context.Context) Credentials {
	out := Credentials(c)
	if out.LoginName == nil {
		out.LoginName = jsonNull
	}
	if out.LoginHash == nil {
		out.LoginHash = jsonNull
	}
	return out
}

// Seed stores a configured login in the session scope. Empty values are
// skipped so a login persisted earlier is not shadowed.
func Seed(ctx context.Context, store Setter, loginName, loginHash string) error {
	if loginName != "" {
		if err := store.Set(ctx, KeyLoginName, loginName, true); err != nil {
			return err
		}
	}
	if loginHash != "" {
		if err := store.Set(ctx, KeyLoginHash, loginHash, true); err != nil {
			return err
		}
	}
	return nil
}
