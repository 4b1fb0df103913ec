package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rickgao/rcon-web/internal/config"
	"github.com/rickgao/rcon-web/internal/database"
)

// Open creates the persistent backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		defaults, err := encodeDefaults(cfg.Defaults)
		if err != nil {
			return nil, err
		}
		return OpenFile(cfg.Path, defaults)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pg, err := NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func encodeDefaults(in map[string]any) (map[string]json.RawMessage, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for key, v := range in {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode storage default %q: %w", key, err)
		}
		out[key] = raw
	}
	return out, nil
}
