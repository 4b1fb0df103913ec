package api

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// WSConfig holds the socket connection parameters served by the web server.
// URL and SSLURL are nil when the server leaves them unset.
type WSConfig struct {
	Port   int     `json:"port"`
	URL    *string `json:"url"`
	SSLURL *string `json:"sslUrl"`
}

// GetWSConfig fetches the socket connection parameters.
func (c *Client) GetWSConfig(ctx context.Context, path string) (WSConfig, error) {
	var cfg WSConfig
	if err := c.get(ctx, path, &cfg); err != nil {
		return WSConfig{}, fmt.Errorf("get %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigLoader fetches WSConfig once and caches it for the process lifetime.
// Concurrent first callers share a single request. Failures are not cached.
type ConfigLoader struct {
	client *Client
	path   string
	group  singleflight.Group

	mu  sync.RWMutex
	cfg *WSConfig
}

// NewConfigLoader creates a loader that reads path from client.
func NewConfigLoader(client *Client, path string) *ConfigLoader {
	return &ConfigLoader{client: client, path: path}
}

// Load returns the cached config, fetching it on first use.
func (l *ConfigLoader) Load(ctx context.Context) (WSConfig, error) {
	if cfg, ok := l.Cached(); ok {
		return cfg, nil
	}

	v, err, _ := l.group.Do(l.path, func() (any, error) {
		cfg, err := l.client.GetWSConfig(ctx, l.path)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cfg = &cfg
		l.mu.Unlock()
		l.client.logger.Debug("socket config loaded",
			"port", cfg.Port,
			"url", deref(cfg.URL),
			"ssl_url", deref(cfg.SSLURL),
		)
		return cfg, nil
	})
	if err != nil {
		return WSConfig{}, err
	}
	return v.(WSConfig), nil
}

// Cached returns the config if it has already been loaded.
func (l *ConfigLoader) Cached() (WSConfig, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cfg == nil {
		return WSConfig{}, false
	}
	return *l.cfg, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
