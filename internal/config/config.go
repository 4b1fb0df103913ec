package config

import "time"

// ClientConfig is the root configuration for an rconclient process.
type ClientConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Connection  ConnectionConfig  `yaml:"connection"`
	Storage     StorageConfig     `yaml:"storage"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig describes the web server the client is pointed at.
// BaseURL plays the role of the page origin: its scheme decides whether the
// secure socket address is preferred and its hostname is used when no socket
// address is configured server-side.
type ServerConfig struct {
	BaseURL    string        `yaml:"base_url"`    // e.g. https://rcon.example.com:4326
	ConfigPath string        `yaml:"config_path"` // socket config endpoint, relative to BaseURL
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"` // retries for the socket config fetch (5xx/429 only)
}

// ConnectionConfig holds WebSocket session settings.
type ConnectionConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
	ReloadDelay      time.Duration `yaml:"reload_delay"` // delay before a full client restart after close
}

// StorageConfig selects the backend of the persistent credential store.
// The session scope always lives in memory.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`   // "memory", "file", "sqlite", "postgres"
	Path     string         `yaml:"path"`     // file or sqlite database path
	Defaults map[string]any `yaml:"defaults"` // file driver: values for keys the file lacks
	Postgres DBConfig       `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CredentialsConfig optionally seeds the login stored in the session scope.
type CredentialsConfig struct {
	LoginName string `yaml:"login_name"`
	LoginHash string `yaml:"login_hash"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stdout, stderr or a file path
}

// MetricsConfig holds Prometheus metrics settings. Port 0 disables the endpoint.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
