package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/rcon-web/internal/config"
)

// ApplicationName is reported to PostgreSQL in pg_stat_activity.
const ApplicationName = "rconclient"

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	userinfo := url.QueryEscape(cfg.User)
	if cfg.Password != "" {
		// URL-encode password to handle special characters
		userinfo += ":" + url.QueryEscape(cfg.Password)
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s&application_name=%s",
		userinfo,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
		ApplicationName,
	)
}
