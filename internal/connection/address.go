package connection

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/rcon-web/internal/api"
)

// Page describes the origin the client was served from.
type Page struct {
	Secure   bool
	Hostname string
}

// PageFromURL derives the page origin from the web server's base URL.
func PageFromURL(raw string) (Page, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Page{}, err
	}
	return Page{Secure: u.Scheme == "https", Hostname: u.Hostname()}, nil
}

// SelectAddress picks the socket address: the sslUrl for a secure page when
// one is configured, else the url, else ws://<hostname>:<port>.
func SelectAddress(cfg api.WSConfig, page Page) string {
	if page.Secure && cfg.SSLURL != nil && *cfg.SSLURL != "" {
		return *cfg.SSLURL
	}
	if cfg.URL != nil && *cfg.URL != "" {
		return *cfg.URL
	}
	return "ws://" + net.JoinHostPort(page.Hostname, strconv.Itoa(cfg.Port))
}
