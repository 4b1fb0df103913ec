package connection

import (
	"testing"

	"github.com/rickgao/rcon-web/internal/api"
)

func strPtr(s string) *string { return &s }

func TestSelectAddress(t *testing.T) {
	tests := []struct {
		name string
		cfg  api.WSConfig
		page Page
		want string
	}{
		{
			name: "secure page with ssl url",
			cfg:  api.WSConfig{Port: 4327, URL: strPtr("ws://plain:1"), SSLURL: strPtr("wss://secure:2")},
			page: Page{Secure: true, Hostname: "example.com"},
			want: "wss://secure:2",
		},
		{
			name: "insecure page ignores ssl url",
			cfg:  api.WSConfig{Port: 4327, URL: strPtr("ws://plain:1"), SSLURL: strPtr("wss://secure:2")},
			page: Page{Secure: false, Hostname: "example.com"},
			want: "ws://plain:1",
		},
		{
			name: "secure page without ssl url uses url",
			cfg:  api.WSConfig{Port: 4327, URL: strPtr("ws://plain:1")},
			page: Page{Secure: true, Hostname: "example.com"},
			want: "ws://plain:1",
		},
		{
			name: "fallback to hostname and port",
			cfg:  api.WSConfig{Port: 4327},
			page: Page{Hostname: "example.com"},
			want: "ws://example.com:4327",
		},
		{
			name: "secure page with only port still uses ws",
			cfg:  api.WSConfig{Port: 4327},
			page: Page{Secure: true, Hostname: "example.com"},
			want: "ws://example.com:4327",
		},
		{
			name: "ipv6 hostname",
			cfg:  api.WSConfig{Port: 4327},
			page: Page{Hostname: "::1"},
			want: "ws://[::1]:4327",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectAddress(tt.cfg, tt.page); got != tt.want {
				t.Errorf("SelectAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want Page
	}{
		{"https://rcon.example.com:4326", Page{Secure: true, Hostname: "rcon.example.com"}},
		{"http://localhost:4326", Page{Secure: false, Hostname: "localhost"}},
		{"http://[::1]:4326", Page{Secure: false, Hostname: "::1"}},
	}
	for _, tt := range tests {
		got, err := PageFromURL(tt.raw)
		if err != nil {
			t.Fatalf("PageFromURL(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("PageFromURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}
