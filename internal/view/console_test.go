package view

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConsole_Note(t *testing.T) {
	tests := []struct {
		name       string
		level      Level
		persistent bool
		want       []string
	}{
		{"info", LevelInfo, false, []string{"[info] saved"}},
		{"danger persistent", LevelDanger, true, []string{"[danger] saved", "(persistent)"}},
		{"unknown level", Level("custom"), false, []string{"[custom] saved"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf).Note("saved", tt.level, tt.persistent)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output %q missing %q", buf.String(), want)
				}
			}
		})
	}
}

func TestConsole_ShowError(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).ShowError("Server Error: boom")
	if !strings.Contains(buf.String(), "Server Error: boom") {
		t.Errorf("output %q missing error text", buf.String())
	}
}

func TestConsole_SetVersion(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.SetVersion("1.2", false)
	if strings.Contains(buf.String(), "update available") {
		t.Errorf("unexpected update marker in %q", buf.String())
	}

	buf.Reset()
	c.SetVersion("1.2", true)
	if !strings.Contains(buf.String(), "server version 1.2") || !strings.Contains(buf.String(), "update available") {
		t.Errorf("output %q missing version or update marker", buf.String())
	}
}

func TestConsole_Render(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Render("servers", json.RawMessage(`{"servers":[{"name":"eu-1"}]}`))

	out := buf.String()
	if !strings.HasPrefix(out, "servers ") {
		t.Errorf("output %q should start with action", out)
	}
	if !strings.Contains(out, `"name": "eu-1"`) {
		t.Errorf("output %q should contain indented payload", out)
	}
}
