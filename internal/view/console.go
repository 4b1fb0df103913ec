package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Console renders to a terminal (or any writer) using lipgloss styles.
// Styles degrade to plain text when the writer is not a TTY.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	levels  map[Level]lipgloss.Style
	errBox  lipgloss.Style
	muted   lipgloss.Style
	action  lipgloss.Style
	version lipgloss.Style
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out: out,
		levels: map[Level]lipgloss.Style{
			LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("12")),
			LevelSuccess: r.NewStyle().Foreground(lipgloss.Color("10")),
			LevelWarning: r.NewStyle().Foreground(lipgloss.Color("11")),
			LevelDanger:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		},
		errBox: r.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1),
		muted:   r.NewStyle().Faint(true),
		action:  r.NewStyle().Bold(true),
		version: r.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// Note writes a notice prefixed with its level.
func (c *Console) Note(message string, level Level, persistent bool) {
	style, ok := c.levels[level]
	if !ok {
		style = c.levels[LevelInfo]
	}
	line := style.Render(fmt.Sprintf("[%s] %s", level, message))
	if persistent {
		line += " " + c.muted.Render("(persistent)")
	}
	c.println(line)
}

// ShowError writes content inside a bordered box.
func (c *Console) ShowError(content string) {
	c.println(c.errBox.Render(content))
}

// ShowSpinner writes a waiting indicator.
func (c *Console) ShowSpinner() {
	c.println(c.muted.Render("... waiting for server"))
}

// SetVersion writes the server version line.
func (c *Console) SetVersion(version string, updateAvailable bool) {
	line := c.version.Render("server version " + version)
	if updateAvailable {
		line += " " + c.levels[LevelWarning].Render("(update available)")
	}
	c.println(line)
}

// Render writes the action name and indented JSON payload.
func (c *Console) Render(action string, data json.RawMessage) {
	body := string(data)
	var buf bytes.Buffer
	if len(data) > 0 && json.Indent(&buf, data, "", "  ") == nil {
		body = buf.String()
	}
	c.println(c.action.Render(action) + " " + body)
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
