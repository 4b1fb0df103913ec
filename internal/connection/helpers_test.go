package connection

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rickgao/rcon-web/internal/view"
)

// recordingView is a view.Renderer that keeps every call.
type recordingView struct {
	mu       sync.Mutex
	notes    []string
	errors   []string
	spinners int
	version  string
	update   bool
	renders  []string
}

func (r *recordingView) Note(message string, level view.Level, persistent bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, fmt.Sprintf("%s:%s:%t", level, message, persistent))
}

func (r *recordingView) ShowError(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, content)
}

func (r *recordingView) ShowSpinner() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spinners++
}

func (r *recordingView) SetVersion(version string, updateAvailable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.version = version
	r.update = updateAvailable
}

func (r *recordingView) Render(action string, data json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, action+" "+string(data))
}

func (r *recordingView) snapshot() recordingView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recordingView{
		notes:    append([]string(nil), r.notes...),
		errors:   append([]string(nil), r.errors...),
		spinners: r.spinners,
		version:  r.version,
		update:   r.update,
		renders:  append([]string(nil), r.renders...),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frameJSON(s string) Frame {
	var f Frame
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		panic(err)
	}
	return f
}
