// Package view renders session output for the user.
//
// The socket session only talks to the Renderer interface. Console is the
// terminal implementation used by rconclient.
package view

import "encoding/json"

// Level is the severity of a notice, matching the server's note types.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Renderer consumes everything the session wants the user to see.
type Renderer interface {
	// Note shows a notice. Persistent notices stay until the client restarts.
	Note(message string, level Level, persistent bool)

	// ShowError replaces the primary content area with an error.
	ShowError(content string)

	// ShowSpinner replaces the primary content area with a busy indicator.
	ShowSpinner()

	// SetVersion shows the server version and whether an update is available.
	SetVersion(version string, updateAvailable bool)

	// Render shows a reply or pushed frame payload for the given action.
	Render(action string, data json.RawMessage)
}

// Discard is a Renderer that drops everything.
type Discard struct{}

func (Discard) Note(string, Level, bool)       {}
func (Discard) ShowError(string)               {}
func (Discard) ShowSpinner()                   {}
func (Discard) SetVersion(string, bool)        {}
func (Discard) Render(string, json.RawMessage) {}
