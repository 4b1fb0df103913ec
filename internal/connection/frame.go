package connection

import (
	"encoding/json"
	"fmt"
)

// Reserved actions.
const (
	ActionInit             = "init"
	ActionServerDisconnect = "serverDisconnect"
	ActionView             = "view"
)

// Frame is an inbound message from the server.
type Frame struct {
	Action      string          `json:"action"`
	CallbackID  *uint64         `json:"callbackId,omitempty"`
	MessageData json.RawMessage `json:"messageData,omitempty"`
	Note        *Note           `json:"note,omitempty"`
	Error       *ServerError    `json:"error,omitempty"`
}

// Note is a transient notice attached to a reply.
type Note struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ServerError is a failure reported by the server in a reply.
type ServerError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// Display returns the text shown to the user, preferring the stack.
func (e *ServerError) Display() string {
	if e.Stack != "" {
		return "Server Error\n" + e.Stack
	}
	return "Server Error: " + e.Message
}

// nested is the legacy reply shape with note and error inside messageData.
type nested struct {
	Note  *Note        `json:"note"`
	Error *ServerError `json:"error"`
}

func (f Frame) nested() nested {
	var n nested
	if len(f.MessageData) == 0 || f.MessageData[0] != '{' {
		return n
	}
	// A messageData that merely resembles the legacy shape is not an error.
	_ = json.Unmarshal(f.MessageData, &n)
	return n
}

// Notice returns the frame's note, checking the envelope then messageData.
func (f Frame) Notice() *Note {
	if f.Note != nil {
		return f.Note
	}
	return f.nested().Note
}

// ServerErr returns the frame's error, checking the envelope then messageData.
func (f Frame) ServerErr() *ServerError {
	if f.Error != nil {
		return f.Error
	}
	return f.nested().Error
}

// OutboundFrame is a message sent to the server. Credentials are attached to
// every frame; a nil value encodes as null.
type OutboundFrame struct {
	Action      string          `json:"action"`
	CallbackID  *uint64         `json:"callbackId,omitempty"`
	MessageData json.RawMessage `json:"messageData"`
	LoginName   json.RawMessage `json:"loginName"`
	LoginHash   json.RawMessage `json:"loginHash"`
}

// HandshakeInfo is the messageData of the init reply.
type HandshakeInfo struct {
	Package struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"package"`
	LatestVersion string `json:"latestVersion"`
}

// UpdateAvailable reports whether the server knows of a newer release.
func (h HandshakeInfo) UpdateAvailable() bool {
	return h.LatestVersion != "" && h.LatestVersion != h.Package.Version
}

// ParseHandshake decodes the init reply payload.
func ParseHandshake(data json.RawMessage) (HandshakeInfo, error) {
	var info HandshakeInfo
	if len(data) == 0 {
		return info, fmt.Errorf("empty handshake")
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("parse handshake: %w", err)
	}
	return info, nil
}

// encodeData marshals messageData up front so encoding errors reach the caller.
func encodeData(v any) (json.RawMessage, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if d != nil && !json.Valid(d) {
			return nil, fmt.Errorf("messageData is not valid JSON")
		}
		return d, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode messageData: %w", err)
	}
	return data, nil
}
