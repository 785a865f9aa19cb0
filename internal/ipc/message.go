// Package ipc implements the local control channel between the CLI and a
// running instance: length-prefixed JSON envelopes over a named pipe on
// Windows or a unix socket elsewhere.
package ipc

import "encoding/json"

// Message types.
const (
	TypeStatus    = "status"
	TypeSetPolicy = "set_policy"
	TypeSetMode   = "set_mode"
	TypeExit      = "exit"
	TypeResult    = "result"
)

// MaxMessageSize is the maximum size of one JSON message (1MB).
const MaxMessageSize = 1024 * 1024

// Envelope is the wire-format wrapper for all messages.
type Envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SetPolicyRequest asks the instance to switch policy.
type SetPolicyRequest struct {
	Policy string `json:"policy"`
}

// SetModeRequest asks the instance to switch mode.
type SetModeRequest struct {
	Mode string `json:"mode"`
}
