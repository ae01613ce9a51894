package model

import (
	"encoding/json"
	"time"
)

// SessionKind names the plugin owning a session
type SessionKind string

const (
	SessionKindBrainstorm SessionKind = "brainstorm"
	SessionKindMindmap    SessionKind = "mindmap"
)

// Session plugin conversation state. Data is owned by the plugin.
type Session struct {
	ID        string          `json:"id"`
	Kind      SessionKind     `json:"kind"`
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
