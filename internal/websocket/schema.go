package websocket

import (
	"encoding/json"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing     Action = "ping"
	ActionMarkRead Action = "mark_read"
)

// RequestPayload is any message sent by the client. ID is only used by mark_read.
type RequestPayload struct {
	Action Action `json:"action"`
	ID     int    `json:"id,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventNotification Event = "notification"
	EventRead         Event = "read"
	EventPong         Event = "pong"
)

// NotificationEvent carries one stored notification, passed through as published.
type NotificationEvent struct {
	Event        Event           `json:"event"`
	Notification json.RawMessage `json:"notification"`
}

type ReadEvent struct {
	Event Event `json:"event"`
	ID    int   `json:"id"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
