package sse

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Event types produced by the hub itself.
const (
	EventTypeConnected = "connected"
	EventTypeHeartbeat = "heartbeat"
)

// Event is the unit of delivery.
type Event struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type" validate:"required"`
	Data any    `json:"data"`
	// Retry is the client reconnect delay hint in milliseconds. Zero omits it.
	Retry     int       `json:"retry,omitempty" validate:"gte=0"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Target selects which clients a Message is delivered to.
type Target string

const (
	TargetAll     Target = "all"
	TargetUser    Target = "user"
	TargetSession Target = "session"
	TargetClient  Target = "client"
)

// RequiresID reports whether the target needs a TargetID.
func (t Target) RequiresID() bool {
	return t == TargetUser || t == TargetSession || t == TargetClient
}

// Message is a delivery request: an event plus its audience.
type Message struct {
	Event    Event  `json:"event" validate:"required"`
	Target   Target `json:"target" validate:"required"`
	TargetID string `json:"target_id,omitempty"`
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Encode renders the event as an SSE frame:
//
//	id: <id>
//	event: <type>
//	retry: <ms>
//	data: <json>
//
// The id, event and retry lines are omitted when empty. The data line is
// always written; a nil payload encodes as null.
func (e Event) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if e.ID != "" {
		buf.WriteString("id: ")
		buf.WriteString(lineBreaks.Replace(e.ID))
		buf.WriteByte('\n')
	}
	if e.Type != "" {
		buf.WriteString("event: ")
		buf.WriteString(lineBreaks.Replace(e.Type))
		buf.WriteByte('\n')
	}
	if e.Retry > 0 {
		buf.WriteString("retry: ")
		buf.WriteString(strconv.Itoa(e.Retry))
		buf.WriteByte('\n')
	}
	buf.WriteString("data: ")
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encode terminates the data line with '\n'.
	if err := enc.Encode(e.Data); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type connectedPayload struct {
	ClientID  string `json:"client_id"`
	Timestamp string `json:"timestamp"`
}

type heartbeatPayload struct {
	Timestamp string `json:"timestamp"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
