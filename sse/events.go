package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event types sent to clients.
const (
	EventTypeConnected   = "connected"
	EventTypeKeepAlive   = "keepalive"
	EventTypeLayout      = "layout"
	EventTypeProvisional = "layout.provisional"
	EventTypeMeasure     = "measure"
	EventTypeReset       = "reset"
	EventTypeError       = "error"
)

// Broadcaster sends frames to the clients whose id matches a glob pattern.
type Broadcaster interface {
	BroadcastToPattern(pattern string, data []byte)
}

// ConnectedEvent is sent when a client connects.
type ConnectedEvent struct {
	ClientID string            `json:"client_id"`
	View     string            `json:"view"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MeasureEvent asks the browser to measure the nodes of a version.
type MeasureEvent struct {
	Version uint64 `json:"version"`
	CycleID string `json:"cycleId,omitempty"`
}

// Frame encodes one SSE frame with a JSON payload.
func Frame(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sse: encode %s event: %w", eventType, err)
	}
	var b bytes.Buffer
	b.Grow(len(data) + len(eventType) + 16)
	fmt.Fprintf(&b, "event: %s\ndata: %s\n\n", eventType, data)
	return b.Bytes(), nil
}

// Publish encodes payload and broadcasts it to pattern.
func Publish(b Broadcaster, pattern, eventType string, payload any) error {
	frame, err := Frame(eventType, payload)
	if err != nil {
		return err
	}
	b.BroadcastToPattern(pattern, frame)
	return nil
}
