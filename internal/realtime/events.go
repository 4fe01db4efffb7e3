// Package realtime implements the room layer: a process-owned registry of
// live connections per project, bridged over NATS so every collabd
// process sharing a broker sees the same room traffic.
//
// Room membership is ephemeral and unauthenticated beyond the connection's
// verified token: any authenticated connection may join any project's
// room. Tightening this to project membership is an open product
// question; the behavior deliberately matches the original access model.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire shape published to a room and delivered to
// subscribers, over both the websocket and the SSE stream.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ClientEvent is an inbound websocket frame.
//
// Supported events: "joinProject", "leaveProject" (room subscription) and
// "sendMessage" (chat ingress). The body may arrive as "text" or as
// "message"; older clients use the latter.
type ClientEvent struct {
	Event     string `json:"event"`
	ProjectID string `json:"projectId"`
	Text      string `json:"text"`
	Message   string `json:"message"`
}

// Body returns the chat text of a sendMessage event, whichever field
// carried it.
func (e ClientEvent) Body() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Message
}

const (
	eventJoinProject  = "joinProject"
	eventLeaveProject = "leaveProject"
	eventSendMessage  = "sendMessage"
)

// Subject returns the NATS subject carrying a project's room traffic.
func Subject(projectID string) string {
	return fmt.Sprintf("project.%s.room", projectID)
}

// SplitEnvelope unpacks a room payload into its event name and data
// document, for transports that frame the two separately (SSE).
func SplitEnvelope(payload []byte) (event string, data json.RawMessage, err error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", nil, fmt.Errorf("malformed room payload: %w", err)
	}
	return env.Event, env.Data, nil
}
