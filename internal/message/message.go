// Package message implements project-scoped chat: persistence in
// time-ordered keys and fan-out to the project's realtime room.
//
// Both ingress paths, the REST handler and the websocket event, call the
// same Send method; they differ only in the event name stamped on the
// published envelope.
package message

import (
	"time"

	"github.com/teamforge/collabd/internal/account"
)

// Event names carried on published envelopes. REST-ingress sends emit
// EventNewMessage; websocket-ingress sends emit EventReceiveMessage. The
// names differ for client compatibility and both must be preserved.
const (
	EventNewMessage     = "newMessage"
	EventReceiveMessage = "receiveMessage"
)

// Message is a stored chat message. Immutable once created.
type Message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Resolved is the delivery shape: the stored message plus the author's
// denormalized identity, so clients render without a second lookup.
type Resolved struct {
	Message
	Author account.UserRef `json:"author"`
}
