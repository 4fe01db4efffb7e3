package http

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"

	"github.com/teamforge/collabd/internal/realtime"
)

// handleProjectEvents streams a project room over Server-Sent Events.
//
// The handler subscribes to the room's NATS subject and forwards every
// payload as one SSE event until the client disconnects. Example:
//
//	GET /api/projects/p1/events
//
//	event: newMessage
//	data: {"id":"m1","projectId":"p1","text":"hello","author":{...}}
func (s *Server) handleProjectEvents(c echo.Context) error {
	projectID := c.Param("id")

	// Validate the project exists before holding the stream open.
	if _, err := s.deps.Projects.Get(c.Request().Context(), projectID); err != nil {
		return err
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Response().WriteHeader(200)
	c.Response().Flush()

	msgChan := make(chan *nats.Msg, 16)
	sub, err := s.deps.NATS.ChanSubscribe(realtime.Subject(projectID), msgChan)
	if err != nil {
		return err
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	// Heartbeat ticker to prevent proxy timeouts
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-msgChan:
			event, data, err := realtime.SplitEnvelope(msg.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Response(), "event: %s\n", event)
			fmt.Fprintf(c.Response(), "data: %s\n\n", data)
			c.Response().Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Response(), ": heartbeat\n\n")
			c.Response().Flush()

		case <-c.Request().Context().Done():
			return nil
		}
	}
}
