package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/message"
)

// SendMessageRequest is the body of POST /api/messages/:projectID.
type SendMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleListMessages(c echo.Context) error {
	msgs, err := s.deps.Messages.List(c.Request().Context(), c.Param("projectID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// handleSendMessage persists a message and fans it out to the project
// room as a newMessage event, so realtime members see REST-originated
// chatter too.
func (s *Server) handleSendMessage(c echo.Context) error {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resolved, err := s.deps.Messages.Send(c.Request().Context(), c.Param("projectID"), id.UserID, req.Text, message.EventNewMessage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resolved)
}
