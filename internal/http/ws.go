package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Token auth already gates the endpoint; browsers are expected to
	// connect from any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebsocket upgrades the connection and hands it to the hub. The
// token rides the query string because browsers cannot set headers on
// websocket dials.
func (s *Server) handleWebsocket(c echo.Context) error {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake failure.
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}

	s.deps.Hub.ServeConn(c.Request().Context(), conn, id, s.deps.Messages, realtime.ClientConfig{
		SendRate:    s.deps.Realtime.SendRate,
		SendBurst:   s.deps.Realtime.SendBurst,
		WriteBuffer: s.deps.Realtime.WriteBuffer,
	})
	return nil
}
