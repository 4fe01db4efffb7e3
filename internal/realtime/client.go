package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/message"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// maxFrameSize bounds inbound frames; chat events are small.
	maxFrameSize = 16 * 1024
)

// ClientConfig tunes per-connection behavior.
type ClientConfig struct {
	// SendRate and SendBurst cap sendMessage events per connection.
	SendRate  float64
	SendBurst int
	// WriteBuffer is the outbound queue length; a connection that fills
	// it is dropped by the hub.
	WriteBuffer int
}

// Client is one websocket connection's room session: it reads
// join/leave/send events, forwards chat sends into the message service,
// and writes room payloads delivered by the hub.
type Client struct {
	identity auth.Identity
	conn     *websocket.Conn
	hub      *Hub
	messages *message.Service
	limiter  *rate.Limiter
	logger   *zap.Logger

	send chan []byte
	once func()
}

// ServeConn runs a connection's session and blocks until the peer
// disconnects or the context is cancelled. The connection is always
// dropped from all rooms and closed on return.
func (h *Hub) ServeConn(ctx context.Context, conn *websocket.Conn, id auth.Identity, messages *message.Service, cfg ClientConfig) {
	c := &Client{
		identity: id,
		conn:     conn,
		hub:      h,
		messages: messages,
		limiter:  rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		logger:   h.logger.With(zap.String("user_id", id.UserID)),
		send:     make(chan []byte, cfg.WriteBuffer),
	}

	h.metrics.connections.Inc()
	defer h.metrics.connections.Dec()

	ctx, cancel := context.WithCancel(ctx)
	c.once = cancel

	go c.writePump(ctx)
	c.readPump(ctx)

	cancel()
	h.Drop(c)
	_ = conn.Close()
}

// Deliver implements Subscriber. It never blocks: a full outbound queue
// reports false and the hub drops the connection.
func (c *Client) Deliver(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		c.once()
		return false
	}
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var ev ClientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Debug("dropping malformed event", zap.Error(err))
			continue
		}
		c.handle(ctx, ev)
	}
}

// handle dispatches one inbound event. Faulty events are dropped and
// logged, never answered with an error frame: the room protocol has no
// error channel, matching the original transport.
func (c *Client) handle(ctx context.Context, ev ClientEvent) {
	if ev.ProjectID == "" {
		c.logger.Debug("dropping event without project id", zap.String("event", ev.Event))
		return
	}

	switch ev.Event {
	case eventJoinProject:
		if err := c.hub.Join(c, ev.ProjectID); err != nil {
			c.logger.Warn("room join failed",
				zap.String("project_id", ev.ProjectID), zap.Error(err))
		}
	case eventLeaveProject:
		c.hub.Leave(c, ev.ProjectID)
	case eventSendMessage:
		if !c.limiter.Allow() {
			c.logger.Warn("rate-limited sendMessage dropped",
				zap.String("project_id", ev.ProjectID))
			return
		}
		// Same persist-then-publish path as the REST handler; only the
		// event name differs.
		_, err := c.messages.Send(ctx, ev.ProjectID, c.identity.UserID, ev.Body(), message.EventReceiveMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Debug("realtime send failed",
				zap.String("project_id", ev.ProjectID), zap.Error(err))
		}
	default:
		c.logger.Debug("dropping unknown event", zap.String("event", ev.Event))
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
