package realtime

import (
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/config"
)

// Broker owns the NATS connection used for room fan-out, optionally
// backed by an in-process server when no external URL is configured.
type Broker struct {
	server *natsserver.Server
	conn   *nats.Conn
}

// Connect dials the configured NATS URL, or starts an embedded server
// on a random port when Embedded is set.
func Connect(cfg config.NATSConfig, logger *zap.Logger) (*Broker, error) {
	b := &Broker{}

	url := cfg.URL
	if cfg.Embedded || url == "" {
		srv, err := natsserver.NewServer(&natsserver.Options{
			Host:   "127.0.0.1",
			Port:   -1,
			NoLog:  true,
			NoSigs: true,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded nats: %w", err)
		}
		go srv.Start()
		if !srv.ReadyForConnections(5 * time.Second) {
			srv.Shutdown()
			return nil, fmt.Errorf("embedded nats not ready")
		}
		b.server = srv
		url = srv.ClientURL()
		logger.Info("started embedded nats server", zap.String("url", url))
	}

	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		if b.server != nil {
			b.server.Shutdown()
		}
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	b.conn = nc
	return b, nil
}

// Conn returns the client connection.
func (b *Broker) Conn() *nats.Conn { return b.conn }

// Close drains the connection and stops the embedded server if one was
// started.
func (b *Broker) Close() {
	if b.conn != nil {
		_ = b.conn.Drain()
		b.conn.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
		b.server.WaitForShutdown()
	}
}
