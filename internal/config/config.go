// Package config provides configuration loading for collabd.
package config

import (
	"fmt"
	"time"
)

// Config is the full collabd configuration tree.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	NATS      NATSConfig      `koanf:"nats"`
	Auth      AuthConfig      `koanf:"auth"`
	Logging   LoggingConfig   `koanf:"logging"`
	Realtime  RealtimeConfig  `koanf:"realtime"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// StorageConfig holds badger settings.
type StorageConfig struct {
	Path string `koanf:"path"`
	// InMemory runs badger without a directory. Used by tests and demos;
	// all data is lost on shutdown.
	InMemory bool `koanf:"in_memory"`
}

// NATSConfig selects the room pub/sub backbone.
//
// With Embedded set, collabd runs a nats-server inside the process and
// connects to it over an in-process port; URL is ignored. Pointing URL at a
// shared broker lets several collabd processes fan out to each other's
// rooms.
type NATSConfig struct {
	URL      string `koanf:"url"`
	Embedded bool   `koanf:"embedded"`
}

// AuthConfig holds token issuance settings.
type AuthConfig struct {
	Secret   Secret   `koanf:"secret"`
	TokenTTL Duration `koanf:"token_ttl"`
	Issuer   string   `koanf:"issuer"`
}

// LoggingConfig holds zap construction settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RealtimeConfig tunes websocket connections.
type RealtimeConfig struct {
	// SendRate caps sendMessage events per second per connection.
	SendRate  float64 `koanf:"send_rate"`
	SendBurst int     `koanf:"send_burst"`
	// WriteBuffer is the per-connection outbound queue length. A client
	// that cannot drain it is disconnected rather than blocking the room.
	WriteBuffer int `koanf:"write_buffer"`
}

// TelemetryConfig holds OTLP trace export settings.
type TelemetryConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Endpoint       string   `koanf:"endpoint"`
	Protocol       string   `koanf:"protocol"`
	Insecure       bool     `koanf:"insecure"`
	SampleRate     float64  `koanf:"sample_rate"`
	ServiceName    string   `koanf:"service_name"`
	ServiceVersion string   `koanf:"service_version"`
	Shutdown       Duration `koanf:"shutdown"`
}

// applyDefaults fills zero values with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/collabd"
	}
	// NATS.URL deliberately has no default: an empty URL makes
	// realtime.Connect start the embedded broker.
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = Duration(24 * time.Hour)
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "collabd"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Realtime.SendRate == 0 {
		cfg.Realtime.SendRate = 5
	}
	if cfg.Realtime.SendBurst == 0 {
		cfg.Realtime.SendBurst = 10
	}
	if cfg.Realtime.WriteBuffer == 0 {
		cfg.Realtime.WriteBuffer = 64
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "collabd"
	}
	if cfg.Telemetry.Shutdown == 0 {
		cfg.Telemetry.Shutdown = Duration(5 * time.Second)
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required unless storage.in_memory is set")
	}
	if !c.Auth.Secret.IsSet() {
		return fmt.Errorf("auth.secret is required")
	}
	if len(c.Auth.Secret.Value()) < 32 {
		return fmt.Errorf("auth.secret must be at least 32 bytes")
	}
	if c.Auth.TokenTTL.Duration() <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Realtime.SendRate <= 0 {
		return fmt.Errorf("realtime.send_rate must be positive")
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
		}
		switch c.Telemetry.Protocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http/protobuf, got %q", c.Telemetry.Protocol)
		}
	}
	return nil
}
