package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Load reads configuration from an optional YAML file, then overlays
// environment variables, then applies defaults.
//
// Precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, AUTH_TOKEN_TTL, NATS_URL, ...)
//  2. YAML config file, when path is non-empty and the file exists
//  3. Hardcoded defaults
//
// Environment variables map to config keys by lowercasing and splitting on
// the first underscore:
//
//	SERVER_PORT            -> server.port
//	AUTH_TOKEN_TTL         -> auth.token_ttl
//	REALTIME_SEND_RATE     -> realtime.send_rate
//	TELEMETRY_SERVICE_NAME -> telemetry.service_name
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	// Section and field split on the first underscore only, so compound
	// field names (token_ttl, send_rate) survive the mapping.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		if !isSection(parts[0]) {
			// Unrelated environment variable (PATH, HOME, ...). Map it
			// under a throwaway prefix so it cannot collide with config.
			return "ignored." + lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func isSection(name string) bool {
	switch name {
	case "server", "storage", "nats", "auth", "logging", "realtime", "telemetry":
		return true
	}
	return false
}
