// Collabd is the project-collaboration daemon: capacity-limited project
// membership with a waitlist, maker profiles, and project-scoped chat
// over REST, websocket and SSE.
//
// Configuration is loaded from an optional YAML file plus environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (embedded NATS, on-disk badger)
//	collabd
//
//	# Configure via file and environment
//	AUTH_SECRET=... collabd -config collabd.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/account"
	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/config"
	collabhttp "github.com/teamforge/collabd/internal/http"
	"github.com/teamforge/collabd/internal/logging"
	"github.com/teamforge/collabd/internal/message"
	"github.com/teamforge/collabd/internal/profile"
	"github.com/teamforge/collabd/internal/project"
	"github.com/teamforge/collabd/internal/realtime"
	"github.com/teamforge/collabd/internal/storage"
	"github.com/teamforge/collabd/internal/telemetry"
	"github.com/teamforge/collabd/pkg/server"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("collabd %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// dependencies holds all infrastructure handles.
type dependencies struct {
	db     *badger.DB
	broker *realtime.Broker
	tel    *telemetry.Telemetry
	logger *zap.Logger
}

// Close releases infrastructure resources in reverse start order.
func (d *dependencies) Close() {
	if d.tel != nil {
		if err := d.tel.Shutdown(context.Background()); err != nil {
			d.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	if d.broker != nil {
		d.broker.Close()
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			d.logger.Warn("closing badger failed", zap.Error(err))
		}
	}
	if d.logger != nil {
		_ = d.logger.Sync()
	}
}

// run initializes everything and blocks until the context is cancelled:
//
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Opens badger and connects (or embeds) NATS
//  4. Wires services: accounts, projects, profiles, messages, hub
//  5. Starts the HTTP server under pkg/server.Run
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	logger.Info("starting collabd",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("nats_embedded", cfg.NATS.Embedded))

	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close()

	issuer := auth.NewTokenIssuer([]byte(cfg.Auth.Secret.Value()), cfg.Auth.TokenTTL.Duration(), cfg.Auth.Issuer)

	accounts := account.NewService(account.NewRepository(deps.db), issuer, logger)
	projects := project.NewService(project.NewRepository(deps.db), logger)
	profiles := profile.NewService(profile.NewRepository(deps.db), accounts, logger)
	hub := realtime.NewHub(deps.broker.Conn(), logger)
	messages := message.NewService(message.NewRepository(deps.db), projects, accounts, hub, logger)

	srv, err := collabhttp.NewServer(collabhttp.Deps{
		Accounts: accounts,
		Projects: projects,
		Profiles: profiles,
		Messages: messages,
		Hub:      hub,
		NATS:     deps.broker.Conn(),
		Issuer:   issuer,
		Realtime: cfg.Realtime,
	}, logger, cfg.Server)
	if err != nil {
		return fmt.Errorf("building http server: %w", err)
	}

	logger.Info("server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("api_prefix", "/api"),
		zap.String("metrics_endpoint", "/metrics"))

	// A context-triggered shutdown surfaces as http.ErrServerClosed;
	// that is the normal exit path, not a failure.
	if err := server.Run(ctx, srv, cfg.Server.ShutdownTimeout.Duration()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{logger: logger}

	db, err := storage.Open(cfg.Storage.Path, cfg.Storage.InMemory, logger)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", cfg.Storage.Path, err)
	}
	deps.db = db

	broker, err := realtime.Connect(cfg.NATS, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.broker = broker

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	deps.tel = tel

	return deps, nil
}
