// Package http provides the REST and realtime ingress for collabd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/account"
	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/config"
	"github.com/teamforge/collabd/internal/message"
	"github.com/teamforge/collabd/internal/profile"
	"github.com/teamforge/collabd/internal/project"
	"github.com/teamforge/collabd/internal/realtime"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Accounts *account.Service
	Projects *project.Service
	Profiles *profile.Service
	Messages *message.Service
	Hub      *realtime.Hub
	NATS     *nats.Conn
	Issuer   *auth.TokenIssuer
	Realtime config.RealtimeConfig
}

// Server exposes the REST API, the SSE stream and the websocket
// endpoint on one echo instance.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger *zap.Logger
	config config.ServerConfig
}

// NewServer builds the echo instance and registers all routes.
func NewServer(deps Deps, logger *zap.Logger, cfg config.ServerConfig) (*Server, error) {
	if deps.Accounts == nil || deps.Projects == nil || deps.Profiles == nil || deps.Messages == nil {
		return nil, fmt.Errorf("all services are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestMetrics())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger,
		config: cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authed := auth.Middleware(s.deps.Issuer)
	member := auth.RequireRoles(auth.RoleUser, auth.RoleProjectOwner)
	owner := auth.RequireRoles(auth.RoleProjectOwner)

	api := s.echo.Group("/api")

	// Accounts
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/me", s.handleMe, authed)

	// Projects
	api.POST("/projects", s.handleCreateProject, authed, owner)
	api.GET("/projects", s.handleListProjects)
	api.GET("/projects/:id", s.handleGetProject)
	api.PUT("/projects/:id", s.handleUpdateProject, authed, owner)
	api.POST("/projects/:id/join", s.handleJoinProject, authed, member)
	api.POST("/projects/:id/leave", s.handleLeaveProject, authed, member)
	api.GET("/projects/:id/events", s.handleProjectEvents, authed)

	// Profiles. /me before /:userID so echo does not shadow it.
	api.GET("/profiles", s.handleSearchProfiles)
	api.GET("/profiles/me", s.handleMyProfile, authed)
	api.PUT("/profiles/me", s.handleUpsertProfile, authed)
	api.GET("/profiles/:userID", s.handleGetProfile)

	// Messages
	api.GET("/messages/:projectID", s.handleListMessages, authed)
	api.POST("/messages/:projectID", s.handleSendMessage, authed)

	// Realtime
	s.echo.GET("/ws", s.handleWebsocket, authed)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
