package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teamforge/collabd/internal/account"
	"github.com/teamforge/collabd/internal/auth"
)

func (s *Server) handleRegister(c echo.Context) error {
	var in account.RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	session, err := s.deps.Accounts.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, session)
}

func (s *Server) handleLogin(c echo.Context) error {
	var in account.LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	session, err := s.deps.Accounts.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// MeResponse is the body for GET /api/auth/me.
type MeResponse struct {
	User account.UserRef `json:"user"`
	Role string          `json:"role"`
}

func (s *Server) handleMe(c echo.Context) error {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	acct, err := s.deps.Accounts.Get(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MeResponse{User: acct.Ref(), Role: string(acct.Role)})
}
