package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/profile"
)

func (s *Server) handleSearchProfiles(c echo.Context) error {
	f := profile.SearchFilter{
		Skill:   c.QueryParam("skill"),
		City:    c.QueryParam("city"),
		Country: c.QueryParam("country"),
	}
	if raw := c.QueryParam("minHours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "minHours must be an integer")
		}
		f.MinHours = hours
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := s.deps.Profiles.Search(c.Request().Context(), f, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleMyProfile(c echo.Context) error {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	view, err := s.deps.Profiles.Get(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleUpsertProfile(c echo.Context) error {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var in profile.UpsertInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	view, err := s.deps.Profiles.Upsert(c.Request().Context(), id.UserID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleGetProfile(c echo.Context) error {
	view, err := s.deps.Profiles.Get(c.Request().Context(), c.Param("userID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
