package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/teamforge/collabd/internal/account"
	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/project"
)

// CollaboratorView is a collaborator slot with the user resolved.
type CollaboratorView struct {
	User     account.UserRef `json:"user"`
	JoinedAt string          `json:"joinedAt"`
}

// ProjectView is the API shape of a project: owner, collaborators and
// waitlist entries carry resolved user identities instead of bare ids.
type ProjectView struct {
	project.Project
	Owner             account.UserRef   `json:"owner"`
	CollaboratorUsers []account.UserRef `json:"collaboratorUsers"`
	WaitlistUsers     []account.UserRef `json:"waitlistUsers"`
}

// JoinResponse is the body for POST /api/projects/:id/join.
type JoinResponse struct {
	Status  string      `json:"status"`
	Project ProjectView `json:"project"`
}

// LeaveResponse is the body for POST /api/projects/:id/leave.
type LeaveResponse struct {
	Project  ProjectView `json:"project"`
	Promoted []string    `json:"promoted"`
}

func (s *Server) presentProject(ctx context.Context, p project.Project) (ProjectView, error) {
	ids := append([]string{p.OwnerID}, p.Waitlist...)
	ids = append(ids, lo.Map(p.Collaborators, func(c project.Collaborator, _ int) string {
		return c.UserID
	})...)

	refs, err := s.deps.Accounts.Resolve(ctx, ids)
	if err != nil {
		return ProjectView{}, err
	}

	return ProjectView{
		Project: p,
		Owner:   refs[p.OwnerID],
		CollaboratorUsers: lo.Map(p.Collaborators, func(c project.Collaborator, _ int) account.UserRef {
			return refs[c.UserID]
		}),
		WaitlistUsers: lo.Map(p.Waitlist, func(id string, _ int) account.UserRef {
			return refs[id]
		}),
	}, nil
}

func (s *Server) presentProjects(ctx context.Context, ps []project.Project) ([]ProjectView, error) {
	views := make([]ProjectView, 0, len(ps))
	for _, p := range ps {
		v, err := s.presentProject(ctx, p)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Server) handleCreateProject(c echo.Context) error {
	id, _ := auth.IdentityFrom(c)

	var in project.CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := s.deps.Projects.Create(c.Request().Context(), id, in)
	if err != nil {
		return err
	}

	view, err := s.presentProject(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

func (s *Server) handleListProjects(c echo.Context) error {
	f := project.Filter{
		Skill:  c.QueryParam("skill"),
		Status: project.Status(c.QueryParam("status")),
	}

	ps, err := s.deps.Projects.List(c.Request().Context(), f)
	if err != nil {
		return err
	}

	views, err := s.presentProjects(c.Request().Context(), ps)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.deps.Projects.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	view, err := s.presentProject(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	id, _ := auth.IdentityFrom(c)

	var in project.UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := s.deps.Projects.Update(c.Request().Context(), id, c.Param("id"), in)
	if err != nil {
		return err
	}

	view, err := s.presentProject(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleJoinProject(c echo.Context) error {
	id, _ := auth.IdentityFrom(c)

	res, err := s.deps.Projects.Join(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}

	view, err := s.presentProject(c.Request().Context(), res.Project)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, JoinResponse{Status: string(res.Status), Project: view})
}

func (s *Server) handleLeaveProject(c echo.Context) error {
	id, _ := auth.IdentityFrom(c)

	res, err := s.deps.Projects.Leave(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}

	view, err := s.presentProject(c.Request().Context(), res.Project)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LeaveResponse{Project: view, Promoted: res.Promoted})
}
