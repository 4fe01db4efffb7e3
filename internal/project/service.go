package project

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/apperrors"
	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/storage"
)

var (
	validate = validator.New()
	tracer   = otel.Tracer("github.com/teamforge/collabd/internal/project")
)

// CreateInput is the payload for Create.
type CreateInput struct {
	Title            string     `json:"title" validate:"required,max=200"`
	Description      string     `json:"description" validate:"max=5000"`
	RequiredSkills   []string   `json:"requiredSkills" validate:"dive,required"`
	MaxCollaborators int        `json:"maxCollaborators" validate:"gte=0"`
	Deadline         *time.Time `json:"deadline"`
}

// UpdateInput is the payload for Update. Nil or zero fields leave the
// stored value untouched, mirroring the PUT patch semantics of the API.
type UpdateInput struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	RequiredSkills   []string   `json:"requiredSkills"`
	MaxCollaborators int        `json:"maxCollaborators"`
	Deadline         *time.Time `json:"deadline"`
	Status           Status     `json:"status"`
}

// JoinResult is the outcome of a join operation.
type JoinResult struct {
	Status  JoinStatus
	Project Project
}

// LeaveResult is the outcome of a leave operation, including any users
// promoted off the waitlist by the freed capacity.
type LeaveResult struct {
	Project  Project
	Promoted []string
}

// Service orchestrates project CRUD and the membership lifecycle. All
// mutations take the per-project lock, so a read-modify-write never
// interleaves with another on the same aggregate.
type Service struct {
	repo    *Repository
	locks   *lockRegistry
	logger  *zap.Logger
	metrics *metrics
}

func NewService(repo *Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		locks:   newLockRegistry(),
		logger:  logger.Named("project"),
		metrics: newMetrics(),
	}
}

// Create stores a new project owned by the caller.
func (s *Service) Create(ctx context.Context, id auth.Identity, in CreateInput) (Project, error) {
	if !auth.CanCreateProject(id) {
		return Project{}, apperrors.New(apperrors.KindForbidden, "only project owners can create projects")
	}
	if err := validate.Struct(in); err != nil {
		return Project{}, apperrors.Wrap(apperrors.KindValidation, "invalid project payload", err)
	}

	if in.MaxCollaborators == 0 {
		in.MaxCollaborators = DefaultMaxCollaborators
	}

	now := time.Now().UTC()
	p := Project{
		ID:               uuid.NewString(),
		OwnerID:          id.UserID,
		Title:            in.Title,
		Description:      in.Description,
		RequiredSkills:   in.RequiredSkills,
		MaxCollaborators: in.MaxCollaborators,
		Collaborators:    []Collaborator{},
		Waitlist:         []string{},
		Deadline:         in.Deadline,
		Status:           StatusOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Put(p); err != nil {
		return Project{}, apperrors.Internal(err)
	}

	s.logger.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("owner_id", p.OwnerID),
		zap.Int("max_collaborators", p.MaxCollaborators))
	return p, nil
}

// Get fetches one project.
func (s *Service) Get(ctx context.Context, projectID string) (Project, error) {
	p, err := s.repo.Get(projectID)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return Project{}, apperrors.New(apperrors.KindNotFound, "project not found")
	}
	if err != nil {
		return Project{}, apperrors.Internal(err)
	}
	return p, nil
}

// List returns projects matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Project, error) {
	projects, err := s.repo.List(f)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return projects, nil
}

// Update patches a project. Only the owner may edit; the not-found check
// runs first so a missing project is reported as such rather than as a
// permission failure.
func (s *Service) Update(ctx context.Context, id auth.Identity, projectID string, in UpdateInput) (Project, error) {
	unlock := s.locks.acquire(projectID)
	defer unlock()

	p, err := s.Get(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	if !auth.CanModifyProject(id, p.OwnerID) {
		return Project{}, apperrors.New(apperrors.KindForbidden, "not authorized")
	}

	if in.Title != "" {
		p.Title = in.Title
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.RequiredSkills != nil {
		p.RequiredSkills = in.RequiredSkills
	}
	if in.MaxCollaborators != 0 {
		if in.MaxCollaborators < len(p.Collaborators) {
			return Project{}, apperrors.Newf(apperrors.KindValidation,
				"maxCollaborators cannot drop below the current collaborator count (%d)", len(p.Collaborators))
		}
		p.MaxCollaborators = in.MaxCollaborators
	}
	if in.Deadline != nil {
		p.Deadline = in.Deadline
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return Project{}, apperrors.Newf(apperrors.KindValidation, "unknown status %q", in.Status)
		}
		p.Status = in.Status
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Put(p); err != nil {
		return Project{}, apperrors.Internal(err)
	}
	return p, nil
}

// Join enrolls the caller as collaborator, or waitlists them when the
// project is full.
func (s *Service) Join(ctx context.Context, id auth.Identity, projectID string) (JoinResult, error) {
	ctx, span := tracer.Start(ctx, "project.Join")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if !auth.CanJoinOrLeave(id) {
		return JoinResult{}, apperrors.New(apperrors.KindForbidden, "role cannot join projects")
	}

	unlock := s.locks.acquire(projectID)
	defer unlock()

	p, err := s.Get(ctx, projectID)
	if err != nil {
		return JoinResult{}, err
	}

	status, err := Join(&p, id.UserID, time.Now().UTC())
	if err != nil {
		return JoinResult{}, err
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Put(p); err != nil {
		return JoinResult{}, apperrors.Internal(err)
	}

	s.metrics.joins.WithLabelValues(string(status)).Inc()
	s.logger.Info("membership join",
		zap.String("project_id", projectID),
		zap.String("user_id", id.UserID),
		zap.String("status", string(status)))
	return JoinResult{Status: status, Project: p}, nil
}

// Leave removes the caller from the project and promotes waitlisted users
// into any freed capacity. Leaving a project the caller is not part of is
// a no-op that still drains the waitlist into spare slots.
func (s *Service) Leave(ctx context.Context, id auth.Identity, projectID string) (LeaveResult, error) {
	ctx, span := tracer.Start(ctx, "project.Leave")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if !auth.CanJoinOrLeave(id) {
		return LeaveResult{}, apperrors.New(apperrors.KindForbidden, "role cannot leave projects")
	}

	unlock := s.locks.acquire(projectID)
	defer unlock()

	p, err := s.Get(ctx, projectID)
	if err != nil {
		return LeaveResult{}, err
	}

	promoted := Leave(&p, id.UserID, time.Now().UTC())
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Put(p); err != nil {
		return LeaveResult{}, apperrors.Internal(err)
	}

	s.metrics.promotions.Add(float64(len(promoted)))
	s.logger.Info("membership leave",
		zap.String("project_id", projectID),
		zap.String("user_id", id.UserID),
		zap.Strings("promoted", promoted))
	return LeaveResult{Project: p, Promoted: promoted}, nil
}
