package message

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/account"
	"github.com/teamforge/collabd/internal/apperrors"
	"github.com/teamforge/collabd/internal/project"
)

var tracer = otel.Tracer("github.com/teamforge/collabd/internal/message")

// Publisher delivers a resolved message to the project's room. The hub
// implements it over NATS; tests swap in a recorder.
type Publisher interface {
	Publish(ctx context.Context, projectID, event string, msg Resolved) error
}

// Resolver maps author ids to denormalized identity. Implemented by
// account.Service.
type Resolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]account.UserRef, error)
}

// ProjectStore verifies message targets exist. Implemented by
// project.Service.
type ProjectStore interface {
	Get(ctx context.Context, projectID string) (project.Project, error)
}

// Service is the single persist-then-publish path for chat messages.
type Service struct {
	repo      *Repository
	projects  ProjectStore
	resolver  Resolver
	publisher Publisher
	logger    *zap.Logger
	metrics   *metrics
}

func NewService(repo *Repository, projects ProjectStore, resolver Resolver, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		projects:  projects,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger.Named("message"),
		metrics:   newMetrics(),
	}
}

// Send validates, persists and publishes one message. Persistence success
// is the operation's success: a publish failure is logged and counted but
// never surfaces to the sender.
//
// The event name distinguishes the ingress path (EventNewMessage for REST,
// EventReceiveMessage for websocket) and is carried through to room
// subscribers unchanged.
func (s *Service) Send(ctx context.Context, projectID, authorID, text, event string) (Resolved, error) {
	ctx, span := tracer.Start(ctx, "message.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", projectID),
		attribute.String("message.event", event),
	)

	if strings.TrimSpace(text) == "" {
		return Resolved{}, apperrors.New(apperrors.KindValidation, "message text is required")
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return Resolved{}, err
	}

	m := Message{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Store(m); err != nil {
		return Resolved{}, apperrors.Internal(err)
	}

	resolved, err := s.resolve(ctx, m)
	if err != nil {
		return Resolved{}, err
	}

	if err := s.publisher.Publish(ctx, projectID, event, resolved); err != nil {
		s.metrics.publishFailures.Inc()
		s.logger.Warn("room publish failed",
			zap.String("project_id", projectID),
			zap.String("message_id", m.ID),
			zap.Error(err))
	}

	s.metrics.sent.WithLabelValues(event).Inc()
	return resolved, nil
}

// List returns the project's messages in ascending creation order with
// resolved author identities.
func (s *Service) List(ctx context.Context, projectID string) ([]Resolved, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListByProject(projectID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.AuthorID
	}
	refs, err := s.resolver.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	resolved := make([]Resolved, len(msgs))
	for i, m := range msgs {
		resolved[i] = Resolved{Message: m, Author: refs[m.AuthorID]}
	}
	return resolved, nil
}

func (s *Service) resolve(ctx context.Context, m Message) (Resolved, error) {
	refs, err := s.resolver.Resolve(ctx, []string{m.AuthorID})
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Message: m, Author: refs[m.AuthorID]}, nil
}
