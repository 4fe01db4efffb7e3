package profile

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/account"
	"github.com/teamforge/collabd/internal/apperrors"
	"github.com/teamforge/collabd/internal/storage"
)

var validate = validator.New()

// UpsertInput is the payload for Upsert. The document is replaced as a
// whole, matching the PUT semantics of the profile endpoint.
type UpsertInput struct {
	Bio          string          `json:"bio" validate:"max=2000"`
	Skills       []Skill         `json:"skills" validate:"dive"`
	Portfolio    []PortfolioItem `json:"portfolio" validate:"dive"`
	Availability Availability    `json:"availability"`
	Location     Location        `json:"location"`
}

// Resolver maps user ids to denormalized identity.
type Resolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]account.UserRef, error)
}

// Service implements profile CRUD and search.
type Service struct {
	repo     *Repository
	resolver Resolver
	logger   *zap.Logger
}

func NewService(repo *Repository, resolver Resolver, logger *zap.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, logger: logger.Named("profile")}
}

// Upsert creates or replaces the caller's profile.
func (s *Service) Upsert(ctx context.Context, userID string, in UpsertInput) (View, error) {
	if err := validate.Struct(in); err != nil {
		return View{}, apperrors.Wrap(apperrors.KindValidation, "invalid profile payload", err)
	}

	now := time.Now().UTC()
	p := Profile{
		UserID:       userID,
		Bio:          in.Bio,
		Skills:       in.Skills,
		Portfolio:    in.Portfolio,
		Availability: in.Availability,
		Location:     in.Location,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// An existing document keeps its creation time and ratings, which
	// are not client-writable.
	if existing, err := s.repo.Get(userID); err == nil {
		p.CreatedAt = existing.CreatedAt
		p.RatingAvg = existing.RatingAvg
		p.RatingsCount = existing.RatingsCount
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		return View{}, apperrors.Internal(err)
	}

	if err := s.repo.Put(p); err != nil {
		return View{}, apperrors.Internal(err)
	}
	return s.view(ctx, p)
}

// Get fetches one profile by its owning user id.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	p, err := s.repo.Get(userID)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return View{}, apperrors.New(apperrors.KindNotFound, "profile not found")
	}
	if err != nil {
		return View{}, apperrors.Internal(err)
	}
	return s.view(ctx, p)
}

// Search returns a page of profiles matching the filter.
func (s *Service) Search(ctx context.Context, f SearchFilter, page, limit int) (SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	profiles, total, err := s.repo.Search(f, page, limit)
	if err != nil {
		return SearchResult{}, apperrors.Internal(err)
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	refs, err := s.resolver.Resolve(ctx, ids)
	if err != nil {
		return SearchResult{}, err
	}

	views := make([]View, len(profiles))
	for i, p := range profiles {
		views[i] = View{Profile: p, User: refs[p.UserID]}
	}
	return SearchResult{Total: total, Page: page, Limit: limit, Results: views}, nil
}

func (s *Service) view(ctx context.Context, p Profile) (View, error) {
	refs, err := s.resolver.Resolve(ctx, []string{p.UserID})
	if err != nil {
		return View{}, err
	}
	return View{Profile: p, User: refs[p.UserID]}, nil
}
