package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamforge/collabd/internal/apperrors"
	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/storage"
)

var validate = validator.New()

// RegisterInput is the payload for Register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user project_owner"`
}

// LoginInput is the payload for Login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is a successful login or registration result.
type Session struct {
	Token string  `json:"token"`
	User  UserRef `json:"user"`
	Role  string  `json:"role"`
}

// Service implements registration, login and identity resolution.
type Service struct {
	repo   *Repository
	issuer *auth.TokenIssuer
	logger *zap.Logger
}

func NewService(repo *Repository, issuer *auth.TokenIssuer, logger *zap.Logger) *Service {
	return &Service{repo: repo, issuer: issuer, logger: logger.Named("account")}
}

// Register creates an account and returns a ready-to-use session.
// The role defaults to user; admin accounts are seeded out of band.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if err := validate.Struct(in); err != nil {
		return Session{}, apperrors.Wrap(apperrors.KindValidation, "invalid registration payload", err)
	}

	role := auth.Role(in.Role)
	if in.Role == "" {
		role = auth.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, apperrors.Internal(fmt.Errorf("hashing password: %w", err))
	}

	a := Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(a); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Session{}, apperrors.New(apperrors.KindConflict, "email already registered")
		}
		return Session{}, apperrors.Internal(err)
	}

	s.logger.Info("account registered",
		zap.String("user_id", a.ID),
		zap.String("role", string(a.Role)))

	return s.session(a)
}

// Login verifies credentials and returns a session.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := validate.Struct(in); err != nil {
		return Session{}, apperrors.Wrap(apperrors.KindValidation, "invalid login payload", err)
	}

	a, err := s.repo.GetByEmail(in.Email)
	if errors.Is(err, storage.ErrKeyNotFound) {
		// Same error as a bad password so the response does not reveal
		// which emails are registered.
		return Session{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return Session{}, apperrors.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(in.Password)); err != nil {
		return Session{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
	}

	return s.session(a)
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	a, err := s.repo.Get(id)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return Account{}, apperrors.New(apperrors.KindNotFound, "account not found")
	}
	if err != nil {
		return Account{}, apperrors.Internal(err)
	}
	return a, nil
}

// Resolve maps user ids to denormalized references, preserving input
// order. Ids without a stored account resolve to a bare {id} ref rather
// than dropping the entry, so collaborator lists keep their positions.
func (s *Service) Resolve(ctx context.Context, ids []string) (map[string]UserRef, error) {
	accounts, err := s.repo.GetMany(lo.Uniq(ids))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	refs := lo.SliceToMap(accounts, func(a Account) (string, UserRef) {
		return a.ID, a.Ref()
	})
	for _, id := range ids {
		if _, ok := refs[id]; !ok {
			refs[id] = UserRef{ID: id}
		}
	}
	return refs, nil
}

func (s *Service) session(a Account) (Session, error) {
	token, err := s.issuer.Issue(auth.Identity{UserID: a.ID, Role: a.Role})
	if err != nil {
		return Session{}, apperrors.Internal(err)
	}
	return Session{Token: token, User: a.Ref(), Role: string(a.Role)}, nil
}
