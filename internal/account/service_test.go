package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/apperrors"
	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open("", true, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	issuer := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour, "collabd-test")
	return NewService(NewRepository(db), issuer, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "correct-horse",
		Role:     "project_owner",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "Ada", session.User.Name)
	assert.Equal(t, "project_owner", session.Role)

	t.Run("login with right password", func(t *testing.T) {
		got, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, got.User.ID)
		assert.NotEmpty(t, got.Token)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	})

	t.Run("login with unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	})
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("missing email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Password: "correct-horse"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@b.co", Password: "short"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("admin role not self-assignable", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@b.co", Password: "correct-horse", Role: "admin"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		in := RegisterInput{Name: "Ada", Email: "dup@example.com", Password: "correct-horse"}
		_, err := svc.Register(ctx, in)
		require.NoError(t, err)

		_, err = svc.Register(ctx, in)
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})

	t.Run("email uniqueness is case-insensitive", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "Case@Example.com", Password: "correct-horse"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, RegisterInput{Name: "Ada", Email: "case@example.com", Password: "correct-horse"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})
}

func TestResolve(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	b, err := svc.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	refs, err := svc.Resolve(ctx, []string{a.User.ID, b.User.ID, "ghost"})
	require.NoError(t, err)

	assert.Equal(t, "Ada", refs[a.User.ID].Name)
	assert.Equal(t, "bob@example.com", refs[b.User.ID].Email)
	// Unknown ids resolve to a bare ref instead of disappearing.
	assert.Equal(t, UserRef{ID: "ghost"}, refs["ghost"])
}
