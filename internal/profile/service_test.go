package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/account"
	"github.com/teamforge/collabd/internal/apperrors"
	"github.com/teamforge/collabd/internal/storage"
)

type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, ids []string) (map[string]account.UserRef, error) {
	refs := make(map[string]account.UserRef, len(ids))
	for _, id := range ids {
		refs[id] = account.UserRef{ID: id, Name: "name-" + id}
	}
	return refs, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open("", true, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(NewRepository(db), staticResolver{}, zap.NewNop())
}

func TestUpsertAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	view, err := svc.Upsert(ctx, "u1", UpsertInput{
		Bio:          "embedded systems tinkerer",
		Skills:       []Skill{{Name: "Go", Level: 4}},
		Availability: Availability{HoursPerWeek: 10, Active: true},
		Location:     Location{City: "Lyon", Country: "France"},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", view.UserID)
	assert.Equal(t, "name-u1", view.User.Name)

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "embedded systems tinkerer", got.Bio)

	t.Run("second upsert replaces but keeps created and ratings", func(t *testing.T) {
		got.RatingAvg = 4.5 // simulate accrued ratings
		got.RatingsCount = 2
		require.NoError(t, svc.repo.Put(got.Profile))

		updated, err := svc.Upsert(ctx, "u1", UpsertInput{Bio: "new bio"})
		require.NoError(t, err)
		assert.Equal(t, "new bio", updated.Bio)
		assert.Empty(t, updated.Skills)
		assert.Equal(t, 4.5, updated.RatingAvg)
		assert.Equal(t, view.CreatedAt, updated.CreatedAt)
	})
}

func TestGetMissingProfile(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), "ghost")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUpsertValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("skill without name", func(t *testing.T) {
		_, err := svc.Upsert(ctx, "u1", UpsertInput{Skills: []Skill{{Level: 3}}})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("skill level out of range", func(t *testing.T) {
		_, err := svc.Upsert(ctx, "u1", UpsertInput{Skills: []Skill{{Name: "Go", Level: 9}}})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("portfolio item with bad type", func(t *testing.T) {
		_, err := svc.Upsert(ctx, "u1", UpsertInput{Portfolio: []PortfolioItem{{Title: "x", Type: "meme"}}})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestSearch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seed := []struct {
		user  string
		skill string
		city  string
		hours int
	}{
		{"u1", "Go", "Lyon", 10},
		{"u2", "golang", "Paris", 5},
		{"u3", "Rust", "Lyon", 20},
	}
	for _, s := range seed {
		_, err := svc.Upsert(ctx, s.user, UpsertInput{
			Skills:       []Skill{{Name: s.skill}},
			Location:     Location{City: s.city, Country: "France"},
			Availability: Availability{HoursPerWeek: s.hours},
		})
		require.NoError(t, err)
	}

	t.Run("by skill substring", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchFilter{Skill: "go"}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("by city", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchFilter{City: "lyon"}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("by minimum hours", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchFilter{MinHours: 10}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("combined filters", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchFilter{City: "Lyon", MinHours: 15}, 1, 20)
		require.NoError(t, err)
		require.Equal(t, 1, res.Total)
		assert.Equal(t, "u3", res.Results[0].UserID)
	})

	t.Run("pagination", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchFilter{}, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Len(t, res.Results, 2)

		res, err = svc.Search(ctx, SearchFilter{}, 2, 2)
		require.NoError(t, err)
		assert.Len(t, res.Results, 1)

		res, err = svc.Search(ctx, SearchFilter{}, 9, 2)
		require.NoError(t, err)
		assert.Empty(t, res.Results)
	})
}
