package project

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/apperrors"
	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/storage"
)

var (
	owner = auth.Identity{UserID: "owner-1", Role: auth.RoleProjectOwner}
	alice = auth.Identity{UserID: "alice", Role: auth.RoleUser}
	bob   = auth.Identity{UserID: "bob", Role: auth.RoleUser}
	carol = auth.Identity{UserID: "carol", Role: auth.RoleUser}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open("", true, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(NewRepository(db), zap.NewNop())
}

func createProject(t *testing.T, svc *Service, max int) Project {
	t.Helper()
	p, err := svc.Create(context.Background(), owner, CreateInput{
		Title:            "realtime dashboard",
		Description:      "help wanted",
		RequiredSkills:   []string{"Go", "React"},
		MaxCollaborators: max,
	})
	require.NoError(t, err)
	return p
}

func TestCreate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("owner creates with defaults", func(t *testing.T) {
		p, err := svc.Create(ctx, owner, CreateInput{Title: "t"})
		require.NoError(t, err)
		assert.Equal(t, owner.UserID, p.OwnerID)
		assert.Equal(t, DefaultMaxCollaborators, p.MaxCollaborators)
		assert.Equal(t, StatusOpen, p.Status)
	})

	t.Run("non-owner role is forbidden", func(t *testing.T) {
		_, err := svc.Create(ctx, alice, CreateInput{Title: "t"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("missing title is invalid", func(t *testing.T) {
		_, err := svc.Create(ctx, owner, CreateInput{})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestGetAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc, 3)
	_, err := svc.Create(ctx, owner, CreateInput{
		Title:          "data pipeline",
		RequiredSkills: []string{"Python"},
	})
	require.NoError(t, err)

	t.Run("get by id", func(t *testing.T) {
		got, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Title, got.Title)
	})

	t.Run("get missing project", func(t *testing.T) {
		_, err := svc.Get(ctx, "nope")
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("list all", func(t *testing.T) {
		all, err := svc.List(ctx, Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("filter by skill substring, case-insensitive", func(t *testing.T) {
		got, err := svc.List(ctx, Filter{Skill: "react"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, p.ID, got[0].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		got, err := svc.List(ctx, Filter{Status: StatusCompleted})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestUpdate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("owner patches fields", func(t *testing.T) {
		p := createProject(t, svc, 3)
		got, err := svc.Update(ctx, owner, p.ID, UpdateInput{
			Title:  "renamed",
			Status: StatusClosed,
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Title)
		assert.Equal(t, StatusClosed, got.Status)
		// Untouched fields survive.
		assert.Equal(t, p.Description, got.Description)
		assert.Equal(t, p.MaxCollaborators, got.MaxCollaborators)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		p := createProject(t, svc, 3)
		other := auth.Identity{UserID: "someone-else", Role: auth.RoleProjectOwner}
		_, err := svc.Update(ctx, other, p.ID, UpdateInput{Title: "x"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("missing project reported before permissions", func(t *testing.T) {
		_, err := svc.Update(ctx, alice, "nope", UpdateInput{Title: "x"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("unknown status is invalid", func(t *testing.T) {
		p := createProject(t, svc, 3)
		_, err := svc.Update(ctx, owner, p.ID, UpdateInput{Status: "archived"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("capacity cannot drop below current collaborators", func(t *testing.T) {
		p := createProject(t, svc, 3)
		for _, u := range []auth.Identity{alice, bob} {
			_, err := svc.Join(ctx, u, p.ID)
			require.NoError(t, err)
		}
		_, err := svc.Update(ctx, owner, p.ID, UpdateInput{MaxCollaborators: 1})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestJoinLeaveLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := createProject(t, svc, 2)

	res, err := svc.Join(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, Joined, res.Status)

	res, err = svc.Join(ctx, bob, p.ID)
	require.NoError(t, err)
	assert.Equal(t, Joined, res.Status)

	res, err = svc.Join(ctx, carol, p.ID)
	require.NoError(t, err)
	assert.Equal(t, Waitlisted, res.Status)

	leave, err := svc.Leave(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{carol.UserID}, leave.Promoted)
	assert.True(t, leave.Project.IsCollaborator(carol.UserID))
	assert.Empty(t, leave.Project.Waitlist)

	// State survived the round-trip through storage.
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCollaborator(carol.UserID))

	t.Run("join on missing project", func(t *testing.T) {
		_, err := svc.Join(ctx, alice, "nope")
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

// TestConcurrentJoins drives many joins at one project in parallel and
// checks the capacity invariant held: this is the property the per-project
// lock exists for.
func TestConcurrentJoins(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const capacity = 3
	const users = 20

	p := createProject(t, svc, capacity)

	var wg sync.WaitGroup
	results := make([]JoinStatus, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := auth.Identity{UserID: string(rune('A' + i)), Role: auth.RoleUser}
			res, err := svc.Join(ctx, id, p.ID)
			if err == nil {
				results[i] = res.Status
			}
		}(i)
	}
	wg.Wait()

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Collaborators, capacity)
	assert.Len(t, got.Waitlist, users-capacity)

	joined := 0
	for _, r := range results {
		if r == Joined {
			joined++
		}
	}
	assert.Equal(t, capacity, joined)
}

// TestConcurrentJoinLeave interleaves joins and leaves and then checks the
// invariants directly on the stored aggregate.
func TestConcurrentJoinLeave(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := createProject(t, svc, 2)

	ids := make([]auth.Identity, 10)
	for i := range ids {
		ids[i] = auth.Identity{UserID: string(rune('a' + i)), Role: auth.RoleUser}
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id auth.Identity) {
			defer wg.Done()
			_, _ = svc.Join(ctx, id, p.ID)
			time.Sleep(time.Millisecond)
			_, _ = svc.Leave(ctx, id, p.ID)
		}(id)
	}
	wg.Wait()

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got.Collaborators), got.MaxCollaborators)
	seen := map[string]bool{}
	for _, c := range got.Collaborators {
		assert.False(t, seen[c.UserID])
		seen[c.UserID] = true
	}
	for _, w := range got.Waitlist {
		assert.False(t, seen[w], "user %s in both lists", w)
	}
}
