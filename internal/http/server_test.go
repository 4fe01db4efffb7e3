package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/account"
	"github.com/teamforge/collabd/internal/auth"
	"github.com/teamforge/collabd/internal/config"
	"github.com/teamforge/collabd/internal/message"
	"github.com/teamforge/collabd/internal/profile"
	"github.com/teamforge/collabd/internal/project"
	"github.com/teamforge/collabd/internal/realtime"
	"github.com/teamforge/collabd/internal/storage"
)

type testHarness struct {
	server *httptest.Server
	nc     *nats.Conn
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	logger := zap.NewNop()

	db, err := storage.Open("", true, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ns, err := natsserver.NewServer(&natsserver.Options{
		Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true,
	})
	require.NoError(t, err)
	go ns.Start()
	require.True(t, ns.ReadyForConnections(5*time.Second))
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	issuer := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour, "collabd-test")

	accounts := account.NewService(account.NewRepository(db), issuer, logger)
	projects := project.NewService(project.NewRepository(db), logger)
	profiles := profile.NewService(profile.NewRepository(db), accounts, logger)
	hub := realtime.NewHub(nc, logger)
	messages := message.NewService(message.NewRepository(db), projects, accounts, hub, logger)

	srv, err := NewServer(Deps{
		Accounts: accounts,
		Projects: projects,
		Profiles: profiles,
		Messages: messages,
		Hub:      hub,
		NATS:     nc,
		Issuer:   issuer,
		Realtime: config.RealtimeConfig{SendRate: 100, SendBurst: 100, WriteBuffer: 64},
	}, logger, config.ServerConfig{})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testHarness{server: ts, nc: nc}
}

func (h *testHarness) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (h *testHarness) register(t *testing.T, name, role string) account.Session {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    fmt.Sprintf("%s@example.com", name),
		"password": "hunter2hunter2",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[account.Session](t, resp)
}

func (h *testHarness) createProject(t *testing.T, token string, maxCollab int) ProjectView {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/projects", token, map[string]any{
		"title":            "realtime chat board",
		"description":      "a board",
		"requiredSkills":   []string{"go"},
		"maxCollaborators": maxCollab,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[ProjectView](t, resp)
}

func TestHealth(t *testing.T) {
	h := newTestHarness(t)
	resp := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[HealthResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
}

func TestAuthFlow(t *testing.T) {
	h := newTestHarness(t)

	session := h.register(t, "ada", "project_owner")
	require.NotEmpty(t, session.Token)
	assert.Equal(t, "project_owner", session.Role)
	assert.Equal(t, "ada@example.com", session.User.Email)

	t.Run("duplicate email rejected", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "ada2", "email": "ada@example.com", "password": "hunter2hunter2",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("login", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "ada@example.com", "password": "hunter2hunter2",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[account.Session](t, resp)
		assert.Equal(t, session.User.ID, got.User.ID)
	})

	t.Run("bad password", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "ada@example.com", "password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("me", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		me := decode[MeResponse](t, resp)
		assert.Equal(t, session.User.ID, me.User.ID)
	})

	t.Run("me without token", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestProjectEndpoints(t *testing.T) {
	h := newTestHarness(t)
	owner := h.register(t, "owner", "project_owner")
	member := h.register(t, "member", "user")

	t.Run("create requires project_owner role", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/projects", member.Token, map[string]any{
			"title": "nope",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	created := h.createProject(t, owner.Token, 2)
	assert.Equal(t, owner.User.ID, created.OwnerID)
	assert.Equal(t, "owner@example.com", created.Owner.Email)

	t.Run("get resolves owner", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/projects/"+created.ID, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[ProjectView](t, resp)
		assert.Equal(t, "owner", got.Owner.Name)
	})

	t.Run("get unknown is 404", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/projects/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("list filters by skill", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/projects?skill=go", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[[]ProjectView](t, resp)
		require.Len(t, list, 1)

		resp = h.do(t, http.MethodGet, "/api/projects?skill=cobol", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decode[[]ProjectView](t, resp))
	})

	t.Run("update by non-owner is forbidden", func(t *testing.T) {
		other := h.register(t, "other", "project_owner")
		resp := h.do(t, http.MethodPut, "/api/projects/"+created.ID, other.Token, map[string]any{
			"title": "hijacked",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("join and duplicate join", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/projects/"+created.ID+"/join", member.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		joined := decode[JoinResponse](t, resp)
		assert.Equal(t, "joined", joined.Status)
		require.Len(t, joined.Project.CollaboratorUsers, 1)
		assert.Equal(t, "member", joined.Project.CollaboratorUsers[0].Name)

		resp = h.do(t, http.MethodPost, "/api/projects/"+created.ID+"/join", member.Token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("waitlist and promotion", func(t *testing.T) {
		second := h.register(t, "second", "user")
		third := h.register(t, "third", "user")

		resp := h.do(t, http.MethodPost, "/api/projects/"+created.ID+"/join", second.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "joined", decode[JoinResponse](t, resp).Status)

		resp = h.do(t, http.MethodPost, "/api/projects/"+created.ID+"/join", third.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		waitlisted := decode[JoinResponse](t, resp)
		assert.Equal(t, "waitlisted", waitlisted.Status)
		require.Len(t, waitlisted.Project.WaitlistUsers, 1)

		resp = h.do(t, http.MethodPost, "/api/projects/"+created.ID+"/leave", member.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		left := decode[LeaveResponse](t, resp)
		assert.Equal(t, []string{third.User.ID}, left.Promoted)
		assert.Empty(t, left.Project.WaitlistUsers)
	})
}

func TestMessageEndpoints(t *testing.T) {
	h := newTestHarness(t)
	owner := h.register(t, "owner", "project_owner")
	created := h.createProject(t, owner.Token, 5)

	t.Run("send requires auth", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/messages/"+created.ID, "", map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("send and list", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/messages/"+created.ID, owner.Token, map[string]string{"text": "first"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		sent := decode[message.Resolved](t, resp)
		assert.Equal(t, "first", sent.Text)
		assert.Equal(t, "owner", sent.Author.Name)

		resp = h.do(t, http.MethodPost, "/api/messages/"+created.ID, owner.Token, map[string]string{"text": "second"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = h.do(t, http.MethodGet, "/api/messages/"+created.ID, owner.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[[]message.Resolved](t, resp)
		require.Len(t, list, 2)
		assert.Equal(t, "first", list[0].Text)
		assert.Equal(t, "second", list[1].Text)
	})

	t.Run("blank text rejected", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/messages/"+created.ID, owner.Token, map[string]string{"text": "   "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("unknown project rejected", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/messages/nope", owner.Token, map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestProfileEndpoints(t *testing.T) {
	h := newTestHarness(t)
	user := h.register(t, "dev", "user")

	t.Run("get before upsert is 404", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/profiles/me", user.Token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("upsert and fetch", func(t *testing.T) {
		resp := h.do(t, http.MethodPut, "/api/profiles/me", user.Token, map[string]any{
			"bio": "go developer",
			"skills": []map[string]any{
				{"name": "go", "level": 4},
			},
			"availability": map[string]any{"hoursPerWeek": 20},
			"location":     map[string]any{"city": "Lisbon", "country": "PT"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		view := decode[profile.View](t, resp)
		assert.Equal(t, "go developer", view.Bio)
		assert.Equal(t, "dev", view.User.Name)

		resp = h.do(t, http.MethodGet, "/api/profiles/"+user.User.ID, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[profile.View](t, resp)
		assert.Equal(t, "Lisbon", got.Location.City)
	})

	t.Run("search by skill", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/profiles?skill=go", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result := decode[profile.SearchResult](t, resp)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, user.User.ID, result.Results[0].UserID)

		resp = h.do(t, http.MethodGet, "/api/profiles?city=Berlin", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 0, decode[profile.SearchResult](t, resp).Total)
	})

	t.Run("bad minHours rejected", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/profiles?minHours=lots", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}
