package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/services"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/storage"
	tu "github.com/epg-sync/epgctl/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	mu     sync.Mutex
	result *models.LoginResult
	err    error
	token  string
	calls  int
}

func (f *fakeAuth) Login(_ context.Context, creds models.Credentials) (*models.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAuth) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeAuth) ClearToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
}

func (f *fakeAuth) header() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func adminResult() *models.LoginResult {
	return &models.LoginResult{
		Token: "jwt-token",
		User:  models.User{ID: 1, Username: "admin", Email: "admin@example.com", Role: "admin"},
	}
}

func TestStateMachine(t *testing.T) {
	t.Run("Starts Unhydrated", func(t *testing.T) {
		s := NewStore(&fakeAuth{}, tu.NewMemoryStorage(), nil)
		assert.Equal(t, Unhydrated, s.State())
		assert.False(t, s.Snapshot().Hydrated)
	})

	t.Run("Hydrate Empty Storage Is Anonymous", func(t *testing.T) {
		s := NewStore(&fakeAuth{}, tu.NewMemoryStorage(), nil)
		s.Hydrate()
		assert.Equal(t, Anonymous, s.State())
		assert.True(t, s.Snapshot().Hydrated)
	})

	t.Run("Login Then Logout", func(t *testing.T) {
		auth := &fakeAuth{result: adminResult()}
		s := NewStore(auth, tu.NewMemoryStorage(), nil)
		s.Hydrate()

		require.NoError(t, s.Login(context.Background(), "admin", "secret"))
		assert.Equal(t, Authenticated, s.State())

		s.Logout()
		assert.Equal(t, Anonymous, s.State())
		assert.Nil(t, s.User())
		assert.Empty(t, auth.header())
	})

	t.Run("SetHydrated Is Idempotent", func(t *testing.T) {
		s := NewStore(&fakeAuth{}, tu.NewMemoryStorage(), nil)
		s.SetHydrated()
		s.SetHydrated()
		assert.True(t, s.Snapshot().Hydrated)
		assert.Equal(t, Anonymous, s.State())
	})

	t.Run("State Names", func(t *testing.T) {
		assert.Equal(t, "unhydrated", Unhydrated.String())
		assert.Equal(t, "anonymous", Anonymous.String())
		assert.Equal(t, "authenticated", Authenticated.String())
	})
}

func TestLogin(t *testing.T) {
	t.Run("Success Sets Token User Header And Persists", func(t *testing.T) {
		auth := &fakeAuth{result: adminResult()}
		mem := tu.NewMemoryStorage()
		s := NewStore(auth, mem, nil)
		s.Hydrate()

		require.NoError(t, s.Login(context.Background(), "admin", "secret"))

		snap := s.Snapshot()
		assert.Equal(t, "jwt-token", snap.Token)
		require.NotNil(t, snap.User)
		assert.Equal(t, "admin", snap.User.Username)
		assert.Equal(t, "jwt-token", auth.header())

		raw, err := mem.GetItem(storage.AuthKey)
		require.NoError(t, err)
		assert.JSONEq(t, `{"token":"jwt-token","user":{"id":1,"username":"admin","email":"admin@example.com","role":"admin"}}`, raw)
	})

	t.Run("Failure Leaves State Unchanged", func(t *testing.T) {
		apiErr := &services.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid username or password"}
		auth := &fakeAuth{err: apiErr}
		mem := tu.NewMemoryStorage()
		s := NewStore(auth, mem, nil)
		s.Hydrate()

		err := s.Login(context.Background(), "admin", "wrong")
		assert.Same(t, apiErr, err)
		assert.Equal(t, Anonymous, s.State())
		assert.Empty(t, s.Snapshot().Token)
		assert.Empty(t, auth.header())
		assert.Zero(t, mem.Writes())
		assert.Equal(t, 1, auth.calls, "login is never retried")
	})

	t.Run("Failure While Authenticated Keeps Old Session", func(t *testing.T) {
		auth := &fakeAuth{result: adminResult()}
		s := NewStore(auth, tu.NewMemoryStorage(), nil)
		s.Hydrate()
		require.NoError(t, s.Login(context.Background(), "admin", "secret"))

		auth.err = errors.New("connection refused")
		require.Error(t, s.Login(context.Background(), "other", "pw"))

		assert.Equal(t, Authenticated, s.State())
		assert.Equal(t, "admin", s.User().Username)
		assert.Equal(t, "jwt-token", auth.header())
	})

	t.Run("Empty Token Is Rejected", func(t *testing.T) {
		auth := &fakeAuth{result: &models.LoginResult{User: models.User{Username: "admin"}}}
		s := NewStore(auth, tu.NewMemoryStorage(), nil)
		s.Hydrate()

		err := s.Login(context.Background(), "admin", "secret")
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
		assert.Equal(t, Anonymous, s.State())
	})

	t.Run("Storage Write Failure Is Not Surfaced", func(t *testing.T) {
		mem := tu.NewMemoryStorage()
		mem.FailWrites = true
		s := NewStore(&fakeAuth{result: adminResult()}, mem, nil)
		s.Hydrate()

		require.NoError(t, s.Login(context.Background(), "admin", "secret"))
		assert.Equal(t, Authenticated, s.State())
		assert.NotPanics(t, s.Logout)
	})
}

func TestHydrate(t *testing.T) {
	t.Run("Round Trip Restores Session And Header", func(t *testing.T) {
		mem := tu.NewMemoryStorage()
		first := NewStore(&fakeAuth{result: adminResult()}, mem, nil)
		first.Hydrate()
		require.NoError(t, first.Login(context.Background(), "admin", "secret"))

		auth := &fakeAuth{}
		second := NewStore(auth, mem, nil)
		second.Hydrate()

		assert.Equal(t, Authenticated, second.State())
		assert.Equal(t, first.Snapshot().Token, second.Snapshot().Token)
		assert.Equal(t, first.User(), second.User())
		assert.Equal(t, "jwt-token", auth.header())
	})

	t.Run("Logout Persists Anonymous", func(t *testing.T) {
		mem := tu.NewMemoryStorage()
		first := NewStore(&fakeAuth{result: adminResult()}, mem, nil)
		first.Hydrate()
		require.NoError(t, first.Login(context.Background(), "admin", "secret"))
		first.Logout()

		second := NewStore(&fakeAuth{}, mem, nil)
		second.Hydrate()
		assert.Equal(t, Anonymous, second.State())
	})

	tests := []struct {
		name string
		raw  string
	}{
		{"token without user", `{"token":"jwt-token","user":null}`},
		{"token without user key", `{"token":"jwt-token"}`},
		{"user without token", `{"token":null,"user":{"id":1,"username":"admin","role":"admin"}}`},
		{"empty token", `{"token":"","user":{"id":1,"username":"admin","role":"admin"}}`},
		{"malformed json", `{"token":`},
		{"wrong shape", `["jwt-token"]`},
	}

	for _, tt := range tests {
		t.Run("Anonymous On "+tt.name, func(t *testing.T) {
			mem := tu.NewMemoryStorage()
			require.NoError(t, mem.SetItem(storage.AuthKey, tt.raw))

			auth := &fakeAuth{}
			s := NewStore(auth, mem, nil)
			s.Hydrate()

			assert.Equal(t, Anonymous, s.State())
			assert.Empty(t, s.Snapshot().Token)
			assert.Nil(t, s.User())
			assert.Empty(t, auth.header())
		})
	}

	t.Run("Second Hydrate Is No-op", func(t *testing.T) {
		mem := tu.NewMemoryStorage()
		s := NewStore(&fakeAuth{}, mem, nil)
		s.Hydrate()

		data, err := json.Marshal(map[string]any{"token": "late", "user": map[string]any{"id": 2, "username": "late"}})
		require.NoError(t, err)
		require.NoError(t, mem.SetItem(storage.AuthKey, string(data)))

		s.Hydrate()
		assert.Equal(t, Anonymous, s.State())
	})
}

func TestRequireAuth(t *testing.T) {
	auth := &fakeAuth{result: adminResult()}
	mem := tu.NewMemoryStorage()
	seed := NewStore(auth, mem, nil)
	seed.Hydrate()
	require.NoError(t, seed.Login(context.Background(), "admin", "secret"))

	s := NewStore(&fakeAuth{}, mem, nil)

	err := s.RequireAuth()
	assert.ErrorIs(t, err, shared.ErrNotHydrated, "must not redirect before hydration")
	assert.NotErrorIs(t, err, shared.ErrNotAuthenticated)

	s.Hydrate()
	assert.NoError(t, s.RequireAuth())

	s.Logout()
	assert.ErrorIs(t, s.RequireAuth(), shared.ErrNotAuthenticated)
}

func TestWithHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Write([]byte(`{"message":"login successful","data":{"token":"server-token","user":{"id":1,"username":"admin","role":"admin"}}}`))
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer server-token" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			w.Write([]byte(`{"data":{"id":1,"username":"admin","role":"admin"}}`))
		}
	}))
	defer server.Close()

	client := services.NewClient(services.Options{BaseURL: server.URL})
	s := NewStore(client, tu.NewMemoryStorage(), nil)
	s.Hydrate()

	_, err := client.CurrentUser(context.Background())
	assert.True(t, services.IsStatus(err, http.StatusUnauthorized))

	require.NoError(t, s.Login(context.Background(), "admin", "secret"))
	assert.Equal(t, "Bearer server-token", client.AuthorizationHeader())

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	s.Logout()
	assert.Empty(t, client.AuthorizationHeader())
}

func TestValidation(t *testing.T) {
	t.Run("Credentials", func(t *testing.T) {
		assert.NoError(t, ValidateCredentials("admin", "secret"))
		assert.ErrorIs(t, ValidateCredentials("", "secret"), shared.ErrInvalidInput)
		assert.ErrorIs(t, ValidateCredentials("  ", "secret"), shared.ErrInvalidInput)
		assert.ErrorIs(t, ValidateCredentials("admin", ""), shared.ErrInvalidInput)
	})

	t.Run("Password Change", func(t *testing.T) {
		tests := []struct {
			name             string
			old, new, repeat string
			ok               bool
		}{
			{"valid", "old-pass", "new-password", "new-password", true},
			{"exactly eight", "old", "12345678", "12345678", true},
			{"missing old", "", "new-password", "new-password", false},
			{"missing confirm", "old", "new-password", "", false},
			{"too short", "old", "1234567", "1234567", false},
			{"mismatch", "old", "new-password", "new-passw0rd", false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := ValidatePasswordChange(tt.old, tt.new, tt.repeat)
				if tt.ok {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, shared.ErrInvalidInput)
				}
			})
		}
	})
}
