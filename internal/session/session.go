// Package session holds the authenticated admin session and keeps it in durable storage.
//
// A [Store] starts Unhydrated. [Store.Hydrate] reads the persisted session once and moves to
// Anonymous or Authenticated; from then on [Store.Login] and [Store.Logout] switch between the two.
// Token and user are always both present or both absent.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/storage"
)

// MinPasswordLength is the shortest new password the console accepts.
const MinPasswordLength = 8

// State is the session lifecycle position.
type State int

const (
	Unhydrated State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unhydrated"
	}
}

// Authenticator performs the login call and owns the default Authorization header.
//
// [services.Client] implements it.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error)
	SetToken(token string)
	ClearToken()
}

// Session is a point-in-time copy of the store's state.
type Session struct {
	Token    string
	User     *models.User
	Hydrated bool
}

// persisted is the JSON written under [storage.AuthKey].
type persisted struct {
	Token *string      `json:"token"`
	User  *models.User `json:"user"`
}

// Store is the session store. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	token    string
	user     *models.User
	hydrated bool

	auth    Authenticator
	storage storage.Storage
	logger  *log.Logger
}

// NewStore creates an unhydrated, anonymous store.
func NewStore(auth Authenticator, s storage.Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{auth: auth, storage: s, logger: logger}
}

// Login authenticates against the backend and, on success, sets token and user together,
// installs the bearer header and persists the session.
//
// Failures are returned untouched and leave the state unchanged.
func (s *Store) Login(ctx context.Context, username, password string) error {
	result, err := s.auth.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	if result.Token == "" {
		return fmt.Errorf("%w: login response carried no token", shared.ErrAuthFailed)
	}

	user := result.User

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = result.Token
	s.user = &user
	s.auth.SetToken(result.Token)
	s.persistLocked()
	s.logger.Info("logged in", "username", user.Username, "role", user.Role)
	return nil
}

// Logout clears the session and the bearer header and persists the cleared state.
// It never calls the backend.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.auth.ClearToken()
	s.persistLocked()
}

// SetHydrated marks hydration complete. Only the first call has an effect.
func (s *Store) SetHydrated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrated = true
}

// Hydrate restores the persisted session and then marks the store hydrated, whatever the outcome.
//
// Missing, malformed or half-present data (a token without a user) hydrates to anonymous.
// Calls after the first are no-ops.
func (s *Store) Hydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return
	}
	defer func() { s.hydrated = true }()

	var p persisted
	if err := storage.LoadJSON(s.storage, storage.AuthKey, &p); err != nil {
		if !errors.Is(err, shared.ErrKeyMissing) {
			s.logger.Debug("discarding stored session", "error", err)
		}
		return
	}

	if p.Token == nil || *p.Token == "" || p.User == nil {
		if p.Token != nil || p.User != nil {
			s.logger.Debug("discarding incomplete stored session")
		}
		return
	}

	s.token = *p.Token
	user := *p.User
	s.user = &user
	s.auth.SetToken(s.token)
}

// State reports the lifecycle position.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.hydrated:
		return Unhydrated
	case s.token != "":
		return Authenticated
	default:
		return Anonymous
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Session{Token: s.token, Hydrated: s.hydrated}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

// User returns the signed-in user, or nil.
func (s *Store) User() *models.User {
	return s.Snapshot().User
}

// RequireAuth gates protected views.
//
// Before hydration it returns [shared.ErrNotHydrated] so callers wait instead of redirecting to login.
func (s *Store) RequireAuth() error {
	switch s.State() {
	case Unhydrated:
		return shared.ErrNotHydrated
	case Anonymous:
		return shared.ErrNotAuthenticated
	}
	return nil
}

// persistLocked writes the session. Failures are logged and otherwise ignored.
func (s *Store) persistLocked() {
	p := persisted{User: s.user}
	if s.token != "" {
		token := s.token
		p.Token = &token
	}
	if err := storage.SaveJSON(s.storage, storage.AuthKey, p); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
}

// ValidateCredentials rejects empty login fields before any network call.
func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrInvalidInput)
	}
	return nil
}

// ValidatePasswordChange checks a change-password form: every field set, the new password at
// least [MinPasswordLength] characters and confirmed.
func ValidatePasswordChange(oldPassword, newPassword, confirm string) error {
	if oldPassword == "" || newPassword == "" || confirm == "" {
		return fmt.Errorf("%w: all password fields are required", shared.ErrInvalidInput)
	}
	if len([]rune(newPassword)) < MinPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters", shared.ErrInvalidInput, MinPasswordLength)
	}
	if newPassword != confirm {
		return fmt.Errorf("%w: new password and confirmation do not match", shared.ErrInvalidInput)
	}
	return nil
}
