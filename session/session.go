// Package session holds the signed-in identity of one browser or one CLI
// process. A Session is an explicit object handed to every flow that needs
// it; there is no package-level state. Its lifecycle is Restore at startup,
// then Login, Register and Logout driven by the user.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
)

// Authenticator is the part of the API gateway the session talks to.
type Authenticator interface {
	Login(ctx context.Context, creds domain.LoginCredentials) (domain.LoginResult, error)
	Register(ctx context.Context, creds domain.RegisterCredentials) error
}

// State is a snapshot of the session. IsAuthenticated is true iff both User
// and Token are present.
type State struct {
	User            *domain.User
	Token           string
	IsAuthenticated bool
}

// Session is the authentication context.
type Session struct {
	storage  Storage
	auth     Authenticator
	notifier domain.Notifier

	mu    sync.RWMutex
	user  *domain.User
	token string
}

// New returns an unauthenticated session. Call Restore to pick up a
// previously persisted login. auth failures are expected to be reported by
// auth itself (see gateway.Reported); the session only reports its own.
func New(storage Storage, auth Authenticator, n domain.Notifier) *Session {
	if n == nil {
		n = domain.DiscardNotifier{}
	}
	return &Session{storage: storage, auth: auth, notifier: n}
}

// Restore loads the persisted token and user. Missing or unreadable data
// leaves the session signed out and wipes whatever was persisted.
func (s *Session) Restore(ctx context.Context) {
	token, user, ok := s.readPersisted(ctx)
	if !ok {
		s.reset()
		if err := s.storage.Delete(ctx, TokenKey, UserKey); err != nil {
			slog.ErrorContext(ctx, "Failed to clear persisted session", "error", err)
		}
		return
	}
	s.mu.Lock()
	s.token, s.user = token, user
	s.mu.Unlock()
}

func (s *Session) readPersisted(ctx context.Context) (string, *domain.User, bool) {
	token, hasToken, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read persisted token", "error", err)
		return "", nil, false
	}
	raw, hasUser, err := s.storage.Get(ctx, UserKey)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read persisted user", "error", err)
		return "", nil, false
	}
	if !hasToken || !hasUser || token == "" || raw == "" {
		return "", nil, false
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		slog.WarnContext(ctx, "Discarding unparsable persisted user", "error", err)
		return "", nil, false
	}
	if u.ID == 0 && u.Username == "" {
		return "", nil, false
	}
	return token, &u, true
}

// Login authenticates against the service and persists the result. On
// success it returns the home route.
func (s *Session) Login(ctx context.Context, creds domain.LoginCredentials) (domain.Route, error) {
	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		return "", err
	}
	userJSON, err := json.Marshal(res.User)
	if err != nil {
		return "", s.fail(ctx, fmt.Errorf("encode user: %w", err))
	}
	if err := s.storage.SetAll(ctx, map[string]string{
		TokenKey: res.AccessToken,
		UserKey:  string(userJSON),
	}); err != nil {
		return "", s.fail(ctx, err)
	}

	u := res.User
	s.mu.Lock()
	s.token, s.user = res.AccessToken, &u
	s.mu.Unlock()

	s.notifier.Success("Logged in successfully")
	return domain.HomeRoute, nil
}

func (s *Session) fail(ctx context.Context, cause error) error {
	slog.ErrorContext(ctx, "Failed to persist session", "error", cause)
	err := errs.Wrap(errs.KindAuth, "login", "Failed to save session", cause)
	s.notifier.Error(err.Message)
	return err
}

// Register creates an account. The password confirmation is checked before
// any request is made. Registration does not sign in; on success it returns
// the login route.
func (s *Session) Register(ctx context.Context, creds domain.RegisterCredentials) (domain.Route, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		err := errs.Validation("register", "Username and password are required")
		s.notifier.Error(err.Message)
		return "", err
	}
	if creds.Password != creds.ConfirmPassword {
		err := errs.Auth("register", "Passwords do not match")
		s.notifier.Error(err.Message)
		return "", err
	}
	if err := s.auth.Register(ctx, creds); err != nil {
		return "", err
	}
	s.notifier.Success("Registered successfully. Please log in.")
	return domain.LoginRoute, nil
}

// Logout forgets the session. It never fails: storage errors are logged and
// the in-memory state is cleared regardless.
func (s *Session) Logout(ctx context.Context) domain.Route {
	if err := s.storage.Delete(ctx, TokenKey, UserKey); err != nil {
		slog.ErrorContext(ctx, "Failed to clear persisted session", "error", err)
	}
	s.reset()
	s.notifier.Success("Logged out successfully")
	return domain.LoginRoute
}

func (s *Session) reset() {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{Token: s.token}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	st.IsAuthenticated = st.User != nil && st.Token != ""
	return st
}

// IsAuthenticated reports whether both a user and a token are held.
func (s *Session) IsAuthenticated() bool {
	return s.State().IsAuthenticated
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user, or nil.
func (s *Session) User() *domain.User {
	return s.State().User
}

// Owns reports whether the signed-in user is the author of a resource.
func (s *Session) Owns(authorID int64) bool {
	st := s.State()
	return st.IsAuthenticated && st.User.ID == authorID
}
