package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
)

type fakeAuth struct {
	loginCalls    int
	registerCalls int
	result        domain.LoginResult
	err           error
}

func (f *fakeAuth) Login(_ context.Context, _ domain.LoginCredentials) (domain.LoginResult, error) {
	f.loginCalls++
	return f.result, f.err
}

func (f *fakeAuth) Register(_ context.Context, _ domain.RegisterCredentials) error {
	f.registerCalls++
	return f.err
}

type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (brokenStorage) SetAll(context.Context, map[string]string) error { return errors.New("disk on fire") }
func (brokenStorage) Delete(context.Context, ...string) error       { return errors.New("disk on fire") }

func aliceResult() domain.LoginResult {
	return domain.LoginResult{AccessToken: "tok-1", User: domain.User{ID: 7, Username: "alice"}}
}

func assertConsistent(t *testing.T, s *Session) {
	t.Helper()
	st := s.State()
	assert.Equal(t, st.User != nil && st.Token != "", st.IsAuthenticated)
}

func TestLoginPersistsAndAuthenticates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	n := &domain.RecordingNotifier{}
	s := New(store, &fakeAuth{result: aliceResult()}, n)
	assertConsistent(t, s)
	assert.False(t, s.IsAuthenticated())

	route, err := s.Login(ctx, domain.LoginCredentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domain.HomeRoute, route)
	assertConsistent(t, s)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok-1", s.Token())
	assert.True(t, s.Owns(7))
	assert.False(t, s.Owns(9))
	assert.Equal(t, []string{"Logged in successfully"}, n.Successes)

	tok, ok, _ := store.Get(ctx, TokenKey)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", tok)

	restored := New(store, &fakeAuth{}, nil)
	restored.Restore(ctx)
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, "alice", restored.User().Username)
}

func TestLoginFailureLeavesSignedOut(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{err: errs.Auth("login", "Invalid credentials")}
	n := &domain.RecordingNotifier{}
	s := New(NewMemoryStorage(), auth, n)

	_, err := s.Login(ctx, domain.LoginCredentials{Username: "alice", Password: "bad"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindAuth))
	assert.False(t, s.IsAuthenticated())
	assertConsistent(t, s)
	assert.Empty(t, n.Errors, "gateway failures are reported by the gateway")
}

func TestLoginPersistFailureIsReported(t *testing.T) {
	n := &domain.RecordingNotifier{}
	s := New(brokenStorage{}, &fakeAuth{result: aliceResult()}, n)

	_, err := s.Login(context.Background(), domain.LoginCredentials{Username: "alice", Password: "pw"})
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, []string{"Failed to save session"}, n.Errors)
}

func TestRegisterPasswordMismatchMakesNoRequest(t *testing.T) {
	auth := &fakeAuth{}
	n := &domain.RecordingNotifier{}
	s := New(NewMemoryStorage(), auth, n)

	_, err := s.Register(context.Background(), domain.RegisterCredentials{
		Username: "bob", Password: "one", ConfirmPassword: "two",
	})
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match", errs.Message(err))
	assert.Equal(t, 0, auth.registerCalls)
	assert.Equal(t, []string{"Passwords do not match"}, n.Errors)
}

func TestRegisterRequiresFields(t *testing.T) {
	auth := &fakeAuth{}
	s := New(NewMemoryStorage(), auth, nil)
	_, err := s.Register(context.Background(), domain.RegisterCredentials{Username: " "})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Equal(t, 0, auth.registerCalls)
}

func TestRegisterSuccessDoesNotSignIn(t *testing.T) {
	auth := &fakeAuth{}
	n := &domain.RecordingNotifier{}
	s := New(NewMemoryStorage(), auth, n)

	route, err := s.Register(context.Background(), domain.RegisterCredentials{
		Username: "bob", Password: "pw", ConfirmPassword: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LoginRoute, route)
	assert.Equal(t, 1, auth.registerCalls)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, []string{"Registered successfully. Please log in."}, n.Successes)
}

func TestLogoutAlwaysClears(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	s := New(store, &fakeAuth{result: aliceResult()}, nil)
	_, err := s.Login(ctx, domain.LoginCredentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, domain.LoginRoute, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 0, store.Len())
	assertConsistent(t, s)
}

func TestLogoutWithBrokenStorage(t *testing.T) {
	n := &domain.RecordingNotifier{}
	s := New(brokenStorage{}, &fakeAuth{}, n)
	s.token, s.user = "tok", &domain.User{ID: 1, Username: "x"}

	s.Logout(context.Background())
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, []string{"Logged out successfully"}, n.Successes)
}

func TestRestoreDiscardsInvalidData(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"token only", map[string]string{TokenKey: "tok"}},
		{"user only", map[string]string{UserKey: `{"id":1,"username":"a"}`}},
		{"garbled user", map[string]string{TokenKey: "tok", UserKey: "{not json"}},
		{"empty user", map[string]string{TokenKey: "tok", UserKey: "{}"}},
		{"empty token", map[string]string{TokenKey: "", UserKey: `{"id":1,"username":"a"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStorage()
			require.NoError(t, store.SetAll(ctx, tt.values))

			s := New(store, &fakeAuth{}, nil)
			s.Restore(ctx)
			assert.False(t, s.IsAuthenticated())
			assertConsistent(t, s)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestCookieStorage(t *testing.T) {
	ctx := context.Background()
	gs := sessions.NewSession(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")), "blogfront")
	c := NewCookieStorage(gs)

	_, ok, err := c.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, c.Dirty())

	require.NoError(t, c.SetAll(ctx, map[string]string{TokenKey: "t", UserKey: "u"}))
	assert.True(t, c.Dirty())
	v, ok, _ := c.Get(ctx, UserKey)
	assert.True(t, ok)
	assert.Equal(t, "u", v)

	require.NoError(t, c.Delete(ctx, TokenKey, UserKey))
	assert.Empty(t, gs.Values)
}

func TestSQLiteStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	st, err := OpenSQLiteStorage(path)
	require.NoError(t, err)
	s := New(st, &fakeAuth{result: aliceResult()}, nil)
	_, err = s.Login(ctx, domain.LoginCredentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenSQLiteStorage(path)
	require.NoError(t, err)
	defer st.Close()
	again := New(st, &fakeAuth{}, nil)
	again.Restore(ctx)
	assert.True(t, again.IsAuthenticated())
	assert.Equal(t, int64(7), again.User().ID)

	again.Logout(ctx)
	_, ok, err := st.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStorage(t *testing.T) {
	url := os.Getenv("BLOGFRONT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BLOGFRONT_TEST_REDIS_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	rdb := goredis.NewClient(opts)
	defer rdb.Close()

	ctx := context.Background()
	sid := "test-" + time.Now().Format("150405.000000000")
	st := NewRedisStorage(rdb, sid, time.Minute)
	defer rdb.Del(ctx, redisKeyPrefix+sid)

	_, ok, err := st.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetAll(ctx, map[string]string{TokenKey: "t"}))
	v, ok, err := st.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t", v)

	ttl, err := rdb.TTL(ctx, redisKeyPrefix+sid).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, st.Delete(ctx, TokenKey))
	_, ok, _ = st.Get(ctx, TokenKey)
	assert.False(t, ok)
}
