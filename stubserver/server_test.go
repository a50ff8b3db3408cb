package stubserver

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
	"github.com/eringen/blogfront/gateway"
	"github.com/eringen/blogfront/session"
	"github.com/eringen/blogfront/store"
)

func newStub(t *testing.T, opts ...Option) (*store.Store, *gateway.Client) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "stub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, Seed(context.Background(), st))

	srv := httptest.NewServer(New(st, opts...).Echo)
	t.Cleanup(srv.Close)
	return st, gateway.New(srv.URL + "/api")
}

func login(t *testing.T, api *gateway.Client, user, pass string) *session.Session {
	t.Helper()
	s := session.New(session.NewMemoryStorage(), api, nil)
	_, err := s.Login(context.Background(), domain.LoginCredentials{Username: user, Password: pass})
	require.NoError(t, err)
	return s
}

func TestCreateThenFetchRoundTrip(t *testing.T) {
	_, api := newStub(t)
	ctx := context.Background()
	s := login(t, api, "demo", "demo")

	created, err := api.CreatePost(ctx, s.Token(), gateway.PostInput{Title: "T", Content: "C"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := api.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "C", got.Content)
	assert.Empty(t, got.ImageURL)
	assert.False(t, got.HasImage())
	assert.Equal(t, "demo", got.Author)
	assert.Equal(t, s.User().ID, got.AuthorID)
}

func TestImageUploadAndRemoval(t *testing.T) {
	_, api := newStub(t)
	ctx := context.Background()
	s := login(t, api, "demo", "demo")

	png := []byte("\x89PNG\r\n\x1a\n0000")
	p, err := api.CreatePost(ctx, s.Token(), gateway.PostInput{
		Title: "Pic", Content: "C",
		Image: &gateway.Attachment{Filename: "a.png", ContentType: "image/png", Data: png},
	})
	require.NoError(t, err)
	assert.Contains(t, p.ImageURL, "/api/images/")

	kept, err := api.UpdatePost(ctx, s.Token(), p.ID, gateway.PostInput{Title: "Pic 2", Content: "C"})
	require.NoError(t, err)
	assert.Equal(t, p.ImageURL, kept.ImageURL)

	removed, err := api.UpdatePost(ctx, s.Token(), p.ID, gateway.PostInput{Title: "Pic 2", Content: "C", RemoveImage: true})
	require.NoError(t, err)
	assert.Empty(t, removed.ImageURL)
}

func TestRegisterLoginAndOwnership(t *testing.T) {
	_, api := newStub(t)
	ctx := context.Background()

	reg := session.New(session.NewMemoryStorage(), api, nil)
	route, err := reg.Register(ctx, domain.RegisterCredentials{Username: "bob", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domain.LoginRoute, route)

	_, err = reg.Register(ctx, domain.RegisterCredentials{Username: "bob", Password: "pw", ConfirmPassword: "pw"})
	assert.Equal(t, "Username already registered", errs.Message(err))

	bob := login(t, api, "bob", "pw")
	page, err := api.ListPosts(ctx, domain.ListQuery{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	_, err = api.UpdatePost(ctx, bob.Token(), page.Items[0].ID, gateway.PostInput{Title: "x", Content: "y"})
	assert.True(t, errs.Is(err, errs.KindAuthorization))

	err = api.DeletePost(ctx, bob.Token(), page.Items[0].ID)
	assert.True(t, errs.Is(err, errs.KindAuthorization))

	_, err = api.Login(ctx, domain.LoginCredentials{Username: "bob", Password: "wrong"})
	assert.True(t, errs.Is(err, errs.KindAuth))
	assert.Equal(t, "Incorrect username or password", errs.Message(err))
}

func TestDeleteAndNotFound(t *testing.T) {
	_, api := newStub(t)
	ctx := context.Background()
	s := login(t, api, "demo", "demo")

	p, err := api.CreatePost(ctx, s.Token(), gateway.PostInput{Title: "Bye", Content: "C"})
	require.NoError(t, err)
	require.NoError(t, api.DeletePost(ctx, s.Token(), p.ID))

	_, err = api.GetPost(ctx, p.ID)
	assert.True(t, errs.Is(err, errs.KindNotFound))
	assert.Equal(t, "Post not found", errs.Message(err))

	_, err = api.CreatePost(ctx, "not-a-token", gateway.PostInput{Title: "T", Content: "C"})
	assert.True(t, errs.Is(err, errs.KindAuth))
}

func TestListingShapes(t *testing.T) {
	t.Run("paginated", func(t *testing.T) {
		_, api := newStub(t)
		page, err := api.ListPosts(context.Background(), domain.ListQuery{Page: 1, Limit: 3})
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)
		assert.Equal(t, 3, page.TotalPages)
	})
	t.Run("legacy array", func(t *testing.T) {
		_, api := newStub(t, WithLegacyListing())
		page, err := api.ListPosts(context.Background(), domain.ListQuery{})
		require.NoError(t, err)
		assert.Len(t, page.Items, 8)
		assert.Equal(t, 1, page.TotalPages)
	})
	t.Run("search", func(t *testing.T) {
		_, api := newStub(t)
		page, err := api.ListPosts(context.Background(), domain.ListQuery{Search: "OFFLINE"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Working offline", page.Items[0].Title)
	})
}
