package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogfront/errs"
	"github.com/eringen/blogfront/mutation"
	"github.com/eringen/blogfront/store"
	"github.com/eringen/blogfront/stubserver"
)

// harness runs commands against a seeded stub service with a private
// terminal session.
type harness struct {
	t         *testing.T
	api       string
	sessionDB string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "stub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, stubserver.Seed(context.Background(), st))

	srv := httptest.NewServer(stubserver.New(st).Echo)
	t.Cleanup(srv.Close)
	return &harness{t: t, api: srv.URL + "/api", sessionDB: filepath.Join(dir, "session.db")}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--api", h.api, "--session-db", h.sessionDB}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, out)
	return out
}

func TestLoginPersistsAcrossCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("whoami")
	assert.Contains(t, out, "Not logged in")

	out = h.mustRun("login", "-u", "demo", "-p", "demo")
	assert.Contains(t, out, "Logged in successfully")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "demo")

	out = h.mustRun("logout")
	assert.Contains(t, out, "Logged out successfully")
	out = h.mustRun("whoami")
	assert.Contains(t, out, "Not logged in")
}

func TestLoginPromptsForMissingValues(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("demo\ndemo\n", "login")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Username: ")
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Logged in successfully")
}

func TestLoginFailureIsReported(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "login", "-u", "demo", "-p", "nope")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindAuth))
	assert.Contains(t, out, "✗ Incorrect username or password")
}

func TestRegisterChecksConfirmation(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "register", "-u", "carol", "-p", "pw", "--confirm", "other")
	require.Error(t, err)
	assert.Contains(t, out, "Passwords do not match")

	out = h.mustRun("register", "-u", "carol", "-p", "pw", "--confirm", "pw")
	assert.Contains(t, out, "Registered successfully. Please log in.")
	assert.Contains(t, out, "blogfront login -u carol")
}

func TestPostsListAndShow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("posts", "list")
	assert.Contains(t, out, "Release notes")
	assert.NotContains(t, out, "Welcome to the blog")
	assert.Contains(t, out, "Page 1 of 2")

	out = h.mustRun("posts", "list", "--page", "2")
	assert.Contains(t, out, "Welcome to the blog")

	out = h.mustRun("posts", "ls", "-s", "offline")
	assert.Contains(t, out, "Working offline")
	assert.NotContains(t, out, "Release notes")

	out = h.mustRun("posts", "list", "-s", "nothing-matches")
	assert.Contains(t, out, `No posts match "nothing-matches".`)

	out = h.mustRun("posts", "show", "1")
	assert.Contains(t, out, "Welcome to the blog")
	assert.Contains(t, out, "by demo")

	out, err := h.run("", "posts", "show", "999")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindNotFound))
	assert.Contains(t, out, "✗")

	_, err = h.run("", "posts", "show", "abc")
	assert.ErrorContains(t, err, `invalid post id "abc"`)
}

func TestPostsRequireLogin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "posts", "create", "-t", "Hi", "--content", "There")
	require.Error(t, err)
	assert.Contains(t, out, "You must be logged in to create a post")
}

func TestPostsWriteFlow(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "-u", "demo", "-p", "demo")

	out, err := h.run("", "posts", "create", "-t", "Only a title")
	require.Error(t, err)
	assert.Contains(t, out, "Missing required field: content")

	out, err = h.run("Line one\nLine two\n", "posts", "create", "-t", "From the terminal", "--content", "-")
	require.NoError(t, err, out)
	id := strings.TrimSpace(out[strings.LastIndex(strings.TrimSpace(out), "\n")+1:])
	assert.Contains(t, out, "Post created successfully!")

	out = h.mustRun("posts", "show", id)
	assert.Contains(t, out, "From the terminal")
	assert.Contains(t, out, "Line two")

	out = h.mustRun("posts", "edit", id, "-t", "Renamed")
	assert.Contains(t, out, "Post updated successfully!")
	assert.Contains(t, out, "Renamed")
	assert.Contains(t, out, "Line one", "content is kept when not passed")

	out, err = h.run("n\n", "posts", "delete", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, `Delete "Renamed"? This action cannot be undone. [y/N]`)
	assert.Contains(t, out, "Cancelled.")
	h.mustRun("posts", "show", id)

	out = h.mustRun("posts", "delete", id, "--yes")
	assert.Contains(t, out, "Post deleted successfully")
	_, err = h.run("", "posts", "show", id)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestPostsCreateWithImage(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "-u", "demo", "-p", "demo")

	path := filepath.Join(t.TempDir(), "wide.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1200, 300))))
	require.NoError(t, f.Close())

	out := h.mustRun("posts", "create", "-t", "With a picture", "--content", "Look", "--image", path)
	id := strings.TrimSpace(out[strings.LastIndex(strings.TrimSpace(out), "\n")+1:])

	out = h.mustRun("posts", "show", id)
	assert.Contains(t, out, "image: ")

	out = h.mustRun("posts", "edit", id, "--remove-image")
	assert.NotContains(t, out, "image: ")

	_, err = h.run("", "posts", "create", "-t", "Bad", "--content", "x", "--image", filepath.Join(t.TempDir(), "none.png"))
	assert.ErrorContains(t, err, "read image")
}

func TestCannotEditSomeoneElsesPost(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "-u", "bob", "-p", "pw", "--confirm", "pw")
	h.mustRun("login", "-u", "bob", "-p", "pw")

	out, err := h.run("", "posts", "edit", "1", "-t", "Mine now")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindAuthorization))
	assert.Contains(t, out, "You don't have permission to edit this post.")

	out, err = h.run("", "posts", "delete", "1", "--yes")
	require.Error(t, err)
	assert.NotErrorIs(t, err, mutation.ErrCancelled)
	assert.Contains(t, out, "You don't have permission to delete this post.")
}

func TestVersionSkipsConfig(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "blogfront ")
}
