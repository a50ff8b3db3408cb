package store

import (
	"context"
	"errors"
	"fmt"
)

// DemoUsername is the account Seed creates.
const DemoUsername = "demo"

var demoPosts = []struct{ title, content string }{
	{"Welcome to the blog", "This is the first post on the stub backend.\nSign in as demo to edit it."},
	{"Writing Go services", "Small packages, explicit errors and context everywhere.\nThe rest follows."},
	{"Debouncing search input", "Wait until the user stops typing before asking the server.\nFive hundred milliseconds is plenty."},
	{"Pagination windows", "Show at most five page links, centred on the current page where possible."},
	{"Working offline", "When the posts service is unreachable the listing falls back to a local copy."},
	{"Image uploads", "Large images are scaled down before they are sent to the service."},
	{"Sessions in cookies", "The signed cookie holds the token and the user, nothing more."},
	{"Release notes", "Bug fixes and small improvements."},
}

// Seed creates the demo user and a handful of posts when the database holds
// no posts yet. It is a no-op otherwise.
func (s *Store) Seed(ctx context.Context, passwordHash string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	u, err := s.CreateUser(ctx, DemoUsername, passwordHash)
	if errors.Is(err, ErrConflict) {
		u, _, err = s.UserByUsername(ctx, DemoUsername)
	}
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	for _, p := range demoPosts {
		if _, err := s.CreatePost(ctx, u.ID, p.title, p.content, ""); err != nil {
			return fmt.Errorf("seed post %q: %w", p.title, err)
		}
	}
	return nil
}
