package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eringen/blogfront/domain"
)

func setupTestStore(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	s, err := Open(filepath.Join(t.TempDir(), "data", "blog.db"), WithClock(clock))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func mustUser(t *testing.T, s *Store, name string) domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, "hash-"+name)
	if err != nil {
		t.Fatalf("CreateUser(%q) failed: %v", name, err)
	}
	return u
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		if err := s.Ping(context.Background()); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
		s.Close()
	}
}

func TestUsersAndTokens(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	if _, err := s.CreateUser(ctx, "ALICE", "x"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate username error = %v, want ErrConflict", err)
	}

	got, hash, err := s.UserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("UserByUsername failed: %v", err)
	}
	if got.ID != alice.ID || hash != "hash-alice" {
		t.Errorf("UserByUsername = %+v %q", got, hash)
	}
	if _, _, err := s.UserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}

	if err := s.SaveToken(ctx, "tok", alice.ID); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	u, err := s.UserByToken(ctx, "tok")
	if err != nil {
		t.Fatalf("UserByToken failed: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("UserByToken username = %q", u.Username)
	}
	if _, err := s.UserByToken(ctx, "bogus"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bogus token error = %v, want ErrNotFound", err)
	}
}

func TestPostLifecycle(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice")

	p, err := s.CreatePost(ctx, alice.ID, "T", "C", "")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if p.Author != "alice" || p.AuthorID != alice.ID {
		t.Errorf("author = %q/%d", p.Author, p.AuthorID)
	}
	if p.IsUpdated() {
		t.Error("fresh post should not count as updated")
	}

	clock.Advance(time.Hour)
	up, err := s.UpdatePost(ctx, p.ID, "T2", "C2", "/images/1")
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if !up.IsUpdated() || up.Title != "T2" || up.ImageURL != "/images/1" {
		t.Errorf("updated post = %+v", up)
	}
	if !up.CreatedAt.Equal(p.CreatedAt.Time) {
		t.Errorf("created_at changed: %v -> %v", p.CreatedAt, up.CreatedAt)
	}

	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeletePost(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdatePost(ctx, p.ID, "x", "y", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of missing post = %v, want ErrNotFound", err)
	}
}

func TestListPostsSearchOrderAndPaging(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice")

	titles := []string{"Go basics", "Rust notes", "More GO", "Cooking", "go again", "Travel", "Misc"}
	for _, title := range titles {
		if _, err := s.CreatePost(ctx, alice.ID, title, "body", ""); err != nil {
			t.Fatalf("CreatePost(%q) failed: %v", title, err)
		}
		clock.Advance(time.Minute)
	}

	page, err := s.ListPosts(ctx, domain.ListQuery{})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if page.Total != 7 || page.TotalPages != 2 || len(page.Items) != domain.DefaultPageSize {
		t.Errorf("default page = total %d pages %d items %d", page.Total, page.TotalPages, len(page.Items))
	}
	if page.Items[0].Title != "Misc" {
		t.Errorf("newest first: got %q", page.Items[0].Title)
	}

	second, err := s.ListPosts(ctx, domain.ListQuery{Page: 2, Limit: 6})
	if err != nil {
		t.Fatalf("ListPosts page 2 failed: %v", err)
	}
	if len(second.Items) != 1 || second.Items[0].Title != "Go basics" {
		t.Errorf("page 2 = %+v", second.Items)
	}

	found, err := s.ListPosts(ctx, domain.ListQuery{Search: "go"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	var got []string
	for _, p := range found.Items {
		got = append(got, p.Title)
	}
	want := []string{"go again", "More GO", "Go basics"}
	if len(got) != len(want) {
		t.Fatalf("search titles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("search[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if found.TotalPages != 1 {
		t.Errorf("search pages = %d, want 1", found.TotalPages)
	}

	recent, err := s.RecentPosts(ctx, 2)
	if err != nil || len(recent) != 2 {
		t.Errorf("RecentPosts = %d posts, err %v", len(recent), err)
	}
}

func TestSearchFoldsNonASCII(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice")

	for _, title := range []string{"ÉCOLE d'été", "Straße", "Plain"} {
		if _, err := s.CreatePost(ctx, alice.ID, title, "body", ""); err != nil {
			t.Fatalf("CreatePost(%q) failed: %v", title, err)
		}
	}
	if _, err := s.CreatePost(ctx, alice.ID, "Notes", "Über alles", ""); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	tests := []struct {
		search string
		want   string
	}{
		{"école", "ÉCOLE d'été"},
		{"ÉTÉ", "ÉCOLE d'été"},
		{"ecole", ""},
		{"straße", "Straße"},
		{"über", "Notes"},
	}
	for _, tt := range tests {
		page, err := s.ListPosts(ctx, domain.ListQuery{Search: tt.search})
		if err != nil {
			t.Fatalf("ListPosts(%q) failed: %v", tt.search, err)
		}
		if tt.want == "" {
			if page.Total != 0 {
				t.Errorf("search %q matched %d posts, want none", tt.search, page.Total)
			}
			continue
		}
		if page.Total != 1 || page.Items[0].Title != tt.want {
			t.Errorf("search %q = %+v, want %q", tt.search, page.Items, tt.want)
		}
	}
}

func TestImages(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	id, err := s.SaveImage(ctx, "image/jpeg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	ct, data, err := s.Image(ctx, id)
	if err != nil || ct != "image/jpeg" || len(data) != 2 {
		t.Errorf("Image = %q %v %v", ct, data, err)
	}
	if _, _, err := s.Image(ctx, id+1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing image = %v", err)
	}
}

func TestSeed(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := s.Seed(ctx, "hash"); err != nil {
			t.Fatalf("Seed #%d failed: %v", i+1, err)
		}
	}
	page, err := s.ListPosts(ctx, domain.ListQuery{Limit: 100})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if page.Total != len(demoPosts) {
		t.Errorf("seeded %d posts, want %d", page.Total, len(demoPosts))
	}
}
