package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eringen/blogfront/domain"
)

const postColumns = `p.id, p.title, p.content, u.username, p.author_id, p.created_at, p.updated_at, p.image_url`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (domain.BlogPost, error) {
	var (
		p                domain.BlogPost
		created, updated string
	)
	if err := r.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.AuthorID, &created, &updated, &p.ImageURL); err != nil {
		return domain.BlogPost{}, err
	}
	p.CreatedAt = parseStamp(created)
	p.UpdatedAt = parseStamp(updated)
	return p, nil
}

// ListPosts returns one page of posts, newest first. Search matches title
// or content case-insensitively. Zero page and limit fall back to the first
// page and domain.DefaultPageSize.
func (s *Store) ListPosts(ctx context.Context, q domain.ListQuery) (domain.PostPage, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = domain.DefaultPageSize
	}

	where := ""
	var args []any
	if term := strings.TrimSpace(q.Search); term != "" {
		term = strings.ToLower(term)
		where = `WHERE instr(fold(p.title), ?) > 0 OR instr(fold(p.content), ?) > 0`
		args = append(args, term, term)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p `+where, args...).Scan(&total); err != nil {
		return domain.PostPage{}, fmt.Errorf("count posts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id `+where+`
		ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return domain.PostPage{}, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return domain.PostPage{}, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return domain.PostPage{}, err
	}
	return domain.PostPage{
		Items:      posts,
		Total:      total,
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// RecentPosts returns the newest n posts.
func (s *Store) RecentPosts(ctx context.Context, n int) ([]domain.BlogPost, error) {
	page, err := s.ListPosts(ctx, domain.ListQuery{Page: 1, Limit: n})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetPost returns a single post.
func (s *Store) GetPost(ctx context.Context, id int64) (domain.BlogPost, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id WHERE p.id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BlogPost{}, ErrNotFound
	}
	return p, err
}

// CreatePost inserts a post and returns it as stored.
func (s *Store) CreatePost(ctx context.Context, authorID int64, title, content, imageURL string) (domain.BlogPost, error) {
	now := s.stamp()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (title, content, author_id, created_at, updated_at, image_url)
		VALUES (?, ?, ?, ?, ?, ?)`, title, content, authorID, now, now, imageURL)
	if err != nil {
		return domain.BlogPost{}, fmt.Errorf("insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.BlogPost{}, err
	}
	return s.GetPost(ctx, id)
}

// UpdatePost overwrites title, content and image URL and bumps updated_at.
func (s *Store) UpdatePost(ctx context.Context, id int64, title, content, imageURL string) (domain.BlogPost, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, image_url = ?, updated_at = ? WHERE id = ?`,
		title, content, imageURL, s.stamp(), id)
	if err != nil {
		return domain.BlogPost{}, fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.BlogPost{}, ErrNotFound
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveImage stores an uploaded image and returns its id.
func (s *Store) SaveImage(ctx context.Context, contentType string, data []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO images (content_type, data) VALUES (?, ?)`, contentType, data)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return res.LastInsertId()
}

// Image returns a stored image.
func (s *Store) Image(ctx context.Context, id int64) (string, []byte, error) {
	var (
		ct   string
		data []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT content_type, data FROM images WHERE id = ?`, id).Scan(&ct, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	return ct, data, err
}
