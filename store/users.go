package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eringen/blogfront/domain"
)

// CreateUser inserts a user with an already hashed password.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (domain.User, error) {
	now := s.stamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now)
	if isUniqueViolation(err) {
		return domain.User{}, ErrConflict
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: id, Username: username, CreatedAt: parseStamp(now)}, nil
}

// UserByUsername returns the user and its password hash.
func (s *Store) UserByUsername(ctx context.Context, username string) (domain.User, string, error) {
	var (
		u       domain.User
		hash    string
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, "", ErrNotFound
	}
	if err != nil {
		return domain.User{}, "", err
	}
	u.CreatedAt = parseStamp(created)
	return u, hash, nil
}

// SaveToken records an access token for a user.
func (s *Store) SaveToken(ctx context.Context, token string, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)`, token, userID, s.stamp())
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// UserByToken resolves an access token.
func (s *Store) UserByToken(ctx context.Context, token string) (domain.User, error) {
	var (
		u       domain.User
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.created_at
		FROM tokens t JOIN users u ON u.id = t.user_id
		WHERE t.token = ?`, token).Scan(&u.ID, &u.Username, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = parseStamp(created)
	return u, nil
}
