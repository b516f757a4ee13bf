package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/emailapp/webmail/store"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *Store) CreateUser(ctx context.Context, data store.UserData) (*store.User, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	user := &store.User{
		ID:           uuid.New().String(),
		Username:     data.Username,
		Email:        data.Email,
		DisplayName:  data.DisplayName,
		PasswordHash: data.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, username, email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.opts.usersTable)

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.DisplayName, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, username, email, display_name, password_hash, created_at
		FROM %s
		WHERE id = $1
	`, s.opts.usersTable)

	var user store.User
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, username, email, display_name, password_hash, created_at
		FROM %s
		WHERE LOWER(username) = LOWER($1)
	`, s.opts.usersTable)

	var user store.User
	if err := s.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, username, email, display_name, password_hash, created_at
		FROM %s
		WHERE LOWER(email) = LOWER($1)
	`, s.opts.usersTable)

	var user store.User
	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	if _, err := uuid.Parse(id); err != nil {
		return false, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, s.opts.usersTable)

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}

	return exists, nil
}
