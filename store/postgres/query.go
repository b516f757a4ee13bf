package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emailapp/webmail/store"
)

// DefaultListLimit is applied when no limit is given.
const DefaultListLimit = 50

func (s *Store) GetEntry(ctx context.Context, userID, mailID string) (*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(userID); err != nil {
		return nil, store.ErrInvalidID
	}
	if _, err := uuid.Parse(mailID); err != nil {
		return nil, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, user_id, mail_id, mail_role, folder, is_read, read_at,
		       is_starred, is_deleted, deleted_at, received_at
		FROM %s
		WHERE user_id = $1 AND mail_id = $2 AND NOT is_deleted
	`, s.opts.entriesTable)

	var entry store.Entry
	if err := s.db.GetContext(ctx, &entry, query, userID, mailID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	return &entry, nil
}

func (s *Store) ListFolder(ctx context.Context, userID string, folder store.Folder, opts store.ListOptions) ([]store.MailView, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(userID); err != nil {
		return nil, store.ErrInvalidID
	}
	if !folder.Valid() {
		return nil, store.ErrInvalidFolder
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := fmt.Sprintf(`
		SELECT m.id AS mail_id, m.subject, m.body,
		       u.display_name AS sender_name, u.email AS sender_email, m.sent_at,
		       e.folder, e.mail_role, e.is_read, e.read_at, e.is_starred, e.received_at
		FROM %s e
		JOIN %s m ON m.id = e.mail_id
		JOIN %s u ON u.id = m.sender_id
		WHERE e.user_id = $1 AND e.folder = $2 AND NOT e.is_deleted
		ORDER BY m.sent_at DESC
		LIMIT $3 OFFSET $4
	`, s.opts.entriesTable, s.opts.mailsTable, s.opts.usersTable)

	views := []store.MailView{}
	if err := s.db.SelectContext(ctx, &views, query, userID, folder, opts.Limit, opts.Offset); err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}

	return views, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	if _, err := uuid.Parse(userID); err != nil {
		return 0, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	// Counts across every folder, trash included. Only soft-deleted
	// entries fall out of the count.
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE user_id = $1 AND NOT is_read AND NOT is_deleted
	`, s.opts.entriesTable)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}

	return count, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, mailID string, readAt time.Time) error {
	if err := s.checkConnected(); err != nil {
		return err
	}

	if _, err := uuid.Parse(userID); err != nil {
		return store.ErrInvalidID
	}
	if _, err := uuid.Parse(mailID); err != nil {
		return store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	// COALESCE keeps the timestamp from the first call on repeats.
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE user_id = $1 AND mail_id = $2 AND NOT is_deleted
	`, s.opts.entriesTable)

	result, err := s.db.ExecContext(ctx, query, userID, mailID, readAt.UTC())
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) SetStarred(ctx context.Context, userID, mailID string, starred bool) error {
	if err := s.checkConnected(); err != nil {
		return err
	}

	if _, err := uuid.Parse(userID); err != nil {
		return store.ErrInvalidID
	}
	if _, err := uuid.Parse(mailID); err != nil {
		return store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_starred = $3
		WHERE user_id = $1 AND mail_id = $2 AND NOT is_deleted
	`, s.opts.entriesTable)

	result, err := s.db.ExecContext(ctx, query, userID, mailID, starred)
	if err != nil {
		return fmt.Errorf("set starred: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) ToggleStar(ctx context.Context, userID, mailID string) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	if _, err := uuid.Parse(userID); err != nil {
		return false, store.ErrInvalidID
	}
	if _, err := uuid.Parse(mailID); err != nil {
		return false, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_starred = NOT is_starred
		WHERE user_id = $1 AND mail_id = $2 AND NOT is_deleted
		RETURNING is_starred
	`, s.opts.entriesTable)

	var starred bool
	if err := s.db.QueryRowContext(ctx, query, userID, mailID).Scan(&starred); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, store.ErrNotFound
		}
		return false, fmt.Errorf("toggle star: %w", err)
	}

	return starred, nil
}
