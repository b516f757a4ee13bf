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

// CreateMail inserts the mail row and every mailbox entry in one
// transaction. Either all rows commit or none do.
func (s *Store) CreateMail(ctx context.Context, data store.MailData, entries []store.EntryData) (*store.Mail, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, store.ErrEmptyEntries
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	now := time.Now().UTC()
	mail := &store.Mail{
		ID:             uuid.New().String(),
		SenderID:       data.SenderID,
		Subject:        data.Subject,
		Body:           data.Body,
		Type:           data.Type,
		HasAttachments: data.HasAttachments,
		SentAt:         now,
	}
	if mail.Type == "" {
		mail.Type = store.MailTypeNormal
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	insertMail := fmt.Sprintf(`
		INSERT INTO %s (id, sender_id, subject, body, mail_type, has_attachments, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.opts.mailsTable)

	if _, err := tx.ExecContext(ctx, insertMail,
		mail.ID, mail.SenderID, mail.Subject, mail.Body, mail.Type, mail.HasAttachments, mail.SentAt,
	); err != nil {
		return nil, fmt.Errorf("insert mail: %w", err)
	}

	insertEntry := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, mail_id, mail_role, folder, is_read, read_at, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.opts.entriesTable)

	// Pre-read entries (the sender's) carry no read timestamp; read_at
	// records an explicit MarkRead only.
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, insertEntry,
			uuid.New().String(), e.UserID, mail.ID, e.Role, e.Folder, e.IsRead, nil, now,
		); err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrDuplicateEntry
			}
			return nil, fmt.Errorf("insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}

	return mail, nil
}

// GetMail retrieves a mail by ID.
func (s *Store) GetMail(ctx context.Context, id string) (*store.Mail, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, sender_id, subject, body, mail_type, has_attachments, sent_at
		FROM %s
		WHERE id = $1
	`, s.opts.mailsTable)

	var mail store.Mail
	if err := s.db.GetContext(ctx, &mail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get mail: %w", err)
	}

	return &mail, nil
}
