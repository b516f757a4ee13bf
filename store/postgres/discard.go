package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/emailapp/webmail/store"
)

// Discard advances one entry's delete state and garbage-collects the mail
// once every entry referencing it is soft-deleted.
//
// The whole operation runs in a single transaction. The opening
// SELECT ... FOR UPDATE locks every entry row of the mail, which serializes
// concurrent Discard calls for the same mail: a second caller blocks until
// the first commits, then sees the committed state. Two "last deleter"
// races therefore resolve to exactly one purge.
func (s *Store) Discard(ctx context.Context, userID, mailID string) (*store.DiscardResult, error) {
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

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lock := fmt.Sprintf(`
		SELECT user_id, folder, is_deleted
		FROM %s
		WHERE mail_id = $1
		FOR UPDATE
	`, s.opts.entriesTable)

	rows, err := tx.QueryContext(ctx, lock, mailID)
	if err != nil {
		return nil, fmt.Errorf("lock entries: %w", err)
	}

	type entryState struct {
		userID    string
		folder    store.Folder
		isDeleted bool
	}
	var states []entryState
	for rows.Next() {
		var es entryState
		if err := rows.Scan(&es.userID, &es.folder, &es.isDeleted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		states = append(states, es)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close rows: %w", err)
	}

	var caller *entryState
	for i := range states {
		if states[i].userID == userID {
			caller = &states[i]
			break
		}
	}
	if caller == nil || caller.isDeleted {
		return nil, store.ErrNotFound
	}

	result := &store.DiscardResult{}
	now := time.Now().UTC()

	if caller.folder.Active() {
		move := fmt.Sprintf(`
			UPDATE %s SET folder = $3
			WHERE user_id = $1 AND mail_id = $2 AND NOT is_deleted
		`, s.opts.entriesTable)
		if _, err := tx.ExecContext(ctx, move, userID, mailID, store.FolderTrash); err != nil {
			return nil, fmt.Errorf("move to trash: %w", err)
		}
		result.Trashed = true
	} else {
		softDelete := fmt.Sprintf(`
			UPDATE %s SET is_deleted = TRUE, deleted_at = $3
			WHERE user_id = $1 AND mail_id = $2 AND NOT is_deleted
		`, s.opts.entriesTable)
		if _, err := tx.ExecContext(ctx, softDelete, userID, mailID, now); err != nil {
			return nil, fmt.Errorf("soft delete: %w", err)
		}
		result.SoftDeleted = true
		caller.isDeleted = true

		allDeleted := true
		for i := range states {
			if !states[i].isDeleted {
				allDeleted = false
				break
			}
		}
		if allDeleted {
			if err := s.purgeMail(ctx, tx, mailID); err != nil {
				return nil, err
			}
			result.MailPurged = true
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}

	return result, nil
}

// purgeMail removes the mail row and all of its entries inside tx.
// A mail row that is already gone counts as purged.
func (s *Store) purgeMail(ctx context.Context, tx *sqlx.Tx, mailID string) error {
	deleteEntries := fmt.Sprintf(`DELETE FROM %s WHERE mail_id = $1`, s.opts.entriesTable)
	if _, err := tx.ExecContext(ctx, deleteEntries, mailID); err != nil {
		return fmt.Errorf("purge entries: %w", err)
	}

	deleteMail := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.opts.mailsTable)
	if _, err := tx.ExecContext(ctx, deleteMail, mailID); err != nil {
		return fmt.Errorf("purge mail: %w", err)
	}

	return nil
}
