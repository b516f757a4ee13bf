package webmail

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// MarkRead marks a mail as read for this user.
//
// Safe to repeat: the stored read timestamp is the first call's and later
// calls change nothing. The MailRead event is published when the call
// observes the entry unread, so a repeat call publishes nothing but
// concurrent first reads may each publish. See MailReadEvent.
func (m *userMailbox) MarkRead(ctx context.Context, mailID string) error {
	if err := m.checkAccess(); err != nil {
		return err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.mark_read",
		attribute.String("user_id", m.userID),
		attribute.String("mail_id", mailID),
	)
	start := time.Now()
	var opErr error
	defer func() {
		endSpan(opErr)
		m.service.otel.recordUpdate(ctx, time.Since(start), "mark_read", opErr)
	}()

	entry, err := m.service.store.GetEntry(ctx, m.userID, mailID)
	if err != nil {
		opErr = wrapStoreError(err)
		return opErr
	}
	wasRead := entry.IsRead

	now := time.Now().UTC()
	if err := m.service.store.MarkRead(ctx, m.userID, mailID, now); err != nil {
		opErr = wrapStoreError(err)
		return opErr
	}

	if !wasRead {
		if pubErr := m.service.events.MailRead.Publish(ctx, MailReadEvent{
			MailID: mailID,
			UserID: m.userID,
			ReadAt: now,
		}); pubErr != nil {
			m.service.opts.safeEventPublishFailure("MailRead", pubErr)
		}
	}

	return nil
}

// ToggleStar flips the starred flag and returns the new value.
func (m *userMailbox) ToggleStar(ctx context.Context, mailID string) (bool, error) {
	if err := m.checkAccess(); err != nil {
		return false, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.toggle_star",
		attribute.String("user_id", m.userID),
		attribute.String("mail_id", mailID),
	)
	start := time.Now()

	starred, err := m.service.store.ToggleStar(ctx, m.userID, mailID)

	endSpan(err)
	m.service.otel.recordUpdate(ctx, time.Since(start), "toggle_star", err)

	if err != nil {
		return false, wrapStoreError(err)
	}
	return starred, nil
}

// SetStar sets the starred flag to an explicit value. Idempotent.
func (m *userMailbox) SetStar(ctx context.Context, mailID string, starred bool) error {
	if err := m.checkAccess(); err != nil {
		return err
	}

	if err := m.service.store.SetStarred(ctx, m.userID, mailID, starred); err != nil {
		return wrapStoreError(err)
	}
	return nil
}

// Delete advances the mail's delete state for this user.
//
// First delete moves the entry to trash; a second delete from trash
// soft-deletes it, removing it from every listing and count. When the
// last participant soft-deletes, the shared mail is permanently removed
// and MailPurged is published. The store serializes the transition and
// the purge decision per mail, so concurrent last deleters produce
// exactly one purge.
func (m *userMailbox) Delete(ctx context.Context, mailID string) (*DeleteResult, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.delete",
		attribute.String("user_id", m.userID),
		attribute.String("mail_id", mailID),
	)
	start := time.Now()
	var opErr error
	var purged bool
	defer func() {
		endSpan(opErr)
		m.service.otel.recordDelete(ctx, time.Since(start), purged, opErr)
	}()

	res, err := m.service.store.Discard(ctx, m.userID, mailID)
	if err != nil {
		opErr = wrapStoreError(err)
		return nil, opErr
	}
	purged = res.MailPurged

	if res.MailPurged {
		m.service.logger.Info("mail purged",
			"mail_id", mailID,
			"last_deleter", m.userID,
		)
		if pubErr := m.service.events.MailPurged.Publish(ctx, MailPurgedEvent{
			MailID:   mailID,
			UserID:   m.userID,
			PurgedAt: time.Now().UTC(),
		}); pubErr != nil {
			m.service.opts.safeEventPublishFailure("MailPurged", pubErr)
		}
	}

	return &DeleteResult{
		Trashed: res.Trashed,
		Purged:  res.MailPurged,
	}, nil
}
