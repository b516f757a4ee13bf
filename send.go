package webmail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/emailapp/webmail/store"
)

// Send delivers a mail to every recipient.
//
// Delivery is a single atomic write: the mail row, the sender's SENT
// entry (pre-marked read), and one unread INBOX entry per recipient all
// commit together. On any failure no rows exist and the caller can retry
// the whole request.
func (m *userMailbox) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	limits := m.service.opts.getLimits()

	// Validate before acquiring a send slot to avoid wasting one.
	if err := ValidateSubjectWithLimits(req.Subject, limits); err != nil {
		return nil, err
	}
	if err := ValidateBodyWithLimits(req.Body, limits); err != nil {
		return nil, err
	}
	if err := ValidateRecipients(req.Recipients, limits); err != nil {
		return nil, err
	}

	// Setup tracing
	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.send",
		attribute.String("user_id", m.userID),
		attribute.Int("recipient_count", len(req.Recipients)),
	)
	start := time.Now()
	var sendErr error
	defer func() {
		endSpan(sendErr)
		m.service.otel.recordSend(ctx, time.Since(start), len(req.Recipients), sendErr)
	}()

	if err := m.service.sendSem.Acquire(ctx, 1); err != nil {
		sendErr = err
		return nil, sendErr
	}
	defer m.service.sendSem.Release(1)

	// The sender must exist before any rows are written; a mailbox client
	// can be created for any ID.
	senderExists, err := m.service.store.UserExists(ctx, m.userID)
	if err != nil {
		// A malformed sender ID references no user.
		if errors.Is(err, store.ErrInvalidID) {
			sendErr = fmt.Errorf("%w: sender %s", ErrNotFound, m.userID)
			return nil, sendErr
		}
		sendErr = wrapStoreError(err)
		return nil, sendErr
	}
	if !senderExists {
		sendErr = fmt.Errorf("%w: sender %s", ErrNotFound, m.userID)
		return nil, sendErr
	}

	recipientIDs, err := m.resolveRecipients(ctx, req.Recipients)
	if err != nil {
		sendErr = err
		return nil, sendErr
	}

	entries := make([]store.EntryData, 0, len(recipientIDs)+1)
	entries = append(entries, store.EntryData{
		UserID: m.userID,
		Role:   store.RoleSender,
		Folder: store.FolderSent,
		IsRead: true,
	})
	for _, id := range recipientIDs {
		entries = append(entries, store.EntryData{
			UserID: id,
			Role:   store.RoleRecipient,
			Folder: store.FolderInbox,
			IsRead: false,
		})
	}

	mail, err := m.service.store.CreateMail(ctx, store.MailData{
		SenderID:       m.userID,
		Subject:        req.Subject,
		Body:           req.Body,
		Type:           store.MailTypeNormal,
		HasAttachments: req.HasAttachments,
	}, entries)
	if err != nil {
		sendErr = wrapStoreError(err)
		return nil, sendErr
	}

	m.service.logger.Info("mail delivered",
		"mail_id", mail.ID,
		"sender_id", m.userID,
		"recipients", len(recipientIDs),
	)

	// Publish event (best-effort, never fails the delivery)
	if pubErr := m.service.events.MailSent.Publish(ctx, MailSentEvent{
		MailID:       mail.ID,
		SenderID:     m.userID,
		RecipientIDs: recipientIDs,
		Subject:      mail.Subject,
		SentAt:       mail.SentAt,
	}); pubErr != nil {
		m.service.opts.safeEventPublishFailure("MailSent", pubErr)
	}

	return &SendResult{
		MailID:       mail.ID,
		RecipientIDs: recipientIDs,
		SentAt:       mail.SentAt,
	}, nil
}

// resolveRecipients maps raw recipient strings (user IDs or email
// addresses) to unique user IDs, rejecting unknown recipients and the
// sender themself.
func (m *userMailbox) resolveRecipients(ctx context.Context, recipients []string) ([]string, error) {
	seen := make(map[string]bool, len(recipients))
	resolved := make([]string, 0, len(recipients))

	for _, raw := range recipients {
		raw = strings.TrimSpace(raw)

		var id string
		if looksLikeEmail(raw) {
			user, err := m.service.store.GetUserByEmail(ctx, raw)
			if err != nil {
				if store.IsNotFound(err) {
					return nil, fmt.Errorf("%w: %s", ErrUnknownRecipient, raw)
				}
				return nil, wrapStoreError(err)
			}
			id = user.ID
		} else {
			exists, err := m.service.store.UserExists(ctx, raw)
			if err != nil {
				// A malformed ID is just a recipient nobody has.
				if errors.Is(err, store.ErrInvalidID) {
					return nil, fmt.Errorf("%w: %s", ErrUnknownRecipient, raw)
				}
				return nil, wrapStoreError(err)
			}
			if !exists {
				return nil, fmt.Errorf("%w: %s", ErrUnknownRecipient, raw)
			}
			id = raw
		}

		if id == m.userID {
			return nil, ErrSelfSend
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		resolved = append(resolved, id)
	}

	if len(resolved) == 0 {
		return nil, ErrEmptyRecipients
	}

	return resolved, nil
}
