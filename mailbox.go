package webmail

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/emailapp/webmail/store"
)

// SendRequest contains the data needed to deliver a mail.
//
// Recipients may be user IDs or email addresses; each is resolved against
// the user directory before delivery. Duplicates after resolution collapse
// to a single recipient.
type SendRequest struct {
	Recipients     []string
	Subject        string
	Body           string
	HasAttachments bool
}

// MailSender provides mail delivery.
type MailSender interface {
	// Send delivers a mail to every recipient atomically: the mail row,
	// the sender's SENT entry, and one INBOX entry per recipient are all
	// committed together or not at all.
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
}

// SendResult describes a completed delivery.
type SendResult struct {
	// MailID identifies the delivered mail.
	MailID string
	// RecipientIDs are the resolved recipient user IDs.
	RecipientIDs []string
	// SentAt is the delivery timestamp shared by all entries.
	SentAt time.Time
}

// MailReader provides single mail retrieval.
type MailReader interface {
	// Get returns the caller's view of one mail.
	Get(ctx context.Context, mailID string) (*MailView, error)
}

// MailLister provides folder listings and counters.
type MailLister interface {
	Inbox(ctx context.Context, opts ListOptions) ([]MailView, error)
	Sent(ctx context.Context, opts ListOptions) ([]MailView, error)
	Trash(ctx context.Context, opts ListOptions) ([]MailView, error)
	Folder(ctx context.Context, folder Folder, opts ListOptions) ([]MailView, error)
	// UnreadCount counts the user's unread mail across every folder,
	// trash included.
	UnreadCount(ctx context.Context) (int64, error)
}

// MailMutator provides per-mail state changes.
type MailMutator interface {
	// MarkRead marks a mail as read. Safe to repeat: the recorded read
	// time is the first call's.
	MarkRead(ctx context.Context, mailID string) error
	// ToggleStar flips the starred flag and returns the new value.
	ToggleStar(ctx context.Context, mailID string) (bool, error)
	// SetStar sets the starred flag to an explicit value.
	SetStar(ctx context.Context, mailID string, starred bool) error
	// Delete advances the mail's delete state: active folders move to
	// trash, trash soft-deletes. Returns what happened.
	Delete(ctx context.Context, mailID string) (*DeleteResult, error)
}

// DeleteResult describes what a Delete call did.
type DeleteResult struct {
	// Trashed is true when the mail moved to the trash folder.
	Trashed bool
	// Purged is true when this call was the last participant's delete and
	// the mail was permanently removed for everyone.
	Purged bool
}

// Mailbox provides mail operations for a single user.
// This is the main interface for mailbox operations; obtain one from
// Service.Client.
//
// Composed of:
//   - MailSender: Delivery (Send)
//   - MailReader: Single mail access (Get)
//   - MailLister: Folder listings and unread counter
//   - MailMutator: Read/star/delete state changes
type Mailbox interface {
	UserID() string
	MailSender
	MailReader
	MailLister
	MailMutator
}

// userMailbox is a lightweight client bound to one user.
// It shares the service's connections and holds no state of its own.
type userMailbox struct {
	userID      string
	service     *service
	validUserID bool
}

// UserID returns the user this mailbox belongs to.
func (m *userMailbox) UserID() string {
	return m.userID
}

// checkAccess validates the client can perform operations.
func (m *userMailbox) checkAccess() error {
	if !m.validUserID {
		return ErrInvalidUserID
	}
	if atomic.LoadInt32(&m.service.state) != stateConnected {
		return ErrNotConnected
	}
	return nil
}

// listOptions clamps caller-supplied paging to the configured limits.
func (m *userMailbox) listOptions(opts ListOptions) store.ListOptions {
	o := m.service.opts
	if opts.Limit <= 0 {
		opts.Limit = o.defaultQueryLimit
	}
	if opts.Limit > o.maxQueryLimit {
		opts.Limit = o.maxQueryLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
