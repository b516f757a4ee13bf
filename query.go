package webmail

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/emailapp/webmail/store"
)

// Get returns the caller's view of one mail: the shared content joined
// with the caller's private flags.
func (m *userMailbox) Get(ctx context.Context, mailID string) (*MailView, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	entry, err := m.service.store.GetEntry(ctx, m.userID, mailID)
	if err != nil {
		return nil, wrapStoreError(err)
	}

	mail, err := m.service.store.GetMail(ctx, entry.MailID)
	if err != nil {
		return nil, wrapStoreError(err)
	}

	view := &MailView{
		MailID:     mail.ID,
		Subject:    mail.Subject,
		Body:       mail.Body,
		SentAt:     mail.SentAt,
		Folder:     entry.Folder,
		Role:       entry.Role,
		IsRead:     entry.IsRead,
		ReadAt:     entry.ReadAt,
		IsStarred:  entry.IsStarred,
		ReceivedAt: entry.ReceivedAt,
	}

	if sender, err := m.service.store.GetUser(ctx, mail.SenderID); err == nil {
		view.SenderName = sender.DisplayName
		view.SenderEmail = sender.Email
	}

	return view, nil
}

// Inbox lists the user's inbox, newest first.
func (m *userMailbox) Inbox(ctx context.Context, opts ListOptions) ([]MailView, error) {
	return m.Folder(ctx, store.FolderInbox, opts)
}

// Sent lists the user's sent folder, newest first.
func (m *userMailbox) Sent(ctx context.Context, opts ListOptions) ([]MailView, error) {
	return m.Folder(ctx, store.FolderSent, opts)
}

// Trash lists the user's trash folder, newest first.
func (m *userMailbox) Trash(ctx context.Context, opts ListOptions) ([]MailView, error) {
	return m.Folder(ctx, store.FolderTrash, opts)
}

// Folder lists one folder of the user's mailbox, newest first.
func (m *userMailbox) Folder(ctx context.Context, folder Folder, opts ListOptions) ([]MailView, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	if !folder.Valid() {
		return nil, wrapStoreError(store.ErrInvalidFolder)
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.list",
		attribute.String("user_id", m.userID),
		attribute.String("folder", string(folder)),
	)
	start := time.Now()

	views, err := m.service.store.ListFolder(ctx, m.userID, folder, m.listOptions(opts))

	endSpan(err)
	m.service.otel.recordList(ctx, time.Since(start), string(folder), len(views), err)

	if err != nil {
		return nil, wrapStoreError(err)
	}
	return views, nil
}

// UnreadCount counts the user's unread mail across every folder. Mail in
// trash still counts until it is soft-deleted.
func (m *userMailbox) UnreadCount(ctx context.Context) (int64, error) {
	if err := m.checkAccess(); err != nil {
		return 0, err
	}

	count, err := m.service.store.UnreadCount(ctx, m.userID)
	if err != nil {
		return 0, wrapStoreError(err)
	}
	return count, nil
}
