package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/emailapp/webmail/store"
)

// =============================================================================
// Mail Operations
// =============================================================================

func (s *Store) CreateMail(_ context.Context, data store.MailData, entries []store.EntryData) (*store.Mail, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, store.ErrEmptyEntries
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reject duplicates before touching anything so a failure leaves no
	// partial state behind.
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.UserID] {
			return nil, store.ErrDuplicateEntry
		}
		seen[e.UserID] = true
	}

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

	byUser := make(map[string]*store.Entry, len(entries))
	for _, e := range entries {
		// Pre-read entries (the sender's) carry no read timestamp; ReadAt
		// records an explicit MarkRead only.
		entry := &store.Entry{
			ID:         uuid.New().String(),
			UserID:     e.UserID,
			MailID:     mail.ID,
			Role:       e.Role,
			Folder:     e.Folder,
			IsRead:     e.IsRead,
			ReceivedAt: now,
		}
		byUser[e.UserID] = entry
	}

	s.mails[mail.ID] = mail
	s.entries[mail.ID] = byUser

	clone := *mail
	return &clone, nil
}

func (s *Store) GetMail(_ context.Context, id string) (*store.Mail, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	mail, ok := s.mails[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	clone := *mail
	return &clone, nil
}

// =============================================================================
// Entry Operations
// =============================================================================

// liveEntry returns the entry for (userID, mailID) if present and not
// soft-deleted. Caller must hold the lock.
func (s *Store) liveEntry(userID, mailID string) (*store.Entry, bool) {
	byUser, ok := s.entries[mailID]
	if !ok {
		return nil, false
	}
	entry, ok := byUser[userID]
	if !ok || entry.IsDeleted {
		return nil, false
	}
	return entry, true
}

func (s *Store) GetEntry(_ context.Context, userID, mailID string) (*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.liveEntry(userID, mailID)
	if !ok {
		return nil, store.ErrNotFound
	}

	clone := *entry
	return &clone, nil
}

func (s *Store) ListFolder(_ context.Context, userID string, folder store.Folder, opts store.ListOptions) ([]store.MailView, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if !folder.Valid() {
		return nil, store.ErrInvalidFolder
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	views := []store.MailView{}
	for mailID, byUser := range s.entries {
		entry, ok := byUser[userID]
		if !ok || entry.IsDeleted || entry.Folder != folder {
			continue
		}
		mail := s.mails[mailID]
		if mail == nil {
			continue
		}
		view := store.MailView{
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
		if sender, ok := s.users[mail.SenderID]; ok {
			view.SenderName = sender.DisplayName
			view.SenderEmail = sender.Email
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].SentAt.After(views[j].SentAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(views) {
			return []store.MailView{}, nil
		}
		views = views[opts.Offset:]
	}
	if opts.Limit > 0 && len(views) > opts.Limit {
		views = views[:opts.Limit]
	}

	return views, nil
}

func (s *Store) UnreadCount(_ context.Context, userID string) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, byUser := range s.entries {
		entry, ok := byUser[userID]
		if ok && !entry.IsDeleted && !entry.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkRead(_ context.Context, userID, mailID string, readAt time.Time) error {
	if err := s.checkConnected(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.liveEntry(userID, mailID)
	if !ok {
		return store.ErrNotFound
	}

	entry.IsRead = true
	if entry.ReadAt == nil {
		t := readAt.UTC()
		entry.ReadAt = &t
	}
	return nil
}

func (s *Store) SetStarred(_ context.Context, userID, mailID string, starred bool) error {
	if err := s.checkConnected(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.liveEntry(userID, mailID)
	if !ok {
		return store.ErrNotFound
	}

	entry.IsStarred = starred
	return nil
}

func (s *Store) ToggleStar(_ context.Context, userID, mailID string) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.liveEntry(userID, mailID)
	if !ok {
		return false, store.ErrNotFound
	}

	entry.IsStarred = !entry.IsStarred
	return entry.IsStarred, nil
}

func (s *Store) Discard(_ context.Context, userID, mailID string) (*store.DiscardResult, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.liveEntry(userID, mailID)
	if !ok {
		return nil, store.ErrNotFound
	}

	result := &store.DiscardResult{}

	if entry.Folder.Active() {
		entry.Folder = store.FolderTrash
		result.Trashed = true
		return result, nil
	}

	now := time.Now().UTC()
	entry.IsDeleted = true
	entry.DeletedAt = &now
	result.SoftDeleted = true

	allDeleted := true
	for _, e := range s.entries[mailID] {
		if !e.IsDeleted {
			allDeleted = false
			break
		}
	}
	if allDeleted {
		delete(s.entries, mailID)
		delete(s.mails, mailID)
		result.MailPurged = true
	}

	return result, nil
}
