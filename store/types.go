package store

import (
	"time"
)

// Role describes a user's relationship to a mail.
type Role string

// Role constants.
const (
	RoleSender    Role = "SENDER"
	RoleRecipient Role = "RECIPIENT"
)

// Folder is a mailbox entry's current classification.
type Folder string

// System folders. The folder set is closed: every entry lives in exactly
// one of these.
const (
	FolderInbox Folder = "INBOX"
	FolderSent  Folder = "SENT"
	FolderTrash Folder = "TRASH"
)

// Valid reports whether f is a known folder.
func (f Folder) Valid() bool {
	switch f {
	case FolderInbox, FolderSent, FolderTrash:
		return true
	}
	return false
}

// Active reports whether f is an active (non-trash) folder.
// A Discard call moves entries in active folders to trash; entries already
// in trash get soft-deleted instead.
func (f Folder) Active() bool {
	return f == FolderInbox || f == FolderSent
}

// MailType tags a mail's kind. Only MailTypeNormal is produced today; the
// column exists so system notices can be distinguished later without a
// schema change.
type MailType string

// MailTypeNormal is the default type for user-authored mail.
const MailTypeNormal MailType = "NORMAL"

// User is an identity record in the user directory.
// Immutable after creation except for credential rotation, which is handled
// outside this package.
type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserData contains data for creating a new user.
type UserData struct {
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
}

// Mail is the immutable authored content of one sent communication.
// It is shared by every participant's mailbox entry and carries no per-user
// state. Per-user state (folder, read, starred, deleted) lives on Entry.
type Mail struct {
	ID             string    `db:"id"`
	SenderID       string    `db:"sender_id"`
	Subject        string    `db:"subject"`
	Body           string    `db:"body"`
	Type           MailType  `db:"mail_type"`
	HasAttachments bool      `db:"has_attachments"`
	SentAt         time.Time `db:"sent_at"`
}

// MailData contains data for creating a new mail.
// The ID and sent timestamp are assigned by the store.
type MailData struct {
	SenderID       string
	Subject        string
	Body           string
	Type           MailType
	HasAttachments bool
}

// Entry is one user's private, mutable view of a mail.
// Exactly one entry exists per (user, mail) pair for every participant in
// the send.
type Entry struct {
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"`
	MailID     string     `db:"mail_id"`
	Role       Role       `db:"mail_role"`
	Folder     Folder     `db:"folder"`
	IsRead     bool       `db:"is_read"`
	ReadAt     *time.Time `db:"read_at"`
	IsStarred  bool       `db:"is_starred"`
	IsDeleted  bool       `db:"is_deleted"`
	DeletedAt  *time.Time `db:"deleted_at"`
	ReceivedAt time.Time  `db:"received_at"`
}

// EntryData contains data for creating a mailbox entry during delivery.
// The sender's entry is created with Role=SENDER, Folder=SENT, IsRead=true;
// each recipient's with Role=RECIPIENT, Folder=INBOX, IsRead=false.
type EntryData struct {
	UserID string
	Role   Role
	Folder Folder
	IsRead bool
}

// MailView is a folder-listing projection: one entry joined with its mail
// body and the sender's identity.
type MailView struct {
	MailID      string     `db:"mail_id"`
	Subject     string     `db:"subject"`
	Body        string     `db:"body"`
	SenderName  string     `db:"sender_name"`
	SenderEmail string     `db:"sender_email"`
	SentAt      time.Time  `db:"sent_at"`
	Folder      Folder     `db:"folder"`
	Role        Role       `db:"mail_role"`
	IsRead      bool       `db:"is_read"`
	ReadAt      *time.Time `db:"read_at"`
	IsStarred   bool       `db:"is_starred"`
	ReceivedAt  time.Time  `db:"received_at"`
}
