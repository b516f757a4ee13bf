// Package store provides interfaces and types for webmail storage.
// Implementations are in the store/postgres and store/memory subpackages.
//
// # Architectural Principle: Database-Level Atomicity
//
// The two operations with real invariants, mail delivery fan-out and the
// delete/garbage-collection transition, must be atomic. Implementations
// handle this with database transactions and row-level locking, never with
// external coordination:
//
//  1. CreateMail inserts the mail row and every mailbox entry in a single
//     transaction. A failure anywhere leaves zero rows behind.
//
//  2. Discard serializes the folder transition and the subsequent
//     reference-count scan per mail (PostgreSQL: SELECT ... FOR UPDATE on the
//     mail's entry rows). Two concurrent "last deleter" calls cannot both
//     purge; the loser observes the purge already happened and succeeds as a
//     no-op.
//
//  3. Uniqueness of (user_id, mail_id) across entries is enforced by a unique
//     constraint, not by check-then-insert.
package store

import (
	"context"
	"time"
)

// Store is the storage interface for the webmail backend.
//
// All operations must be safe for concurrent use. Implementations must use
// database-level atomicity (transactions, row locks) rather than external
// locking mechanisms. See package documentation for details.
type Store interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	// User directory records
	UserStore

	// Immutable mail bodies
	MailStore

	// Per-user mailbox ledger
	EntryStore
}

// UserStore provides operations for user identity records.
type UserStore interface {
	// CreateUser persists a new user.
	// Returns ErrDuplicateEntry if the username or email is already taken.
	CreateUser(ctx context.Context, data UserData) (*User, error)

	// GetUser retrieves a user by ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UserExists reports whether a user with the given ID exists.
	UserExists(ctx context.Context, id string) (bool, error)
}

// MailStore provides operations for immutable mail rows.
// A mail row is created exactly once, at send time, together with its
// mailbox entries. It is never updated; it is removed only by Discard's
// garbage collection once every entry referencing it is soft-deleted.
type MailStore interface {
	// CreateMail atomically persists one mail row and all of its mailbox
	// entries in a single transaction.
	//
	// This operation MUST be all-or-nothing. If any insert fails, no rows
	// are committed and the caller can safely retry the entire send.
	CreateMail(ctx context.Context, data MailData, entries []EntryData) (*Mail, error)

	// GetMail retrieves a mail by ID.
	// Returns ErrNotFound if the mail doesn't exist (including after purge).
	GetMail(ctx context.Context, id string) (*Mail, error)
}

// EntryStore provides operations for the per-user mailbox ledger.
// Every entry is keyed by the (user, mail) pair, which is unique.
type EntryStore interface {
	// GetEntry retrieves the unique entry for (userID, mailID).
	// Returns ErrNotFound if absent or soft-deleted.
	GetEntry(ctx context.Context, userID, mailID string) (*Entry, error)

	// ListFolder returns the user's non-deleted entries in the given folder,
	// joined with the mail body and sender identity, sorted by sent time
	// descending.
	ListFolder(ctx context.Context, userID string, folder Folder, opts ListOptions) ([]MailView, error)

	// UnreadCount returns the number of non-deleted unread entries for the
	// user across all folders.
	UnreadCount(ctx context.Context, userID string) (int64, error)

	// MarkRead sets the entry's read flag. Idempotent: the read timestamp is
	// assigned on the first call and preserved on repeats.
	// Returns ErrNotFound if the entry is absent or soft-deleted.
	MarkRead(ctx context.Context, userID, mailID string, readAt time.Time) error

	// SetStarred sets the entry's starred flag to the given value.
	SetStarred(ctx context.Context, userID, mailID string, starred bool) error

	// ToggleStar atomically flips the entry's starred flag and returns the
	// new value.
	ToggleStar(ctx context.Context, userID, mailID string) (bool, error)

	// Discard advances the entry's delete state machine and evaluates
	// garbage collection for the underlying mail, all within one
	// transaction serialized per mail:
	//
	//   - folder INBOX or SENT: move the entry to TRASH
	//   - folder TRASH: soft-delete the entry (isDeleted=true, deletedAt set)
	//
	// After the transition, if every entry referencing the mail is
	// soft-deleted, the mail row and all of its entries are permanently
	// removed. A mail that is already gone is treated as purged, not as an
	// error.
	//
	// Returns ErrNotFound if no entry exists for (userID, mailID).
	Discard(ctx context.Context, userID, mailID string) (*DiscardResult, error)
}

// DiscardResult describes what a Discard call did.
type DiscardResult struct {
	// Trashed is true when the entry moved from an active folder to trash.
	Trashed bool
	// SoftDeleted is true when the entry was marked deleted from trash.
	SoftDeleted bool
	// MailPurged is true when this call removed the mail row and all of its
	// entries (the caller was the last participant holding a live view).
	MailPurged bool
}

// ListOptions configures folder listings.
type ListOptions struct {
	Limit  int
	Offset int
}
