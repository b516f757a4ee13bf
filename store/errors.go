package store

import "errors"

// Sentinel errors for the store package.
var (
	// ErrNotFound is returned when a user, mail, or mailbox entry cannot be found.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidID is returned when an invalid ID is provided.
	ErrInvalidID = errors.New("store: invalid id")

	// ErrDuplicateEntry is returned when a unique constraint is violated
	// (duplicate username/email, or a second entry for a (user, mail) pair).
	ErrDuplicateEntry = errors.New("store: duplicate entry")

	// ErrNotConnected is returned when operations are attempted before Connect().
	ErrNotConnected = errors.New("store: not connected")

	// ErrAlreadyConnected is returned when Connect() is called twice.
	ErrAlreadyConnected = errors.New("store: already connected")

	// ErrEmptyEntries is returned when CreateMail is called with no entries.
	ErrEmptyEntries = errors.New("store: empty entries")

	// ErrInvalidFolder is returned when an unknown folder is provided.
	ErrInvalidFolder = errors.New("store: invalid folder")

	// ErrTransactionFailed is returned when a database transaction fails.
	// This indicates the atomic operation could not complete and no changes
	// were made.
	ErrTransactionFailed = errors.New("store: transaction failed")
)

// Error checking helpers.

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}
