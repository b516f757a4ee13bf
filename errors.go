package webmail

import (
	"errors"
	"fmt"

	"github.com/emailapp/webmail/store"
)

// Sentinel errors for the webmail package.
// Use errors.Is() to check for these errors.
//
// Errors fall into four families, which the HTTP adapter maps to status
// codes: not-found, invalid-argument, conflict, and internal. Family
// sentinels wrap corresponding store-level errors where applicable, so
// errors.Is(err, webmail.ErrNotFound) matches both webmail-level and
// store-level "not found" errors.
var (
	// ErrNotFound is returned when a user, mail, or mailbox entry cannot
	// be found. A soft-deleted entry is indistinguishable from one that
	// never existed.
	// Wraps store.ErrNotFound for consistent error checking.
	ErrNotFound = fmt.Errorf("webmail: %w", store.ErrNotFound)

	// ErrInvalidArgument is returned when request input fails validation.
	ErrInvalidArgument = errors.New("webmail: invalid argument")

	// ErrConflict is returned when a request contradicts current state,
	// such as a duplicate username or email at signup.
	// Wraps store.ErrDuplicateEntry for consistent error checking.
	ErrConflict = fmt.Errorf("webmail: conflict: %w", store.ErrDuplicateEntry)

	// ErrInternal is returned for unexpected storage or infrastructure
	// failures. The underlying cause is logged, not exposed.
	ErrInternal = errors.New("webmail: internal error")

	// ErrStoreRequired is returned when no store is configured.
	ErrStoreRequired = errors.New("webmail: store is required")

	// ErrNotConnected is returned when operations are attempted before Connect().
	// Wraps store.ErrNotConnected for consistent error checking.
	ErrNotConnected = fmt.Errorf("webmail: %w", store.ErrNotConnected)

	// ErrAlreadyConnected is returned when Connect() is called twice.
	// Wraps store.ErrAlreadyConnected for consistent error checking.
	ErrAlreadyConnected = fmt.Errorf("webmail: %w", store.ErrAlreadyConnected)

	// ErrInvalidUserID is returned when a user ID is empty or malformed.
	ErrInvalidUserID = fmt.Errorf("%w: invalid user id", ErrInvalidArgument)

	// ErrInvalidMailID is returned when a mail ID is empty or malformed.
	ErrInvalidMailID = fmt.Errorf("%w: invalid mail id", ErrInvalidArgument)

	// ErrEmptyRecipients is returned when a send names no recipients.
	ErrEmptyRecipients = fmt.Errorf("%w: no recipients", ErrInvalidArgument)

	// ErrEmptySubject is returned when a send has an empty subject.
	ErrEmptySubject = fmt.Errorf("%w: empty subject", ErrInvalidArgument)

	// ErrSubjectTooLong is returned when subject exceeds the configured limit.
	ErrSubjectTooLong = fmt.Errorf("%w: subject too long", ErrInvalidArgument)

	// ErrBodyTooLarge is returned when body exceeds the configured limit.
	ErrBodyTooLarge = fmt.Errorf("%w: body too large", ErrInvalidArgument)

	// ErrTooManyRecipients is returned when recipient count exceeds the limit.
	ErrTooManyRecipients = fmt.Errorf("%w: too many recipients", ErrInvalidArgument)

	// ErrSelfSend is returned when the sender appears in the recipient
	// list. Each participant holds exactly one entry per mail, so the
	// sender cannot also receive a copy.
	ErrSelfSend = fmt.Errorf("%w: sender cannot be a recipient", ErrInvalidArgument)

	// ErrUnknownRecipient is returned when a recipient cannot be resolved
	// to a registered user. Classifies as not found.
	ErrUnknownRecipient = fmt.Errorf("%w: unknown recipient", ErrNotFound)

	// ErrUsernameTaken is returned at signup when the username is in use.
	ErrUsernameTaken = fmt.Errorf("%w: username taken", ErrConflict)

	// ErrEmailTaken is returned at signup when the email is in use.
	ErrEmailTaken = fmt.Errorf("%w: email taken", ErrConflict)

	// ErrInvalidCredentials is returned when authentication fails. The
	// same error covers unknown username and wrong password.
	ErrInvalidCredentials = errors.New("webmail: invalid credentials")
)

// wrapStoreError converts store-level errors into the package error
// families. Unrecognized errors become ErrInternal with the cause attached
// for logging.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrInvalidID):
		return ErrInvalidMailID
	case errors.Is(err, store.ErrDuplicateEntry):
		return ErrConflict
	case errors.Is(err, store.ErrInvalidFolder):
		return fmt.Errorf("%w: invalid folder", ErrInvalidArgument)
	case errors.Is(err, store.ErrNotConnected):
		return ErrNotConnected
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

// IsNotFound checks if an error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// IsInvalidArgument checks if an error indicates rejected input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsConflict checks if an error indicates a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, store.ErrDuplicateEntry)
}
