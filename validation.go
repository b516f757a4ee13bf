package webmail

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// MailLimits holds mail validation limits.
type MailLimits struct {
	MaxSubjectLength  int
	MaxBodySize       int
	MaxRecipientCount int
}

// MinSubjectLength is the minimum subject length (non-empty after trimming).
const MinSubjectLength = 1

// DefaultLimits returns the default mail limits.
func DefaultLimits() MailLimits {
	return MailLimits{
		MaxSubjectLength:  DefaultMaxSubjectLength,
		MaxBodySize:       DefaultMaxBodySize,
		MaxRecipientCount: DefaultMaxRecipientCount,
	}
}

func (o *options) getLimits() MailLimits {
	return MailLimits{
		MaxSubjectLength:  o.maxSubjectLength,
		MaxBodySize:       o.maxBodySize,
		MaxRecipientCount: o.maxRecipientCount,
	}
}

// ValidateSubject validates a mail subject using default limits.
// For configurable limits, use ValidateSubjectWithLimits.
func ValidateSubject(subject string) error {
	return ValidateSubjectWithLimits(subject, DefaultLimits())
}

// ValidateSubjectWithLimits validates a mail subject against configurable limits.
func ValidateSubjectWithLimits(subject string, limits MailLimits) error {
	trimmed := strings.TrimSpace(subject)
	if len(trimmed) < MinSubjectLength {
		return ErrEmptySubject
	}
	if len(subject) > limits.MaxSubjectLength {
		return fmt.Errorf("%w: subject length %d exceeds max %d", ErrSubjectTooLong, len(subject), limits.MaxSubjectLength)
	}
	if !utf8.ValidString(subject) {
		return fmt.Errorf("%w: subject is not valid UTF-8", ErrInvalidArgument)
	}
	return nil
}

// ValidateBody validates a mail body using default limits.
func ValidateBody(body string) error {
	return ValidateBodyWithLimits(body, DefaultLimits())
}

// ValidateBodyWithLimits validates a mail body against configurable limits.
func ValidateBodyWithLimits(body string, limits MailLimits) error {
	if len(body) > limits.MaxBodySize {
		return fmt.Errorf("%w: body size %d exceeds max %d bytes", ErrBodyTooLarge, len(body), limits.MaxBodySize)
	}
	if !utf8.ValidString(body) {
		return fmt.Errorf("%w: body is not valid UTF-8", ErrInvalidArgument)
	}
	return nil
}

// ValidateRecipients validates a raw recipient list before resolution.
func ValidateRecipients(recipients []string, limits MailLimits) error {
	if len(recipients) == 0 {
		return ErrEmptyRecipients
	}
	if len(recipients) > limits.MaxRecipientCount {
		return fmt.Errorf("%w: recipient count %d exceeds max %d", ErrTooManyRecipients, len(recipients), limits.MaxRecipientCount)
	}
	for _, r := range recipients {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("%w: empty recipient", ErrInvalidArgument)
		}
	}
	return nil
}

// isValidUserID checks if a user ID is valid.
// Valid user IDs are non-empty and contain only safe characters.
// This prevents cache key injection and other security issues.
func isValidUserID(userID string) bool {
	if userID == "" {
		return false
	}
	// Allow alphanumeric, hyphen, underscore, period, at-sign
	// Disallow: *, :, /, \, spaces, and control characters
	for _, c := range userID {
		if c == '*' || c == ':' || c == '/' || c == '\\' ||
			c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
			c < 32 || c == 127 {
			return false
		}
	}
	return true
}

// looksLikeEmail reports whether s parses as an address, used to decide
// between ID and email lookup when resolving recipients.
func looksLikeEmail(s string) bool {
	if !strings.Contains(s, "@") {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}

// validateUsername checks signup usernames.
func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 64 {
		return fmt.Errorf("%w: username must be 3-64 characters", ErrInvalidArgument)
	}
	for _, c := range username {
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') &&
			!(c >= '0' && c <= '9') && c != '-' && c != '_' && c != '.' {
			return fmt.Errorf("%w: username contains invalid characters", ErrInvalidArgument)
		}
	}
	return nil
}

// validateEmail checks signup email addresses.
func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrInvalidArgument)
	}
	return nil
}
