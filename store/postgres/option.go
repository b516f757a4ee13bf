package postgres

import (
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultUsersTable   = "users"
	DefaultMailsTable   = "mails"
	DefaultEntriesTable = "user_mailbox"
	DefaultTimeout      = 10 * time.Second
)

// options holds PostgreSQL store configuration.
type options struct {
	usersTable   string
	mailsTable   string
	entriesTable string
	timeout      time.Duration
	logger       *slog.Logger
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		usersTable:   DefaultUsersTable,
		mailsTable:   DefaultMailsTable,
		entriesTable: DefaultEntriesTable,
		timeout:      DefaultTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures the PostgreSQL store.
type Option func(*options)

// WithTablePrefix prefixes all table names, for sharing a database between
// deployments.
func WithTablePrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.usersTable = prefix + DefaultUsersTable
			o.mailsTable = prefix + DefaultMailsTable
			o.entriesTable = prefix + DefaultEntriesTable
		}
	}
}

// WithTimeout sets the per-operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
