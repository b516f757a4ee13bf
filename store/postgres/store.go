// Package postgres provides a PostgreSQL implementation of store.Store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/emailapp/webmail/store"
)

// Compile-time check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL.
type Store struct {
	db        *sqlx.DB
	opts      *options
	connected int32
	logger    *slog.Logger
}

// New creates a new PostgreSQL store with the provided database connection.
// Call Connect() to initialize the schema and indexes.
func New(db *sqlx.DB, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{
		db:     db,
		opts:   o,
		logger: o.logger,
	}
}

// NewFromDB creates a new PostgreSQL store from a standard sql.DB connection.
// This wraps the sql.DB with sqlx for enhanced functionality.
func NewFromDB(db *sql.DB, opts ...Option) *Store {
	return New(sqlx.NewDb(db, "postgres"), opts...)
}

// Connect initializes the schema and indexes.
func (s *Store) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return store.ErrAlreadyConnected
	}

	if s.db == nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("postgres: db is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("postgres ping: %w", err)
	}

	if err := s.ensureSchema(ctx); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.logger.Info("connected to PostgreSQL",
		"users", s.opts.usersTable,
		"mails", s.opts.mailsTable,
		"entries", s.opts.entriesTable)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the database connection.
func (s *Store) Close(ctx context.Context) error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return nil
	}
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

// ensureSchema creates the required tables and indexes.
func (s *Store) ensureSchema(ctx context.Context) error {
	createUsers := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			email VARCHAR(255) NOT NULL,
			display_name VARCHAR(128) NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.opts.usersTable)

	createMails := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			sender_id UUID NOT NULL REFERENCES %s(id),
			subject TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			mail_type VARCHAR(32) NOT NULL DEFAULT 'NORMAL',
			has_attachments BOOLEAN NOT NULL DEFAULT FALSE,
			sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.opts.mailsTable, s.opts.usersTable)

	createEntries := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES %s(id),
			mail_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			mail_role VARCHAR(16) NOT NULL,
			folder VARCHAR(16) NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			read_at TIMESTAMPTZ,
			is_starred BOOLEAN NOT NULL DEFAULT FALSE,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at TIMESTAMPTZ,
			received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.opts.entriesTable, s.opts.usersTable, s.opts.mailsTable)

	for _, ddl := range []string{createUsers, createMails, createEntries} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// Uniqueness constraints the write paths rely on.
	uniques := []string{
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_username ON %s(LOWER(username))`, s.opts.usersTable, s.opts.usersTable),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_email ON %s(LOWER(email))`, s.opts.usersTable, s.opts.usersTable),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_user_mail ON %s(user_id, mail_id)`, s.opts.entriesTable, s.opts.entriesTable),
	}
	for _, idx := range uniques {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create unique index: %w", err)
		}
	}

	// Secondary indexes
	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_user_folder ON %s(user_id, folder) WHERE NOT is_deleted`, s.opts.entriesTable, s.opts.entriesTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_user_unread ON %s(user_id) WHERE NOT is_read AND NOT is_deleted`, s.opts.entriesTable, s.opts.entriesTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_mail ON %s(mail_id)`, s.opts.entriesTable, s.opts.entriesTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sender ON %s(sender_id)`, s.opts.mailsTable, s.opts.mailsTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sent ON %s(sent_at DESC)`, s.opts.mailsTable, s.opts.mailsTable),
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			s.logger.Warn("failed to create index", "error", err, "sql", idx)
		}
	}

	return nil
}

// checkConnected returns error if not connected.
func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}
