// Package memory provides an in-memory Store implementation for testing.
// This store is not suitable for production use - data is not persisted.
package memory

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/emailapp/webmail/store"
)

// Compile-time check
var _ store.Store = (*Store)(nil)

// Store implements store.Store with in-memory storage.
// Thread-safe for concurrent use. Not suitable for production.
//
// A single mutex guards all maps. That is coarser than the PostgreSQL
// store's per-mail row locks but gives the same observable semantics:
// Discard calls for one mail run one at a time.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*store.User            // userID -> user
	mails     map[string]*store.Mail            // mailID -> mail
	entries   map[string]map[string]*store.Entry // mailID -> userID -> entry
	connected int32
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[string]*store.User),
		mails:   make(map[string]*store.Mail),
		entries: make(map[string]map[string]*store.Entry),
	}
}

// Connect marks the store as connected.
func (s *Store) Connect(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return store.ErrAlreadyConnected
	}
	return nil
}

// Close marks the store as disconnected.
func (s *Store) Close(_ context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}

// =============================================================================
// User Operations
// =============================================================================

func (s *Store) CreateUser(_ context.Context, data store.UserData) (*store.User, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, data.Username) || strings.EqualFold(u.Email, data.Email) {
			return nil, store.ErrDuplicateEntry
		}
	}

	user := &store.User{
		ID:           uuid.New().String(),
		Username:     data.Username,
		Email:        data.Email,
		DisplayName:  data.DisplayName,
		PasswordHash: data.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user

	clone := *user
	return &clone, nil
}

func (s *Store) GetUser(_ context.Context, id string) (*store.User, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	clone := *user
	return &clone, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UserExists(_ context.Context, id string) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}
