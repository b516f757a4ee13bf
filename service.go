package webmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rbaliyan/event/v3"
	"github.com/rbaliyan/event/v3/transport/noop"
	eventredis "github.com/rbaliyan/event/v3/transport/redis"
	"golang.org/x/sync/semaphore"

	"github.com/emailapp/webmail/store"
	"github.com/emailapp/webmail/summary"
)

// Type aliases for commonly used store types.
// These allow callers to work with the webmail package without importing
// store directly.
type (
	ListOptions = store.ListOptions
	Folder      = store.Folder
	Role        = store.Role
	User        = store.User
	MailView    = store.MailView
)

// Re-exported folder and role constants.
const (
	FolderInbox = store.FolderInbox
	FolderSent  = store.FolderSent
	FolderTrash = store.FolderTrash

	RoleSender    = store.RoleSender
	RoleRecipient = store.RoleRecipient
)

// ServiceHealth provides health and state information about the service.
type ServiceHealth interface {
	// IsConnected returns true if the service is connected and ready.
	IsConnected() bool
}

// UserDirectory provides account registration and lookup.
type UserDirectory interface {
	// Register creates a new account. The password is hashed before
	// storage. Returns ErrUsernameTaken or ErrEmailTaken on collision.
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	// Authenticate verifies a username/password pair and returns the
	// account on success. Returns ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, username, password string) (*User, error)
	// GetUser retrieves an account by ID.
	GetUser(ctx context.Context, id string) (*User, error)
	// GetUserByEmail retrieves an account by email address.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// Assistant provides AI-backed content helpers. Both methods degrade to
// fixed fallback responses when the backend is missing or failing; they
// never surface backend errors to callers.
type Assistant interface {
	// Summarize returns a short digest of the given mail content.
	Summarize(ctx context.Context, content string) string
	// SmartReplies returns three suggested reply options for the content.
	SmartReplies(ctx context.Context, content string) []string
}

// Service manages the webmail system (server-side).
// It handles connections to storage and creates per-user mailbox clients.
type Service interface {
	ServiceHealth
	UserDirectory
	Assistant

	// Connect establishes connections to storage backends.
	Connect(ctx context.Context) error
	// Close closes all connections after draining in-flight sends.
	Close(ctx context.Context) error
	// Client returns a mailbox client for the given user.
	// The returned client shares the service's connections.
	Client(userID string) Mailbox
	// Events returns per-service event instances for subscribing and
	// publishing.
	Events() *ServiceEvents
}

// Connection states for the service.
const (
	stateDisconnected int32 = 0
	stateConnecting   int32 = 1
	stateConnected    int32 = 2
)

// service is the default implementation of Service.
type service struct {
	store      store.Store
	summarizer summary.Summarizer
	logger     *slog.Logger
	opts       *options
	state      int32               // stateDisconnected, stateConnecting, or stateConnected
	otel       *otelInstrumentation
	sendSem    *semaphore.Weighted // Limits concurrent sends to prevent resource exhaustion
	eventBus   *event.Bus
	events     *ServiceEvents
}

// NewService creates a new webmail service.
// Call Connect() to establish connections to backends.
func NewService(opts ...Option) (Service, error) {
	o := newOptions(opts...)

	if o.store == nil {
		return nil, ErrStoreRequired
	}

	otelInstr, err := newOtelInstrumentation(o)
	if err != nil {
		return nil, fmt.Errorf("init otel: %w", err)
	}

	return &service{
		store:      o.store,
		summarizer: o.summarizer,
		logger:     o.logger,
		opts:       o,
		otel:       otelInstr,
		sendSem:    semaphore.NewWeighted(int64(o.maxConcurrentSends)),
	}, nil
}

// Events returns per-service event instances for subscribing and publishing.
func (s *service) Events() *ServiceEvents {
	return s.events
}

// IsConnected returns true if the service is connected and ready.
func (s *service) IsConnected() bool {
	return atomic.LoadInt32(&s.state) == stateConnected
}

// Connect establishes connections to storage backends.
func (s *service) Connect(ctx context.Context) error {
	// Use three-state to prevent Client() from seeing partial initialization
	// stateDisconnected -> stateConnecting -> stateConnected
	if !atomic.CompareAndSwapInt32(&s.state, stateDisconnected, stateConnecting) {
		return ErrAlreadyConnected
	}

	success := false
	defer func() {
		if success {
			atomic.StoreInt32(&s.state, stateConnected)
		} else {
			atomic.StoreInt32(&s.state, stateDisconnected)
		}
	}()

	if err := s.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect store: %w", err)
	}

	if err := s.initEventBus(ctx); err != nil {
		s.store.Close(ctx)
		return fmt.Errorf("init event bus: %w", err)
	}

	success = true
	s.logger.Info("webmail service connected")
	return nil
}

// busCounter generates unique suffixes for event bus names.
var busCounter int64

// initEventBus initializes the event bus for this service.
// Each service creates its own bus with its own per-service events.
func (s *service) initEventBus(ctx context.Context) error {
	serviceName := s.opts.serviceName
	if serviceName == "" {
		serviceName = "webmail"
	}
	// Each bus needs a unique name, so append a counter suffix
	busName := fmt.Sprintf("%s-%d", serviceName, atomic.AddInt64(&busCounter, 1))

	var bus *event.Bus
	var err error

	switch {
	case s.opts.eventTransport != nil:
		s.logger.Info("initializing event bus with custom transport")
		bus, err = event.NewBus(busName, event.WithTransport(s.opts.eventTransport))
	case s.opts.redisClient != nil:
		s.logger.Info("initializing event bus with Redis transport")
		t, transportErr := eventredis.New(s.opts.redisClient)
		if transportErr != nil {
			return fmt.Errorf("create redis transport: %w", transportErr)
		}
		bus, err = event.NewBus(busName, event.WithTransport(t))
	default:
		s.logger.Debug("initializing event bus with noop transport")
		bus, err = event.NewBus(busName, event.WithTransport(noop.New()))
	}

	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	s.eventBus = bus

	s.events = newServiceEvents(busName)
	if err := registerServiceEvents(ctx, bus, s.events); err != nil {
		bus.Close(ctx)
		return fmt.Errorf("register service events: %w", err)
	}

	return nil
}

// Close closes connections to storage backends.
func (s *service) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, stateConnected, stateDisconnected) {
		return nil
	}

	var errs []error

	// Wait for in-flight send operations to complete (graceful shutdown).
	// After setting state to disconnected, no new sends can start because
	// checkAccess fails. Acquiring all semaphore slots waits out the rest.
	s.logger.Info("waiting for in-flight operations to complete...", "timeout", s.opts.shutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, s.opts.shutdownTimeout)
	defer shutdownCancel()
	if err := s.sendSem.Acquire(shutdownCtx, int64(s.opts.maxConcurrentSends)); err != nil {
		s.logger.Warn("timeout waiting for in-flight operations, proceeding with shutdown",
			"error", err)
		errs = append(errs, fmt.Errorf("graceful shutdown timeout: %w", err))
	} else {
		s.sendSem.Release(int64(s.opts.maxConcurrentSends))
		s.logger.Info("all in-flight operations completed")
	}

	// Close event bus only if using a real transport.
	// For noop transport, the bus doesn't hold resources and closing would
	// break events for other services sharing the same global events.
	if s.eventBus != nil && (s.opts.eventTransport != nil || s.opts.redisClient != nil) {
		if err := s.eventBus.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	return errors.Join(errs...)
}

// Client returns a mailbox client for the given user.
func (s *service) Client(userID string) Mailbox {
	return &userMailbox{
		userID:      userID,
		service:     s,
		validUserID: isValidUserID(userID),
	}
}
