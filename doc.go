// Package webmail provides the backend for a multi-user webmail system.
//
// Mail content is stored once and shared: sending creates a single
// immutable mail row plus one mailbox entry per participant. The entry
// carries all per-user state (folder, read, starred, deleted), so one
// user's actions never alter what another user sees. When the last
// participant deletes their trashed copy, the shared mail is permanently
// removed.
//
// # Basic Usage
//
//	// Create in-memory store for testing
//	st := memory.New()
//
//	// Create webmail service
//	svc, err := webmail.NewService(
//	    webmail.WithStore(st),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Connect initializes indexes/schema
//	if err := svc.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close(ctx)
//
//	// Register accounts and get a mailbox client
//	alice, _ := svc.Register(ctx, webmail.RegisterRequest{
//	    Username: "alice", Email: "alice@example.com", Password: "secret123",
//	})
//	mb := svc.Client(alice.ID)
//
//	// Send a mail
//	res, err := mb.Send(ctx, webmail.SendRequest{
//	    Recipients: []string{"bob@example.com"},
//	    Subject:    "Hello",
//	    Body:       "World",
//	})
//
// # Mailbox Operations
//
//   - Send: Deliver mail to recipients atomically
//   - Get: Retrieve the caller's view of one mail
//   - Inbox/Sent/Trash: List folders, newest first
//   - UnreadCount: Unread mail across all folders
//   - MarkRead/ToggleStar/SetStar: Per-user flags
//   - Delete: Trash, then soft-delete, then shared purge
//
// # Storage Backends
//
// The store package provides implementations for:
//   - PostgreSQL (store/postgres) - accepts *sqlx.DB or *sql.DB
//   - In-memory (store/memory) - for testing
//
// # Events
//
// Webmail provides typed events for mail lifecycle notifications.
// Events use the github.com/rbaliyan/event/v3 library which supports
// multiple transports (Redis Streams, NATS, Kafka, in-memory channel).
//
// To enable events, pass WithRedisClient or WithEventTransport when
// creating the service:
//
//	svc, err := webmail.NewService(
//	    webmail.WithStore(st),
//	    webmail.WithRedisClient(redisClient),
//	)
//
// Events are automatically registered during Connect(). Access per-service
// events via the Events() method:
//
//	events := svc.Events()
//	events.MailSent.Subscribe(ctx, handler)
//	events.MailRead.Subscribe(ctx, handler)
//	events.MailPurged.Subscribe(ctx, handler)
package webmail
