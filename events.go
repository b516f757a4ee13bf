package webmail

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/event/v3"
)

// Event names for webmail events.
const (
	EventNameMailSent   = "webmail.mail.sent"
	EventNameMailRead   = "webmail.mail.read"
	EventNameMailPurged = "webmail.mail.purged"
)

// MailSentEvent is published when a mail is delivered.
// This is the primary event for notifying recipients of new mail.
type MailSentEvent struct {
	MailID       string    `json:"mail_id"`
	SenderID     string    `json:"sender_id"`
	RecipientIDs []string  `json:"recipient_ids"`
	Subject      string    `json:"subject"`
	SentAt       time.Time `json:"sent_at"`
}

// MailReadEvent is published when a MarkRead call observes the entry
// unread. A repeat call on a read entry does not publish; concurrent
// first reads may each observe the unread state and publish, so
// subscribers should treat delivery as at-least-once.
type MailReadEvent struct {
	MailID string    `json:"mail_id"`
	UserID string    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// MailPurgedEvent is published when the last participant soft-deletes
// their entry and the mail row is permanently removed. Moves to trash and
// individual soft-deletes do not publish.
type MailPurgedEvent struct {
	MailID   string    `json:"mail_id"`
	UserID   string    `json:"user_id"`
	PurgedAt time.Time `json:"purged_at"`
}

// ServiceEvents provides access to per-service event instances.
// Each service creates its own events bound to its own event bus,
// enabling independent event routing and parallel testing.
//
// Subscribe to events:
//
//	svc.Events().MailSent.Subscribe(ctx, handler)
//	svc.Events().MailRead.Subscribe(ctx, handler)
//	svc.Events().MailPurged.Subscribe(ctx, handler)
type ServiceEvents struct {
	// MailSent is published when a mail is delivered.
	MailSent event.Event[MailSentEvent]

	// MailRead is published the first time a mail is marked as read.
	MailRead event.Event[MailReadEvent]

	// MailPurged is published when a mail is permanently removed.
	MailPurged event.Event[MailPurgedEvent]
}

// newServiceEvents creates per-service event instances with a unique name prefix.
func newServiceEvents(namePrefix string) *ServiceEvents {
	return &ServiceEvents{
		MailSent:   event.New[MailSentEvent](namePrefix + "." + EventNameMailSent),
		MailRead:   event.New[MailReadEvent](namePrefix + "." + EventNameMailRead),
		MailPurged: event.New[MailPurgedEvent](namePrefix + "." + EventNameMailPurged),
	}
}

// registerServiceEvents registers per-service events with the given bus.
func registerServiceEvents(ctx context.Context, bus *event.Bus, events *ServiceEvents) error {
	if err := event.Register(ctx, bus, events.MailSent); err != nil {
		return fmt.Errorf("register MailSent: %w", err)
	}
	if err := event.Register(ctx, bus, events.MailRead); err != nil {
		return fmt.Errorf("register MailRead: %w", err)
	}
	if err := event.Register(ctx, bus, events.MailPurged); err != nil {
		return fmt.Errorf("register MailPurged: %w", err)
	}
	return nil
}
