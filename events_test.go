package webmail

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rbaliyan/event/v3"
	"github.com/rbaliyan/event/v3/transport/channel"
	"github.com/redis/go-redis/v9"

	"github.com/emailapp/webmail/store/memory"
)

// setupEventService creates a connected service with channel transport so
// published events are actually delivered to subscribers.
func setupEventService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(
		WithStore(memory.New()),
		WithEventTransport(channel.New()),
	)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	ctx := context.Background()
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc
}

// waitEvent waits for a value on ch or fails the test.
func waitEvent[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestMailSentEvent(t *testing.T) {
	ctx := context.Background()
	svc := setupEventService(t)

	alice := registerTestUser(t, svc, "alice")
	bob := registerTestUser(t, svc, "bob")

	got := make(chan MailSentEvent, 1)
	svc.Events().MailSent.Subscribe(ctx, func(_ context.Context, _ event.Event[MailSentEvent], data MailSentEvent) error {
		got <- data
		return nil
	})

	res, err := svc.Client(alice.ID).Send(ctx, SendRequest{
		Recipients: []string{bob.ID},
		Subject:    "Event test",
		Body:       "body",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	data := waitEvent(t, got, "MailSent")
	if data.MailID != res.MailID {
		t.Errorf("event mail id = %q, want %q", data.MailID, res.MailID)
	}
	if data.SenderID != alice.ID {
		t.Errorf("event sender = %q, want %q", data.SenderID, alice.ID)
	}
	if len(data.RecipientIDs) != 1 || data.RecipientIDs[0] != bob.ID {
		t.Errorf("event recipients = %v", data.RecipientIDs)
	}
}

func TestMailReadEventPublishedOnce(t *testing.T) {
	ctx := context.Background()
	svc := setupEventService(t)

	alice := registerTestUser(t, svc, "alice")
	bob := registerTestUser(t, svc, "bob")
	mailID := sendTestMail(t, svc.Client(alice.ID), bob.ID)

	got := make(chan MailReadEvent, 4)
	svc.Events().MailRead.Subscribe(ctx, func(_ context.Context, _ event.Event[MailReadEvent], data MailReadEvent) error {
		got <- data
		return nil
	})

	bobBox := svc.Client(bob.ID)
	if err := bobBox.MarkRead(ctx, mailID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := bobBox.MarkRead(ctx, mailID); err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}

	data := waitEvent(t, got, "MailRead")
	if data.MailID != mailID || data.UserID != bob.ID {
		t.Errorf("unexpected event: %+v", data)
	}

	// The second MarkRead was a no-op and must not publish again.
	select {
	case extra := <-got:
		t.Errorf("unexpected second MailRead event: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMailPurgedEvent(t *testing.T) {
	ctx := context.Background()
	svc := setupEventService(t)

	alice := registerTestUser(t, svc, "alice")
	bob := registerTestUser(t, svc, "bob")
	mailID := sendTestMail(t, svc.Client(alice.ID), bob.ID)

	got := make(chan MailPurgedEvent, 1)
	svc.Events().MailPurged.Subscribe(ctx, func(_ context.Context, _ event.Event[MailPurgedEvent], data MailPurgedEvent) error {
		got <- data
		return nil
	})

	aliceBox := svc.Client(alice.ID)
	bobBox := svc.Client(bob.ID)

	// Trash and soft-delete on both sides. Only the final soft-delete
	// purges, so only one event is expected.
	for _, box := range []Mailbox{aliceBox, bobBox} {
		if _, err := box.Delete(ctx, mailID); err != nil {
			t.Fatalf("trash: %v", err)
		}
	}
	if _, err := aliceBox.Delete(ctx, mailID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	select {
	case data := <-got:
		t.Fatalf("premature purge event: %+v", data)
	case <-time.After(100 * time.Millisecond):
	}

	res, err := bobBox.Delete(ctx, mailID)
	if err != nil {
		t.Fatalf("final soft delete: %v", err)
	}
	if !res.Purged {
		t.Fatal("expected final delete to purge")
	}

	data := waitEvent(t, got, "MailPurged")
	if data.MailID != mailID {
		t.Errorf("event mail id = %q, want %q", data.MailID, mailID)
	}
}

func TestRedisEventTransport(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc, err := NewService(
		WithStore(memory.New()),
		WithRedisClient(client),
	)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	ctx := context.Background()
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("connect with redis transport: %v", err)
	}
	t.Cleanup(func() { svc.Close(context.Background()) })

	alice := registerTestUser(t, svc, "alice")
	bob := registerTestUser(t, svc, "bob")

	got := make(chan MailSentEvent, 1)
	svc.Events().MailSent.Subscribe(ctx, func(_ context.Context, _ event.Event[MailSentEvent], data MailSentEvent) error {
		got <- data
		return nil
	})

	res, err := svc.Client(alice.ID).Send(ctx, SendRequest{
		Recipients: []string{bob.ID},
		Subject:    "Over redis",
		Body:       "body",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	data := waitEvent(t, got, "MailSent over redis")
	if data.MailID != res.MailID {
		t.Errorf("event mail id = %q, want %q", data.MailID, res.MailID)
	}
}
