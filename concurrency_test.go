package webmail

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestConcurrentDeletePurgesOnce(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	alice := registerTestUser(t, svc, "alice")

	const recipients = 8
	ids := make([]string, 0, recipients)
	for i := 0; i < recipients; i++ {
		u := registerTestUser(t, svc, fmt.Sprintf("user%d", i))
		ids = append(ids, u.ID)
	}

	mailID := sendTestMail(t, svc.Client(alice.ID), ids...)

	// Sender lets go of their copy first.
	mbAlice := svc.Client(alice.ID)
	for i := 0; i < 2; i++ {
		if _, err := mbAlice.Delete(ctx, mailID); err != nil {
			t.Fatalf("alice delete %d: %v", i+1, err)
		}
	}

	// Every recipient races through trash and soft delete.
	var purges int64
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			mb := svc.Client(userID)
			for i := 0; i < 2; i++ {
				res, err := mb.Delete(ctx, mailID)
				if err != nil {
					t.Errorf("delete for %s: %v", userID, err)
					return
				}
				if res.Purged {
					atomic.AddInt64(&purges, 1)
				}
			}
		}(id)
	}
	wg.Wait()

	if purges != 1 {
		t.Fatalf("expected exactly 1 purge, got %d", purges)
	}

	if _, err := svc.Client(ids[0]).Get(ctx, mailID); !IsNotFound(err) {
		t.Errorf("expected not found after purge, got %v", err)
	}
}

func TestConcurrentSends(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	alice := registerTestUser(t, svc, "alice")
	bob := registerTestUser(t, svc, "bob")
	mbAlice := svc.Client(alice.ID)

	const sends = 20
	var wg sync.WaitGroup
	errs := make(chan error, sends)
	for i := 0; i < sends; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := mbAlice.Send(ctx, SendRequest{
				Recipients: []string{bob.ID},
				Subject:    fmt.Sprintf("Mail %d", n),
				Body:       "Body",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent send failed: %v", err)
		}
	}

	count, err := svc.Client(bob.ID).UnreadCount(ctx)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != sends {
		t.Errorf("expected %d unread, got %d", sends, count)
	}
}

func TestConcurrentMarkRead(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	alice := registerTestUser(t, svc, "alice")
	bob := registerTestUser(t, svc, "bob")
	mailID := sendTestMail(t, svc.Client(alice.ID), bob.ID)
	mbBob := svc.Client(bob.ID)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mbBob.MarkRead(ctx, mailID); err != nil {
				t.Errorf("MarkRead: %v", err)
			}
		}()
	}
	wg.Wait()

	view, err := mbBob.Get(ctx, mailID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !view.IsRead || view.ReadAt == nil {
		t.Error("expected mail read with timestamp after concurrent marks")
	}
}
