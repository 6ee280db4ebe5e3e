package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"propcare-backend/models"
)

// selectiveSender fails delivery for chosen contacts only.
type selectiveSender struct {
	mu      sync.Mutex
	failFor map[string]bool
	sent    []string
	bodies  []string
}

func (s *selectiveSender) Send(to, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[to] {
		return "", errors.New("channel rejected message")
	}
	s.sent = append(s.sent, to)
	s.bodies = append(s.bodies, body)
	return "SM0", nil
}

// blockingSender parks every Send until released.
type blockingSender struct {
	release chan struct{}
}

func (s *blockingSender) Send(to, body string) (string, error) {
	<-s.release
	return "SM0", nil
}

func newTestPoller(store *fakeStore, sender MessageSender) *Poller {
	scheduler := NewReminderScheduler(store)
	dispatcher := NewDispatcherWithSender(sender)
	return NewPoller(scheduler, dispatcher)
}

func TestRunPassDispatchesDueReminders(t *testing.T) {
	store := newFakeStore()
	sender := &selectiveSender{}
	poller := newTestPoller(store, sender)
	now := time.Now()

	due := seedReminder(t, store, func(r *models.Reminder) {
		r.NextReminderTime = now.Add(-time.Hour)
	})
	seedReminder(t, store, func(r *models.Reminder) { // not due yet
		r.NextReminderTime = now.Add(time.Hour)
	})

	result, err := poller.RunPass(now)
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if result.Found != 1 || result.Dispatched != 1 {
		t.Errorf("result = found:%d dispatched:%d, want 1/1", result.Found, result.Dispatched)
	}
	if result.CompletedAt.IsZero() {
		t.Error("CompletedAt not set")
	}

	got, _ := store.FindByID(due.ID)
	if !got.NotificationSent {
		t.Error("NotificationSent = false after successful pass")
	}
	if len(got.NotificationHistory) != 1 {
		t.Fatalf("history has %d entries, want 1", len(got.NotificationHistory))
	}
	if got.NotificationHistory[0].Type != models.NotificationDue {
		t.Errorf("history type = %q, want %q", got.NotificationHistory[0].Type, models.NotificationDue)
	}
}

func TestRunPassIsolatesDeliveryFailure(t *testing.T) {
	store := newFakeStore()
	sender := &selectiveSender{failFor: map[string]bool{"+911111111111": true}}
	poller := newTestPoller(store, sender)
	now := time.Now()

	failing := seedReminder(t, store, func(r *models.Reminder) {
		r.NextReminderTime = now.Add(-time.Hour)
		r.Contact = "+911111111111"
	})
	ok := seedReminder(t, store, func(r *models.Reminder) {
		r.NextReminderTime = now.Add(-time.Hour)
		r.Contact = "+922222222222"
	})

	result, err := poller.RunPass(now)
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if result.Found != 2 {
		t.Errorf("Found = %d, want 2", result.Found)
	}
	if result.Dispatched != 1 {
		t.Errorf("Dispatched = %d, want 1", result.Dispatched)
	}

	// Failed delivery must leave the reminder retryable
	gotFailing, _ := store.FindByID(failing.ID)
	if gotFailing.NotificationSent {
		t.Error("failed delivery marked NotificationSent")
	}
	if len(gotFailing.NotificationHistory) != 0 {
		t.Error("failed delivery appended to history")
	}

	gotOK, _ := store.FindByID(ok.ID)
	if !gotOK.NotificationSent {
		t.Error("successful delivery not recorded")
	}

	// Next pass retries only the failed one
	sender.mu.Lock()
	sender.failFor = map[string]bool{}
	sender.mu.Unlock()

	result, err = poller.RunPass(now)
	if err != nil {
		t.Fatalf("second RunPass: %v", err)
	}
	if result.Found != 1 || result.Dispatched != 1 {
		t.Errorf("retry pass = found:%d dispatched:%d, want 1/1", result.Found, result.Dispatched)
	}
}

func TestRunPassSkipsReminderWithoutDueDate(t *testing.T) {
	store := newFakeStore()
	sender := &selectiveSender{}
	poller := newTestPoller(store, sender)
	now := time.Now()

	seedReminder(t, store, func(r *models.Reminder) {
		r.NextReminderTime = now.Add(-time.Hour)
		r.DueDate = time.Time{}
	})

	result, err := poller.RunPass(now)
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if result.Found != 1 {
		t.Errorf("Found = %d, want 1", result.Found)
	}
	if result.Dispatched != 0 {
		t.Errorf("Dispatched = %d, want 0 for malformed record", result.Dispatched)
	}
	if len(sender.sent) != 0 {
		t.Error("malformed reminder was dispatched")
	}
}

func TestRunPassRenotifiesStaleOverdue(t *testing.T) {
	store := newFakeStore()
	sender := &selectiveSender{}
	poller := newTestPoller(store, sender)
	now := time.Now()

	stale := seedReminder(t, store, func(r *models.Reminder) {
		r.DueDate = now.Add(-72 * time.Hour)
		r.NextReminderTime = now.Add(-72 * time.Hour)
		r.Scheduled = false
		r.NotificationSent = true
		r.NotificationHistory = models.NotificationHistory{
			{SentAt: now.Add(-25 * time.Hour), Type: models.NotificationOverdue, Message: "old"},
		}
	})

	result, err := poller.RunPass(now)
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if result.Found != 1 || result.Dispatched != 1 {
		t.Errorf("result = found:%d dispatched:%d, want 1/1", result.Found, result.Dispatched)
	}

	got, _ := store.FindByID(stale.ID)
	if len(got.NotificationHistory) != 2 {
		t.Fatalf("history has %d entries, want 2", len(got.NotificationHistory))
	}
	last := got.NotificationHistory[1]
	if last.Type != models.NotificationOverdue {
		t.Errorf("re-notification type = %q, want overdue", last.Type)
	}
	if !strings.Contains(last.Message, "URGENT") {
		t.Errorf("re-notification message missing URGENT headline:\n%s", last.Message)
	}

	// Running again within the window must not send a third message
	result, err = poller.RunPass(now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second RunPass: %v", err)
	}
	if result.Dispatched != 0 {
		t.Errorf("Dispatched = %d within suppression window, want 0", result.Dispatched)
	}
}

func TestRunPassRejectsOverlap(t *testing.T) {
	store := newFakeStore()
	sender := &blockingSender{release: make(chan struct{})}
	poller := newTestPoller(store, sender)
	now := time.Now()

	seedReminder(t, store, func(r *models.Reminder) {
		r.NextReminderTime = now.Add(-time.Hour)
	})

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := poller.RunPass(now)
		done <- err
	}()

	<-started
	// Give the first pass time to park inside the sender
	time.Sleep(20 * time.Millisecond)

	_, err := poller.RunPass(now)
	if !errors.Is(err, ErrPassInProgress) {
		t.Errorf("overlapping RunPass error = %v, want ErrPassInProgress", err)
	}

	close(sender.release)
	if err := <-done; err != nil {
		t.Fatalf("first RunPass: %v", err)
	}

	// Once the first pass finished, a new one is accepted again
	if _, err := poller.RunPass(now); err != nil {
		t.Errorf("RunPass after completion: %v", err)
	}
}

func TestPollerStartTwice(t *testing.T) {
	poller := newTestPoller(newFakeStore(), &selectiveSender{})
	if err := poller.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer poller.Stop()

	if err := poller.Start(); err == nil {
		t.Error("second Start succeeded, want error")
	}
}
