package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"propcare-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeStore mirrors the gorm store's query predicates in memory.
type fakeStore struct {
	mu        sync.Mutex
	reminders map[uuid.UUID]*models.Reminder
}

func newFakeStore() *fakeStore {
	return &fakeStore{reminders: make(map[uuid.UUID]*models.Reminder)}
}

func (f *fakeStore) Insert(r *models.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	clone := *r
	f.reminders[r.ID] = &clone
	return nil
}

func (f *fakeStore) FindByID(id uuid.UUID) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *r
	return &clone, nil
}

func (f *fakeStore) FindDue(now time.Time) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []models.Reminder
	for _, r := range f.reminders {
		if !r.NextReminderTime.After(now) && !r.NotificationSent && !r.Completed {
			due = append(due, *r)
		}
	}
	return due, nil
}

func (f *fakeStore) FindStaleOverdue(now time.Time) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := now.Add(-renotifyWindow)
	var stale []models.Reminder
	for _, r := range f.reminders {
		if !r.DueDate.Before(cutoff) || r.Completed || r.Scheduled {
			continue
		}
		if len(r.NotificationHistory) == 0 || r.NotificationHistory.LastSentAt().Before(cutoff) {
			stale = append(stale, *r)
		}
	}
	return stale, nil
}

func (f *fakeStore) RecordNotification(id uuid.UUID, entry models.NotificationEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return false, nil
	}
	cutoff := entry.SentAt.Add(-renotifyWindow)
	if r.Completed {
		return false, nil
	}
	if !r.NotificationSent || len(r.NotificationHistory) == 0 || r.NotificationHistory.LastSentAt().Before(cutoff) {
		r.NotificationHistory = append(r.NotificationHistory, entry)
		r.NotificationSent = true
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) DeleteByProperty(propertyID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, r := range f.reminders {
		if r.PropertyID == propertyID {
			delete(f.reminders, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) HasActiveForProperty(propertyID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reminders {
		if r.PropertyID == propertyID && !r.Completed {
			return true, nil
		}
	}
	return false, nil
}

func seedReminder(t *testing.T, store *fakeStore, mutate func(*models.Reminder)) *models.Reminder {
	t.Helper()
	now := time.Now()
	r := &models.Reminder{
		ID:                  uuid.New(),
		PropertyID:          uuid.New(),
		PropertyName:        "Sunrise Apartments",
		KeyPerson:           "Ravi",
		Contact:             "+919876543210",
		Location:            "Baner Road",
		ServiceType:         "pest-control",
		DueDate:             now,
		NextReminderTime:    now,
		Status:              models.ReminderStatusScheduled,
		Scheduled:           true,
		NotificationHistory: models.NotificationHistory{},
	}
	if mutate != nil {
		mutate(r)
	}
	if err := store.Insert(r); err != nil {
		t.Fatalf("insert reminder: %v", err)
	}
	return r
}

func TestCreateFromProperty(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)

	serviceDate := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	property := &models.Property{
		ID:          uuid.New(),
		Name:        "Sunrise Apartments",
		KeyPerson:   "Ravi",
		Contact:     "+919876543210",
		Location:    "Baner Road",
		ServiceType: "pest-control",
		ServiceDate: serviceDate,
	}

	reminder, err := scheduler.CreateFromProperty(property)
	if err != nil {
		t.Fatalf("CreateFromProperty: %v", err)
	}

	if !reminder.DueDate.Equal(serviceDate) {
		t.Errorf("DueDate = %v, want %v", reminder.DueDate, serviceDate)
	}
	if !reminder.NextReminderTime.Equal(serviceDate) {
		t.Errorf("NextReminderTime = %v, want %v", reminder.NextReminderTime, serviceDate)
	}
	if reminder.LastServiceDate != nil {
		t.Errorf("LastServiceDate = %v, want nil", reminder.LastServiceDate)
	}
	if !reminder.IsNewService {
		t.Error("IsNewService = false, want true")
	}
	if reminder.NotificationSent {
		t.Error("NotificationSent = true, want false")
	}
	if reminder.Status != models.ReminderStatusScheduled {
		t.Errorf("Status = %q, want %q", reminder.Status, models.ReminderStatusScheduled)
	}
	if !reminder.Scheduled || reminder.Called || reminder.Completed {
		t.Errorf("flags = scheduled:%v called:%v completed:%v, want true/false/false",
			reminder.Scheduled, reminder.Called, reminder.Completed)
	}
}

func TestCreateFromPropertyMissingServiceDate(t *testing.T) {
	scheduler := NewReminderScheduler(newFakeStore())
	_, err := scheduler.CreateFromProperty(&models.Property{ID: uuid.New(), Name: "X"})
	if err == nil {
		t.Fatal("expected error for property without service date")
	}
}

func TestFindDueReminders(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)
	now := time.Now()

	due := seedReminder(t, store, func(r *models.Reminder) {
		r.NextReminderTime = now.Add(-time.Hour)
	})
	seedReminder(t, store, func(r *models.Reminder) { // not yet due
		r.NextReminderTime = now.Add(time.Hour)
	})
	seedReminder(t, store, func(r *models.Reminder) { // already notified
		r.NextReminderTime = now.Add(-time.Hour)
		r.NotificationSent = true
	})
	seedReminder(t, store, func(r *models.Reminder) { // completed
		r.NextReminderTime = now.Add(-time.Hour)
		r.Completed = true
	})

	found, err := scheduler.FindDueReminders(now)
	if err != nil {
		t.Fatalf("FindDueReminders: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d reminders, want 1", len(found))
	}
	if found[0].ID != due.ID {
		t.Errorf("found reminder %s, want %s", found[0].ID, due.ID)
	}
}

func TestClassifyNotification(t *testing.T) {
	scheduler := NewReminderScheduler(newFakeStore())
	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		dueDate     time.Time
		customHours int
		want        string
	}{
		{"yesterday is overdue", now.AddDate(0, 0, -1), 0, models.NotificationOverdue},
		{"today is due", now, 0, models.NotificationDue},
		{"earlier today is still due", now.Add(-5 * time.Hour), 0, models.NotificationDue},
		{"today with custom hours", now, 2, models.NotificationCustom},
		{"overdue wins over custom", now.AddDate(0, 0, -1), 2, models.NotificationOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reminder := &models.Reminder{
				ID:                  uuid.New(),
				DueDate:             tt.dueDate,
				CustomReminderHours: tt.customHours,
			}
			got, err := scheduler.ClassifyNotification(reminder, now)
			if err != nil {
				t.Fatalf("ClassifyNotification: %v", err)
			}
			if got != tt.want {
				t.Errorf("ClassifyNotification = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyNotificationMissingDueDate(t *testing.T) {
	scheduler := NewReminderScheduler(newFakeStore())
	_, err := scheduler.ClassifyNotification(&models.Reminder{ID: uuid.New()}, time.Now())
	if err == nil {
		t.Fatal("expected error for reminder without due date")
	}
}

func TestRecordNotificationIdempotent(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)
	now := time.Now()

	reminder := seedReminder(t, store, nil)

	first, err := scheduler.RecordNotification(reminder.ID, models.NotificationDue, "msg", now)
	if err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}
	second, err := scheduler.RecordNotification(reminder.ID, models.NotificationDue, "msg", now)
	if err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}

	if !first {
		t.Error("first RecordNotification not applied")
	}
	if second {
		t.Error("second RecordNotification applied, want suppressed")
	}

	got, err := store.FindByID(reminder.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !got.NotificationSent {
		t.Error("NotificationSent = false, want true")
	}
	if len(got.NotificationHistory) != 1 {
		t.Errorf("history has %d entries, want 1", len(got.NotificationHistory))
	}
}

func TestRecordNotificationAfterRenotifyWindow(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)
	now := time.Now()

	reminder := seedReminder(t, store, func(r *models.Reminder) {
		r.NotificationSent = true
		r.NotificationHistory = models.NotificationHistory{
			{SentAt: now.Add(-25 * time.Hour), Type: models.NotificationDue, Message: "old"},
		}
	})

	applied, err := scheduler.RecordNotification(reminder.ID, models.NotificationOverdue, "again", now)
	if err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}
	if !applied {
		t.Error("RecordNotification not applied after re-notify window")
	}

	got, _ := store.FindByID(reminder.ID)
	if len(got.NotificationHistory) != 2 {
		t.Errorf("history has %d entries, want 2", len(got.NotificationHistory))
	}
}

func TestFindStaleOverdueSuppression(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)
	now := time.Now()

	included := seedReminder(t, store, func(r *models.Reminder) {
		r.DueDate = now.Add(-48 * time.Hour)
		r.Scheduled = false
		r.NotificationSent = true
		r.NotificationHistory = models.NotificationHistory{
			{SentAt: now.Add(-25 * time.Hour), Type: models.NotificationOverdue},
		}
	})
	seedReminder(t, store, func(r *models.Reminder) { // notified 23h ago, suppressed
		r.DueDate = now.Add(-48 * time.Hour)
		r.Scheduled = false
		r.NotificationSent = true
		r.NotificationHistory = models.NotificationHistory{
			{SentAt: now.Add(-23 * time.Hour), Type: models.NotificationOverdue},
		}
	})
	neverNotified := seedReminder(t, store, func(r *models.Reminder) { // no history at all
		r.DueDate = now.Add(-48 * time.Hour)
		r.Scheduled = false
	})
	seedReminder(t, store, func(r *models.Reminder) { // marked scheduled, excluded
		r.DueDate = now.Add(-48 * time.Hour)
		r.Scheduled = true
	})
	seedReminder(t, store, func(r *models.Reminder) { // not yet 24h past due
		r.DueDate = now.Add(-12 * time.Hour)
		r.Scheduled = false
	})

	stale, err := scheduler.FindStaleOverdueReminders(now)
	if err != nil {
		t.Fatalf("FindStaleOverdueReminders: %v", err)
	}

	ids := make(map[uuid.UUID]bool)
	for _, r := range stale {
		ids[r.ID] = true
	}
	if len(stale) != 2 {
		t.Fatalf("found %d stale reminders, want 2", len(stale))
	}
	if !ids[included.ID] {
		t.Error("reminder notified 25h ago missing from stale set")
	}
	if !ids[neverNotified.ID] {
		t.Error("never-notified overdue reminder missing from stale set")
	}
}

func TestRollForward(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)
	now := time.Now()

	reminder := seedReminder(t, store, func(r *models.Reminder) {
		r.CustomReminderHours = 4
		r.Status = models.ReminderStatusCompleted
		r.Completed = true
	})

	next, err := scheduler.RollForward(reminder, now)
	if err != nil {
		t.Fatalf("RollForward: %v", err)
	}

	if next.LastServiceDate == nil || !next.LastServiceDate.Equal(now) {
		t.Errorf("LastServiceDate = %v, want %v", next.LastServiceDate, now)
	}
	if next.IsNewService {
		t.Error("IsNewService = true, want false")
	}
	wantDue := now.AddDate(0, 0, defaultCycleDays)
	if !next.DueDate.Equal(wantDue) {
		t.Errorf("DueDate = %v, want %v", next.DueDate, wantDue)
	}
	if next.NotificationSent {
		t.Error("NotificationSent = true, want false")
	}
	if next.CustomReminderHours != 4 {
		t.Errorf("CustomReminderHours = %d, want 4", next.CustomReminderHours)
	}
	if next.PropertyID != reminder.PropertyID {
		t.Error("next cycle reminder lost its property reference")
	}
}

func TestRollForwardRefusesSecondActiveReminder(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)
	now := time.Now()

	propertyID := uuid.New()
	completed := seedReminder(t, store, func(r *models.Reminder) {
		r.PropertyID = propertyID
		r.Status = models.ReminderStatusCompleted
		r.Completed = true
	})
	seedReminder(t, store, func(r *models.Reminder) { // still active for the same property
		r.PropertyID = propertyID
	})

	_, err := scheduler.RollForward(completed, now)
	if !errors.Is(err, ErrActiveReminderExists) {
		t.Errorf("RollForward error = %v, want ErrActiveReminderExists", err)
	}
}

func TestCalledReminderVisibleToStaleQuery(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)
	now := time.Now()

	// A reminder that was notified once, then marked called and never
	// resolved: Status=called, Scheduled cleared, due 48h ago, last
	// notification 48h ago. It must surface in the overdue re-notify
	// query even though the first-notification guard excludes it from
	// the due query.
	called := seedReminder(t, store, func(r *models.Reminder) {
		r.Status = models.ReminderStatusCalled
		r.Called = true
		r.Scheduled = false
		r.NotificationSent = true
		r.DueDate = now.Add(-48 * time.Hour)
		r.NextReminderTime = now.Add(-48 * time.Hour)
		r.CallAttempts = 1
		r.NotificationHistory = models.NotificationHistory{
			{SentAt: now.Add(-48 * time.Hour), Type: models.NotificationDue, Message: "first"},
		}
	})

	due, err := scheduler.FindDueReminders(now)
	if err != nil {
		t.Fatalf("FindDueReminders: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("due query returned %d reminders, want 0", len(due))
	}

	stale, err := scheduler.FindStaleOverdueReminders(now)
	if err != nil {
		t.Fatalf("FindStaleOverdueReminders: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != called.ID {
		t.Fatalf("stale query missed the called-but-unresolved reminder: got %d", len(stale))
	}
}

func TestDeleteForProperty(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(store)

	propertyID := uuid.New()
	seedReminder(t, store, func(r *models.Reminder) { r.PropertyID = propertyID })
	seedReminder(t, store, func(r *models.Reminder) { r.PropertyID = propertyID })
	other := seedReminder(t, store, nil)

	deleted, err := scheduler.DeleteForProperty(propertyID)
	if err != nil {
		t.Fatalf("DeleteForProperty: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d reminders, want 2", deleted)
	}
	if _, err := store.FindByID(other.ID); err != nil {
		t.Error("unrelated reminder was deleted")
	}
}
