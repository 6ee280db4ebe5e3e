// services/scheduler.go
package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"propcare-backend/models"
	"propcare-backend/utils"

	"github.com/google/uuid"
)

// ErrMissingDueDate marks a reminder record with no due date. The
// pass logs and skips such records instead of failing.
var ErrMissingDueDate = errors.New("reminder has no due date")

// ErrActiveReminderExists means the property already has a
// non-completed reminder, so seeding another would break the
// one-active-reminder-per-property rule.
var ErrActiveReminderExists = errors.New("property already has an active reminder")

// defaultCycleDays is the service cycle used when rolling a completed
// reminder forward, unless REMINDER_CYCLE_DAYS overrides it.
const defaultCycleDays = 30

// ReminderScheduler owns the reminder lifecycle: creation from a
// property, due queries, notification classification and the
// notification record itself.
type ReminderScheduler struct {
	store ReminderStore
}

func NewReminderScheduler(store ReminderStore) *ReminderScheduler {
	return &ReminderScheduler{store: store}
}

// CreateFromProperty seeds a property's first reminder from its
// service date. The property has never been serviced at this point,
// so LastServiceDate stays nil and the record is flagged as a new
// service.
func (s *ReminderScheduler) CreateFromProperty(property *models.Property) (*models.Reminder, error) {
	if property.ServiceDate.IsZero() {
		return nil, errors.New("property has no service date")
	}

	reminder := &models.Reminder{
		PropertyID:          property.ID,
		PropertyName:        property.Name,
		KeyPerson:           property.KeyPerson,
		Contact:             property.Contact,
		Location:            property.Location,
		ServiceType:         property.ServiceType,
		LastServiceDate:     nil,
		IsNewService:        true,
		DueDate:             property.ServiceDate,
		NextReminderTime:    property.ServiceDate,
		Status:              models.ReminderStatusScheduled,
		Called:              false,
		Scheduled:           true,
		Completed:           false,
		Notes:               property.Notes,
		NotificationSent:    false,
		NotificationHistory: models.NotificationHistory{},
	}

	if err := s.store.Insert(reminder); err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return reminder, nil
}

// FindDueReminders returns every reminder whose next reminder time
// has passed and that has neither been notified nor completed.
func (s *ReminderScheduler) FindDueReminders(now time.Time) ([]models.Reminder, error) {
	return s.store.FindDue(now)
}

// ClassifyNotification picks the notification type for a due
// reminder. Overdue wins over a custom cadence, which wins over the
// plain due-today case. The overdue check compares calendar days,
// not clock times.
func (s *ReminderScheduler) ClassifyNotification(reminder *models.Reminder, now time.Time) (string, error) {
	if reminder.DueDate.IsZero() {
		return "", fmt.Errorf("reminder %s: %w", reminder.ID, ErrMissingDueDate)
	}

	if utils.BeginningOfDay(reminder.DueDate).Before(utils.BeginningOfDay(now)) {
		return models.NotificationOverdue, nil
	}
	if reminder.CustomReminderHours > 0 {
		return models.NotificationCustom, nil
	}
	return models.NotificationDue, nil
}

// FindStaleOverdueReminders returns overdue reminders eligible for a
// repeat notification: due more than 24h ago, not completed, not
// scheduled, and not notified within the last 24h. The notification
// history is the suppression state; there is no separate timer field.
func (s *ReminderScheduler) FindStaleOverdueReminders(now time.Time) ([]models.Reminder, error) {
	return s.store.FindStaleOverdue(now)
}

// RecordNotification appends one audit entry and flips
// NotificationSent, atomically and conditionally. It reports false
// when a concurrent pass already recorded for this reminder.
func (s *ReminderScheduler) RecordNotification(id uuid.UUID, notificationType, message string, sentAt time.Time) (bool, error) {
	return s.store.RecordNotification(id, models.NotificationEntry{
		SentAt:  sentAt,
		Type:    notificationType,
		Message: message,
	})
}

// RollForward builds the next cycle's reminder after a service was
// completed. The completion date becomes the last service date and
// the new due date is one cycle out. It refuses to seed a second
// active reminder for the property.
func (s *ReminderScheduler) RollForward(reminder *models.Reminder, completedAt time.Time) (*models.Reminder, error) {
	has, err := s.store.HasActiveForProperty(reminder.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("check active reminder: %w", err)
	}
	if has {
		return nil, ErrActiveReminderExists
	}

	nextDue := completedAt.AddDate(0, 0, cycleDays())

	next := &models.Reminder{
		PropertyID:          reminder.PropertyID,
		PropertyName:        reminder.PropertyName,
		KeyPerson:           reminder.KeyPerson,
		Contact:             reminder.Contact,
		Location:            reminder.Location,
		ServiceType:         reminder.ServiceType,
		LastServiceDate:     &completedAt,
		IsNewService:        false,
		DueDate:             nextDue,
		NextReminderTime:    nextDue,
		Status:              models.ReminderStatusScheduled,
		Scheduled:           true,
		Notes:               reminder.Notes,
		CustomReminderHours: reminder.CustomReminderHours,
		NotificationHistory: models.NotificationHistory{},
	}

	if err := s.store.Insert(next); err != nil {
		return nil, fmt.Errorf("insert next-cycle reminder: %w", err)
	}
	return next, nil
}

// DeleteForProperty removes every reminder owned by a property, for
// property deletion.
func (s *ReminderScheduler) DeleteForProperty(propertyID uuid.UUID) (int64, error) {
	return s.store.DeleteByProperty(propertyID)
}

func cycleDays() int {
	if env := os.Getenv("REMINDER_CYCLE_DAYS"); env != "" {
		if d, err := strconv.Atoi(env); err == nil && d > 0 {
			return d
		}
	}
	return defaultCycleDays
}
