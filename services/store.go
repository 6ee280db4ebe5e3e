// services/store.go
package services

import (
	"encoding/json"
	"time"

	"propcare-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// renotifyWindow is how long a reminder is left alone after any
// notification before the overdue re-notify query picks it up again.
const renotifyWindow = 24 * time.Hour

// ReminderStore is the persistence surface the scheduler works
// against. The gorm implementation below is the real one; tests use
// an in-memory fake.
type ReminderStore interface {
	Insert(reminder *models.Reminder) error
	FindByID(id uuid.UUID) (*models.Reminder, error)
	FindDue(now time.Time) ([]models.Reminder, error)
	FindStaleOverdue(now time.Time) ([]models.Reminder, error)
	// RecordNotification appends one history entry and marks the
	// reminder notified, as a single conditional update. It reports
	// false when the guard did not match (already notified and not
	// yet past the re-notify window), in which case nothing changed.
	RecordNotification(id uuid.UUID, entry models.NotificationEntry) (bool, error)
	DeleteByProperty(propertyID uuid.UUID) (int64, error)
	HasActiveForProperty(propertyID uuid.UUID) (bool, error)
}

type gormReminderStore struct {
	db *gorm.DB
}

func NewReminderStore(db *gorm.DB) ReminderStore {
	return &gormReminderStore{db: db}
}

func (s *gormReminderStore) Insert(reminder *models.Reminder) error {
	return s.db.Create(reminder).Error
}

func (s *gormReminderStore) FindByID(id uuid.UUID) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := s.db.Where("id = ?", id).First(&reminder).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (s *gormReminderStore) FindDue(now time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.
		Where("next_reminder_time <= ? AND notification_sent = ? AND completed = ?", now, false, false).
		Find(&reminders).Error
	return reminders, err
}

func (s *gormReminderStore) FindStaleOverdue(now time.Time) ([]models.Reminder, error) {
	cutoff := now.Add(-renotifyWindow)

	var reminders []models.Reminder
	err := s.db.
		Where(`due_date < ? AND completed = false AND scheduled = false
			AND (jsonb_array_length(COALESCE(notification_history, '[]'::jsonb)) = 0
				OR (notification_history -> -1 ->> 'sent_at')::timestamptz < ?)`,
			cutoff, cutoff).
		Find(&reminders).Error
	return reminders, err
}

func (s *gormReminderStore) RecordNotification(id uuid.UUID, entry models.NotificationEntry) (bool, error) {
	payload, err := json.Marshal(models.NotificationHistory{entry})
	if err != nil {
		return false, err
	}
	cutoff := entry.SentAt.Add(-renotifyWindow)

	// Conditional append: either this is the first notification
	// (notification_sent still false) or the last recorded send is
	// past the re-notify window. At most one concurrent caller
	// matches the guard, so racing passes cannot double-record.
	res := s.db.Exec(`
		UPDATE reminders
		SET notification_history = COALESCE(notification_history, '[]'::jsonb) || ?::jsonb,
		    notification_sent = true,
		    updated_at = NOW()
		WHERE id = ? AND completed = false
		  AND (notification_sent = false
		       OR jsonb_array_length(COALESCE(notification_history, '[]'::jsonb)) = 0
		       OR (notification_history -> -1 ->> 'sent_at')::timestamptz < ?)`,
		string(payload), id, cutoff)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *gormReminderStore) DeleteByProperty(propertyID uuid.UUID) (int64, error) {
	res := s.db.Where("property_id = ?", propertyID).Delete(&models.Reminder{})
	return res.RowsAffected, res.Error
}

func (s *gormReminderStore) HasActiveForProperty(propertyID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Reminder{}).
		Where("property_id = ? AND completed = ?", propertyID, false).
		Count(&count).Error
	return count > 0, err
}
