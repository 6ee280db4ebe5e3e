package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder statuses. Manual status edits move scheduled -> called ->
// scheduled/completed; the notification job never writes Status.
const (
	ReminderStatusPending   = "pending"
	ReminderStatusCalled    = "called"
	ReminderStatusScheduled = "scheduled"
	ReminderStatusCompleted = "completed"
)

// Notification types produced by classification.
const (
	NotificationOverdue = "overdue"
	NotificationDue     = "due"
	NotificationCustom  = "custom"
)

// Reminder is one follow-up record per property service cycle.
type Reminder struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	PropertyID uuid.UUID `gorm:"type:uuid;index;not null"`

	// Denormalized property snapshot taken at creation, so a pass
	// can format messages without joining properties.
	PropertyName string `gorm:"not null"`
	KeyPerson    string
	Contact      string
	Location     string
	ServiceType  string

	LastServiceDate *time.Time // nil = new service, never serviced
	IsNewService    bool       `gorm:"default:false"`

	DueDate          time.Time `gorm:"index;not null"` // calendar anchor for overdue classification
	NextReminderTime time.Time `gorm:"index;not null"` // the only field the due-query reads

	Status    string `gorm:"type:varchar(20);default:'scheduled'"`
	Called    bool   `gorm:"default:false"`
	Scheduled bool   `gorm:"default:false"`
	Completed bool   `gorm:"default:false"`
	Notes     string

	CustomReminderHours int `gorm:"default:0"` // overrides default cadence when > 0

	NotificationSent    bool                `gorm:"default:false"`
	NotificationHistory NotificationHistory `gorm:"type:jsonb;default:'[]'"`

	EscalationLevel int `gorm:"default:0"`
	CallAttempts    int `gorm:"default:0"`
	LastCallAttempt *time.Time

	gorm.Model
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.NotificationHistory == nil {
		r.NotificationHistory = NotificationHistory{}
	}
	return
}

// NotificationEntry is one audit record of a sent notification.
// Entries are append-only; the last entry's SentAt doubles as the
// re-notification suppression state.
type NotificationEntry struct {
	SentAt  time.Time `json:"sent_at"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
}

// NotificationHistory is stored as a jsonb array.
type NotificationHistory []NotificationEntry

func (h NotificationHistory) Value() (driver.Value, error) {
	if h == nil {
		h = NotificationHistory{}
	}
	return json.Marshal(h)
}

func (h *NotificationHistory) Scan(value interface{}) error {
	if value == nil {
		*h = NotificationHistory{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, h)
}

// LastSentAt returns the most recent entry's timestamp, or a zero
// time when the history is empty.
func (h NotificationHistory) LastSentAt() time.Time {
	if len(h) == 0 {
		return time.Time{}
	}
	return h[len(h)-1].SentAt
}
