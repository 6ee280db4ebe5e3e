package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attendance holds one row per laborer per calendar day.
type Attendance struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	LaborerID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_laborer_day,priority:1"`
	PropertyID *uuid.UUID `gorm:"type:uuid;index"` // site worked at, optional

	Date   time.Time `gorm:"type:date;not null;uniqueIndex:idx_laborer_day,priority:2"`
	Status string    `gorm:"type:varchar(20);not null"` // present, absent, half-day
	Notes  string

	MarkedByUserID uuid.UUID `gorm:"type:uuid;not null"`

	gorm.Model
}

func (a *Attendance) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
