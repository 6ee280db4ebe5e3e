package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Laborer struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name      string  `gorm:"not null"`
	Phone     string  `gorm:"not null;uniqueIndex"`
	Role      string  `gorm:"default:'general'"` // cleaner, technician, supervisor
	DailyWage float64 `gorm:"type:decimal(10,2);default:0.0"`

	JoinedAt *time.Time
	IsActive bool `gorm:"default:true"`

	Attendance []Attendance `gorm:"foreignKey:LaborerID"`

	gorm.Model
}

func (l *Laborer) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
