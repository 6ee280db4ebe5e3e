package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Property struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name      string `gorm:"not null;uniqueIndex:idx_property_name_location,priority:1"`
	KeyPerson string `gorm:"not null"` // on-site contact person
	Contact   string `gorm:"not null"` // phone of the key person
	Location  string `gorm:"not null;uniqueIndex:idx_property_name_location,priority:2"`

	ServiceType string    `gorm:"not null"` // e.g. pest-control, deep-clean, tank-clean
	ServiceDate time.Time `gorm:"not null"` // first/next scheduled service visit
	Notes       string

	IsActive bool `gorm:"default:true"`

	Invoices []Invoice `gorm:"foreignKey:PropertyID"`

	gorm.Model
}

func (p *Property) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
