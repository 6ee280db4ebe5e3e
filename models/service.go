package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is a billable service type from the catalog (pest control,
// deep clean, tank clean...). Invoice items are priced from it.
type Service struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"not null;uniqueIndex"`
	Description string
	Price       float64 `gorm:"type:decimal(10,2);not null"`
	Duration    int     // in minutes
	Category    string  `gorm:"default:'General'"`
	IsActive    bool    `gorm:"default:true"`

	InvoiceItems []InvoiceItem `gorm:"foreignKey:ServiceID"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
