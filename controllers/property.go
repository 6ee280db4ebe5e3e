// controllers/property.go
package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"propcare-backend/config"
	"propcare-backend/models"
	"propcare-backend/services"
	"propcare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyController wires the reminder scheduler into property
// lifecycle: creating a property seeds its reminder, deleting one
// removes its reminders.
type PropertyController struct {
	Scheduler *services.ReminderScheduler
}

// CreatePropertyInput defines the expected JSON structure for creating a property
type CreatePropertyInput struct {
	Name        string    `json:"name" binding:"required"`
	KeyPerson   string    `json:"keyPerson" binding:"required"`
	Contact     string    `json:"contact" binding:"required"`
	Location    string    `json:"location" binding:"required"`
	ServiceType string    `json:"serviceType" binding:"required"`
	ServiceDate time.Time `json:"serviceDate" binding:"required"`
	Notes       string    `json:"notes"`
}

// UpdatePropertyInput defines the expected JSON structure for updating a property
type UpdatePropertyInput struct {
	Name        *string    `json:"name"`
	KeyPerson   *string    `json:"keyPerson"`
	Contact     *string    `json:"contact"`
	Location    *string    `json:"location"`
	ServiceType *string    `json:"serviceType"`
	ServiceDate *time.Time `json:"serviceDate"`
	Notes       *string    `json:"notes"`
	IsActive    *bool      `json:"isActive"`
}

// CreateProperty creates a property and seeds its reminder
func (pc *PropertyController) CreateProperty(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreatePropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate phone format
	if !utils.ValidatePhone(input.Contact) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid contact number format")
		return
	}

	// Duplicate POSTs must not create a second property or reminder
	var existingProperty models.Property
	if err := config.DB.Where("name = ? AND location = ?", input.Name, input.Location).
		First(&existingProperty).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Property with this name and location already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	property := models.Property{
		ID:              uuid.New(),
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		Name:            input.Name,
		KeyPerson:       input.KeyPerson,
		Contact:         input.Contact,
		Location:        input.Location,
		ServiceType:     input.ServiceType,
		ServiceDate:     input.ServiceDate,
		Notes:           input.Notes,
		IsActive:        true,
	}

	if err := config.DB.Create(&property).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create property")
		return
	}

	// One reminder per property at creation
	reminder, err := pc.Scheduler.CreateFromProperty(&property)
	if err != nil {
		// Roll back so a storage fault leaves no half-created property.
		// Hard delete: a soft-deleted row would still hold the
		// name+location unique index and block every retry.
		config.DB.Unscoped().Delete(&property)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create reminder for property")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"property": property,
		"reminder": reminder,
	})
}

// GetProperties retrieves all properties
func (pc *PropertyController) GetProperties(c *gin.Context) {
	var properties []models.Property
	query := config.DB

	if active := c.Query("active"); active == "true" {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&properties).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve properties")
		return
	}

	c.JSON(http.StatusOK, properties)
}

// GetProperty retrieves a specific property by ID
func (pc *PropertyController) GetProperty(c *gin.Context) {
	propertyUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid property ID format")
		return
	}

	var property models.Property
	if err := config.DB.Where("id = ?", propertyUUID).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Property not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, property)
}

// UpdateProperty updates an existing property
func (pc *PropertyController) UpdateProperty(c *gin.Context) {
	propertyUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid property ID format")
		return
	}

	var input UpdatePropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Retrieve existing property
	var property models.Property
	if err := config.DB.Where("id = ?", propertyUUID).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Property not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// Update fields if provided
	if input.Name != nil {
		property.Name = *input.Name
	}
	if input.KeyPerson != nil {
		property.KeyPerson = *input.KeyPerson
	}
	if input.Contact != nil {
		if !utils.ValidatePhone(*input.Contact) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid contact number format")
			return
		}
		property.Contact = *input.Contact
	}
	if input.Location != nil {
		property.Location = *input.Location
	}
	if input.ServiceType != nil {
		property.ServiceType = *input.ServiceType
	}
	if input.ServiceDate != nil {
		property.ServiceDate = *input.ServiceDate
	}
	if input.Notes != nil {
		property.Notes = *input.Notes
	}
	if input.IsActive != nil {
		property.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&property).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update property")
		return
	}

	c.JSON(http.StatusOK, property)
}

// DeleteProperty deletes a property and its reminders
func (pc *PropertyController) DeleteProperty(c *gin.Context) {
	propertyUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid property ID format")
		return
	}

	result := config.DB.Where("id = ?", propertyUUID).Delete(&models.Property{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete property")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Property not found")
		return
	}

	deleted, err := pc.Scheduler.DeleteForProperty(propertyUUID)
	if err != nil {
		log.Printf("Failed to delete reminders for property %s: %v", propertyUUID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Property deleted successfully",
		"remindersDeleted": deleted,
	})
}
