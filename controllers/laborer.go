// controllers/laborer.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"propcare-backend/config"
	"propcare-backend/models"
	"propcare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateLaborerInput defines the expected JSON structure for creating a laborer
type CreateLaborerInput struct {
	Name      string     `json:"name" binding:"required"`
	Phone     string     `json:"phone" binding:"required"`
	Role      string     `json:"role"`
	DailyWage float64    `json:"dailyWage" binding:"min=0"`
	JoinedAt  *time.Time `json:"joinedAt"`
}

// UpdateLaborerInput defines the expected JSON structure for updating a laborer
type UpdateLaborerInput struct {
	Name      *string  `json:"name"`
	Phone     *string  `json:"phone"`
	Role      *string  `json:"role"`
	DailyWage *float64 `json:"dailyWage"`
	IsActive  *bool    `json:"isActive"`
}

// CreateLaborer creates a new laborer
func CreateLaborer(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateLaborerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate phone format
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	// Check if phone already exists
	var existingLaborer models.Laborer
	if err := config.DB.Where("phone = ?", input.Phone).
		First(&existingLaborer).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Laborer with this phone number already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	laborer := models.Laborer{
		ID:              uuid.New(),
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		Name:            input.Name,
		Phone:           input.Phone,
		DailyWage:       input.DailyWage,
		JoinedAt:        input.JoinedAt,
		IsActive:        true,
	}
	if input.Role != "" {
		laborer.Role = input.Role
	}

	if err := config.DB.Create(&laborer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create laborer")
		return
	}

	c.JSON(http.StatusCreated, laborer)
}

// GetLaborers retrieves all laborers
func GetLaborers(c *gin.Context) {
	var laborers []models.Laborer
	query := config.DB

	if active := c.Query("active"); active == "true" {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&laborers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve laborers")
		return
	}

	c.JSON(http.StatusOK, laborers)
}

// GetLaborer retrieves a specific laborer by ID
func GetLaborer(c *gin.Context) {
	laborerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid laborer ID format")
		return
	}

	var laborer models.Laborer
	if err := config.DB.Where("id = ?", laborerUUID).First(&laborer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Laborer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, laborer)
}

// UpdateLaborer updates an existing laborer
func UpdateLaborer(c *gin.Context) {
	laborerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid laborer ID format")
		return
	}

	var input UpdateLaborerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var laborer models.Laborer
	if err := config.DB.Where("id = ?", laborerUUID).First(&laborer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Laborer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		laborer.Name = *input.Name
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		if laborer.Phone != *input.Phone {
			var existingLaborer models.Laborer
			if err := config.DB.Where("phone = ?", *input.Phone).
				First(&existingLaborer).Error; err == nil {
				utils.RespondWithError(c, http.StatusConflict, "Another laborer with this phone number already exists")
				return
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			}
		}
		laborer.Phone = *input.Phone
	}
	if input.Role != nil {
		laborer.Role = *input.Role
	}
	if input.DailyWage != nil {
		laborer.DailyWage = *input.DailyWage
	}
	if input.IsActive != nil {
		laborer.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&laborer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update laborer")
		return
	}

	c.JSON(http.StatusOK, laborer)
}

// DeleteLaborer soft deletes a laborer
func DeleteLaborer(c *gin.Context) {
	laborerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid laborer ID format")
		return
	}

	result := config.DB.Where("id = ?", laborerUUID).Delete(&models.Laborer{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete laborer")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Laborer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Laborer deleted successfully"})
}
