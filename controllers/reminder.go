// controllers/reminder.go
package controllers

import (
	"errors"
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

// ReminderController exposes the reminder records and the manual
// trigger for the notification pass.
type ReminderController struct {
	Scheduler *services.ReminderScheduler
	Poller    *services.Poller
}

// UpdateReminderInput defines the editable reminder fields
type UpdateReminderInput struct {
	Notes               *string `json:"notes"`
	CustomReminderHours *int    `json:"customReminderHours" binding:"omitempty,min=0"`
	EscalationLevel     *int    `json:"escalationLevel" binding:"omitempty,min=0"`
}

// MarkScheduledInput carries the rescheduled due date
type MarkScheduledInput struct {
	DueDate time.Time `json:"dueDate" binding:"required"`
	Notes   string    `json:"notes"`
}

// GetReminders lists reminders, filterable by status and due-ness
func (rc *ReminderController) GetReminders(c *gin.Context) {
	query := config.DB

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if c.Query("due") == "true" {
		query = query.Where("next_reminder_time <= ? AND completed = ?", time.Now(), false)
	}
	if c.Query("completed") == "false" {
		query = query.Where("completed = ?", false)
	}

	var reminders []models.Reminder
	if err := query.Order("next_reminder_time ASC").Find(&reminders).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminders")
		return
	}

	c.JSON(http.StatusOK, reminders)
}

// GetReminder retrieves a specific reminder by ID
func (rc *ReminderController) GetReminder(c *gin.Context) {
	reminderUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid reminder ID format")
		return
	}

	var reminder models.Reminder
	if err := config.DB.Where("id = ?", reminderUUID).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Reminder not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// UpdateReminder edits notes, custom cadence and escalation level
func (rc *ReminderController) UpdateReminder(c *gin.Context) {
	reminderUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid reminder ID format")
		return
	}

	var input UpdateReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var reminder models.Reminder
	if err := config.DB.Where("id = ?", reminderUUID).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Reminder not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Notes != nil {
		reminder.Notes = *input.Notes
	}
	if input.CustomReminderHours != nil {
		reminder.CustomReminderHours = *input.CustomReminderHours
	}
	if input.EscalationLevel != nil {
		reminder.EscalationLevel = *input.EscalationLevel
	}

	if err := config.DB.Save(&reminder).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update reminder")
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// MarkCalled records a call attempt against the reminder
func (rc *ReminderController) MarkCalled(c *gin.Context) {
	reminderUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid reminder ID format")
		return
	}

	var reminder models.Reminder
	if err := config.DB.Where("id = ?", reminderUUID).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Reminder not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if reminder.Completed {
		utils.RespondWithError(c, http.StatusConflict, "Reminder is already completed")
		return
	}

	now := time.Now()
	reminder.Status = models.ReminderStatusCalled
	reminder.Called = true
	// The flags mirror the status transition: a called reminder is no
	// longer scheduled, which keeps it visible to the overdue
	// re-notification query until it is rescheduled or completed.
	reminder.Scheduled = false
	reminder.CallAttempts++
	reminder.LastCallAttempt = &now

	if err := config.DB.Save(&reminder).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update reminder")
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// MarkScheduled reschedules the reminder to a new due date and arms
// it for a fresh notification
func (rc *ReminderController) MarkScheduled(c *gin.Context) {
	reminderUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid reminder ID format")
		return
	}

	var input MarkScheduledInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var reminder models.Reminder
	if err := config.DB.Where("id = ?", reminderUUID).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Reminder not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if reminder.Completed {
		utils.RespondWithError(c, http.StatusConflict, "Reminder is already completed")
		return
	}

	reminder.Status = models.ReminderStatusScheduled
	reminder.Scheduled = true
	reminder.DueDate = input.DueDate
	reminder.NextReminderTime = input.DueDate
	reminder.NotificationSent = false
	if input.Notes != "" {
		reminder.Notes = input.Notes
	}

	if err := config.DB.Save(&reminder).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update reminder")
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// MarkCompleted closes this cycle and seeds the next one
func (rc *ReminderController) MarkCompleted(c *gin.Context) {
	reminderUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid reminder ID format")
		return
	}

	var reminder models.Reminder
	if err := config.DB.Where("id = ?", reminderUUID).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Reminder not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if reminder.Completed {
		utils.RespondWithError(c, http.StatusConflict, "Reminder is already completed")
		return
	}

	now := time.Now()
	reminder.Status = models.ReminderStatusCompleted
	reminder.Completed = true
	reminder.LastServiceDate = &now

	if err := config.DB.Save(&reminder).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update reminder")
		return
	}

	next, err := rc.Scheduler.RollForward(&reminder, now)
	if err != nil {
		if errors.Is(err, services.ErrActiveReminderExists) {
			// Another active reminder already covers this property
			c.JSON(http.StatusOK, gin.H{"completed": reminder})
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Completed, but failed to seed next cycle")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"completed": reminder,
		"next":      next,
	})
}

// RunPass triggers one notification pass immediately
func (rc *ReminderController) RunPass(c *gin.Context) {
	result, err := rc.Poller.RunPass(time.Now())
	if err != nil {
		if errors.Is(err, services.ErrPassInProgress) {
			utils.RespondWithError(c, http.StatusConflict, "A notification pass is already running")
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Notification pass failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}
