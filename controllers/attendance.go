// controllers/attendance.go
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

// MarkAttendanceInput defines the expected JSON structure for marking attendance
type MarkAttendanceInput struct {
	LaborerID  uuid.UUID  `json:"laborerId" binding:"required"`
	PropertyID *uuid.UUID `json:"propertyId"`
	Date       *time.Time `json:"date"`
	Status     string     `json:"status" binding:"required,oneof=present absent half-day"`
	Notes      string     `json:"notes"`
}

// MarkAttendance records attendance for a laborer; marking the same
// day twice updates the existing row instead of duplicating it
func MarkAttendance(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input MarkAttendanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate laborer exists
	var laborer models.Laborer
	if err := config.DB.Where("id = ?", input.LaborerID).First(&laborer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Laborer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	day := time.Now()
	if input.Date != nil {
		day = *input.Date
	}
	day = utils.BeginningOfDay(day)

	markedBy := uuid.Must(uuid.Parse(userID.(string)))

	// Upsert on (laborer, day)
	var attendance models.Attendance
	err := config.DB.Where("laborer_id = ? AND date = ?", input.LaborerID, day).
		First(&attendance).Error
	if err == nil {
		attendance.Status = input.Status
		attendance.Notes = input.Notes
		attendance.PropertyID = input.PropertyID
		attendance.MarkedByUserID = markedBy
		if err := config.DB.Save(&attendance).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update attendance")
			return
		}
		c.JSON(http.StatusOK, attendance)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	attendance = models.Attendance{
		ID:             uuid.New(),
		LaborerID:      input.LaborerID,
		PropertyID:     input.PropertyID,
		Date:           day,
		Status:         input.Status,
		Notes:          input.Notes,
		MarkedByUserID: markedBy,
	}

	if err := config.DB.Create(&attendance).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to mark attendance")
		return
	}

	c.JSON(http.StatusCreated, attendance)
}

// GetAttendanceByDate lists attendance rows for one day (default today)
func GetAttendanceByDate(c *gin.Context) {
	day := time.Now()
	if q := c.Query("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}
	day = utils.BeginningOfDay(day)

	var attendance []models.Attendance
	if err := config.DB.Where("date = ?", day).Find(&attendance).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve attendance")
		return
	}

	c.JSON(http.StatusOK, attendance)
}

// LaborerAttendanceSummary is one row of the monthly report
type LaborerAttendanceSummary struct {
	LaborerID   uuid.UUID `json:"laborerId"`
	LaborerName string    `json:"laborerName"`
	Present     int       `json:"present"`
	HalfDay     int       `json:"halfDay"`
	Absent      int       `json:"absent"`
	WagesOwed   float64   `json:"wagesOwed"`
}

// GetMonthlyAttendanceReport aggregates attendance and wages for a month
func GetMonthlyAttendanceReport(c *gin.Context) {
	now := time.Now()
	month := now.Format("2006-01")
	if q := c.Query("month"); q != "" {
		month = q
	}
	firstOfMonth, err := time.Parse("2006-01", month)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid month, expected YYYY-MM")
		return
	}
	nextMonth := firstOfMonth.AddDate(0, 1, 0)

	var summaries []LaborerAttendanceSummary
	err = config.DB.Raw(`
        SELECT l.id AS laborer_id,
               l.name AS laborer_name,
               COUNT(*) FILTER (WHERE a.status = 'present') AS present,
               COUNT(*) FILTER (WHERE a.status = 'half-day') AS half_day,
               COUNT(*) FILTER (WHERE a.status = 'absent') AS absent,
               (COUNT(*) FILTER (WHERE a.status = 'present')
                + 0.5 * COUNT(*) FILTER (WHERE a.status = 'half-day')) * l.daily_wage AS wages_owed
        FROM laborers l
        LEFT JOIN attendances a
               ON a.laborer_id = l.id
              AND a.date >= ? AND a.date < ?
              AND a.deleted_at IS NULL
        WHERE l.deleted_at IS NULL
        GROUP BY l.id, l.name, l.daily_wage
        ORDER BY l.name
    `, firstOfMonth, nextMonth).Scan(&summaries).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build attendance report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"month":    month,
		"laborers": summaries,
	})
}
