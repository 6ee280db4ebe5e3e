package controllers

import (
	"fmt"
	"net/http"
	"propcare-backend/config"
	"propcare-backend/models"
	"propcare-backend/utils"
	"time"

	"github.com/gin-gonic/gin"
)

type UpcomingService struct {
	PropertyName string `json:"propertyName"`
	ServiceType  string `json:"serviceType"`
	Due          string `json:"due"` // e.g. "Today", "Tomorrow", "3 days"
}

type RecentInvoice struct {
	InvoiceNumber string  `json:"invoiceNumber"`
	PropertyName  string  `json:"propertyName"`
	Total         float64 `json:"total"`
	PaymentStatus string  `json:"paymentStatus"`
}

func GetDashboardOverview(c *gin.Context) {
	now := time.Now()

	// Total active properties
	var totalProperties int64
	config.DB.Model(&models.Property{}).Where("is_active = ? AND deleted_at IS NULL", true).Count(&totalProperties)

	// Total active laborers
	var totalLaborers int64
	config.DB.Model(&models.Laborer{}).Where("is_active = ? AND deleted_at IS NULL", true).Count(&totalLaborers)

	// Laborers present today
	today := utils.BeginningOfDay(now)
	var presentToday int64
	config.DB.Model(&models.Attendance{}).
		Where("date = ? AND status IN ? AND deleted_at IS NULL", today, []string{"present", "half-day"}).
		Count(&presentToday)

	// This Month's Revenue
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var monthlyRevenue float64
	config.DB.Model(&models.Invoice{}).
		Where("invoice_date >= ?", firstOfMonth).
		Select("COALESCE(SUM(total), 0)").Scan(&monthlyRevenue)

	// Unpaid invoice total
	var outstanding float64
	config.DB.Model(&models.Invoice{}).
		Where("payment_status IN ?", []string{"unpaid", "partial"}).
		Select("COALESCE(SUM(total - paid_amount), 0)").Scan(&outstanding)

	// Due and overdue reminder counts
	var dueReminders int64
	config.DB.Model(&models.Reminder{}).
		Where("next_reminder_time <= ? AND completed = ? AND deleted_at IS NULL", now, false).
		Count(&dueReminders)

	var overdueReminders int64
	config.DB.Model(&models.Reminder{}).
		Where("due_date < ? AND completed = ? AND deleted_at IS NULL", today, false).
		Count(&overdueReminders)

	// Upcoming services (next 7 days)
	var upcoming []UpcomingService
	type reminderRow struct {
		PropertyName string
		ServiceType  string
		DueDate      time.Time
	}
	var rows []reminderRow
	config.DB.Raw(`
        SELECT property_name, service_type, due_date
        FROM reminders
        WHERE completed = false AND deleted_at IS NULL
          AND due_date >= ? AND due_date < ?
        ORDER BY due_date ASC
        LIMIT 7
    `, today, today.AddDate(0, 0, 7)).Scan(&rows)

	for _, r := range rows {
		daysUntil := utils.DaysBetween(now, r.DueDate)
		var label string
		switch daysUntil {
		case 0:
			label = "Today"
		case 1:
			label = "Tomorrow"
		default:
			label = fmt.Sprintf("%d days", daysUntil)
		}
		upcoming = append(upcoming, UpcomingService{
			PropertyName: r.PropertyName,
			ServiceType:  r.ServiceType,
			Due:          label,
		})
	}

	// Recent invoices (last 5)
	var recentInvoices []RecentInvoice
	config.DB.Raw(`
        SELECT i.invoice_number, p.name AS property_name, i.total, i.payment_status
        FROM invoices i
        JOIN properties p ON p.id = i.property_id
        ORDER BY i.invoice_date DESC
        LIMIT 5
    `).Scan(&recentInvoices)

	response := gin.H{
		"totalProperties":  totalProperties,
		"totalLaborers":    totalLaborers,
		"presentToday":     presentToday,
		"monthlyRevenue":   monthlyRevenue,
		"outstanding":      outstanding,
		"dueReminders":     dueReminders,
		"overdueReminders": overdueReminders,
		"upcomingServices": upcoming,
		"recentInvoices":   recentInvoices,
	}

	c.JSON(http.StatusOK, response)
}
