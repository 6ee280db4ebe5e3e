// controllers/invoice.go
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

// InvoiceItemInput defines the structure for an invoice item
type InvoiceItemInput struct {
	ServiceID uuid.UUID `json:"serviceId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=1"`
}

// CreateInvoiceInput defines the expected JSON structure for creating an invoice
type CreateInvoiceInput struct {
	PropertyID    uuid.UUID          `json:"propertyId" binding:"required"`
	InvoiceDate   *time.Time         `json:"invoiceDate"`
	Items         []InvoiceItemInput `json:"items" binding:"required,min=1"`
	Discount      float64            `json:"discount" binding:"min=0"`
	Tax           float64            `json:"tax" binding:"min=0"`
	PaymentStatus string             `json:"paymentStatus" binding:"oneof=paid unpaid partial"`
	PaidAmount    float64            `json:"paidAmount" binding:"min=0"`
	PaymentMethod string             `json:"paymentMethod"`
	Notes         string             `json:"notes"`
}

// UpdateInvoiceInput defines the expected JSON structure for updating an invoice
type UpdateInvoiceInput struct {
	PaymentStatus *string  `json:"paymentStatus" binding:"omitempty,oneof=paid unpaid partial"`
	PaidAmount    *float64 `json:"paidAmount" binding:"omitempty,min=0"`
	PaymentMethod *string  `json:"paymentMethod"`
	Notes         *string  `json:"notes"`
}

// CreateInvoice creates a new invoice for a property
func CreateInvoice(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate property exists
	var property models.Property
	if err := config.DB.Where("id = ?", input.PropertyID).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Property not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// Validate and calculate invoice items
	var subtotal float64 = 0
	var invoiceItems []models.InvoiceItem

	for _, item := range input.Items {
		var service models.Service
		if err := config.DB.Where("id = ?", item.ServiceID).First(&service).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Service not found: "+item.ServiceID.String())
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}

		itemTotal := service.Price * float64(item.Quantity)
		subtotal += itemTotal

		invoiceItems = append(invoiceItems, models.InvoiceItem{
			ID:          uuid.New(),
			ServiceID:   service.ID,
			ServiceName: service.Name,
			Quantity:    item.Quantity,
			UnitPrice:   service.Price,
			TotalPrice:  itemTotal,
		})
	}

	// Calculate total
	total := subtotal - input.Discount + (subtotal * input.Tax / 100)

	// Set default invoice date to now if not provided
	invoiceDate := time.Now()
	if input.InvoiceDate != nil {
		invoiceDate = *input.InvoiceDate
	}

	invoice := models.Invoice{
		ID:              uuid.New(),
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		PropertyID:      input.PropertyID,
		InvoiceDate:     invoiceDate,
		Subtotal:        subtotal,
		Discount:        input.Discount,
		Tax:             input.Tax,
		Total:           total,
		PaymentStatus:   input.PaymentStatus,
		PaidAmount:      input.PaidAmount,
		PaymentMethod:   input.PaymentMethod,
		Notes:           input.Notes,
		Items:           invoiceItems,
	}

	invoice.InvoiceNumber = "INV-" + time.Now().Format("20060102") + "-" + utils.GenerateRandomString(6)

	// Start transaction
	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to commit invoice")
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// GetInvoices retrieves all invoices, optionally filtered by property
func GetInvoices(c *gin.Context) {
	query := config.DB.Preload("Items")

	if propertyID := c.Query("propertyId"); propertyID != "" {
		propertyUUID, err := uuid.Parse(propertyID)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid property ID format")
			return
		}
		query = query.Where("property_id = ?", propertyUUID)
	}
	if status := c.Query("paymentStatus"); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var invoices []models.Invoice
	if err := query.Order("invoice_date DESC").Find(&invoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoice retrieves a specific invoice by ID
func GetInvoice(c *gin.Context) {
	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var invoice models.Invoice
	if err := config.DB.Preload("Items").Where("id = ?", invoiceUUID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice updates payment fields on an existing invoice
func UpdateInvoice(c *gin.Context) {
	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var input UpdateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var invoice models.Invoice
	if err := config.DB.Where("id = ?", invoiceUUID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.PaymentStatus != nil {
		invoice.PaymentStatus = *input.PaymentStatus
	}
	if input.PaidAmount != nil {
		invoice.PaidAmount = *input.PaidAmount
	}
	if input.PaymentMethod != nil {
		invoice.PaymentMethod = *input.PaymentMethod
	}
	if input.Notes != nil {
		invoice.Notes = *input.Notes
	}

	if err := config.DB.Save(&invoice).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice deletes an invoice and its items
func DeleteInvoice(c *gin.Context) {
	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	tx := config.DB.Begin()
	if err := tx.Where("invoice_id = ?", invoiceUUID).Delete(&models.InvoiceItem{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice items")
		return
	}

	result := tx.Where("id = ?", invoiceUUID).Delete(&models.Invoice{})
	if result.Error != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice")
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to commit delete")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}
