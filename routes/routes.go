package routes

import (
	"propcare-backend/config"
	"propcare-backend/controllers"
	"propcare-backend/services"
	"propcare-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(scheduler *services.ReminderScheduler, poller *services.Poller) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	propertyController := controllers.PropertyController{Scheduler: scheduler}
	reminderController := controllers.ReminderController{Scheduler: scheduler, Poller: poller}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Property routes
		properties := api.Group("/properties")
		{
			properties.POST("", propertyController.CreateProperty)
			properties.GET("", propertyController.GetProperties)
			properties.GET("/:id", propertyController.GetProperty)
			properties.PUT("/:id", propertyController.UpdateProperty)
			properties.DELETE("/:id", propertyController.DeleteProperty)
		}

		// Laborer routes
		laborers := api.Group("/laborers")
		{
			laborers.POST("", controllers.CreateLaborer)
			laborers.GET("", controllers.GetLaborers)
			laborers.GET("/:id", controllers.GetLaborer)
			laborers.PUT("/:id", controllers.UpdateLaborer)
			laborers.DELETE("/:id", controllers.DeleteLaborer)
		}

		// Attendance routes
		attendance := api.Group("/attendance")
		{
			attendance.POST("", controllers.MarkAttendance)
			attendance.GET("", controllers.GetAttendanceByDate)
			attendance.GET("/report", controllers.GetMonthlyAttendanceReport)
		}

		// Service catalog routes
		catalog := api.Group("/services")
		{
			catalog.POST("", controllers.CreateService)
			catalog.GET("", controllers.GetServices)
			catalog.GET("/:id", controllers.GetService)
			catalog.PUT("/:id", controllers.UpdateService)
			catalog.DELETE("/:id", controllers.DeleteService)
		}

		// Invoice routes
		invoices := api.Group("/invoices")
		{
			invoices.POST("", controllers.CreateInvoice)
			invoices.GET("", controllers.GetInvoices)
			invoices.GET("/:id", controllers.GetInvoice)
			invoices.PUT("/:id", controllers.UpdateInvoice)
			invoices.DELETE("/:id", controllers.DeleteInvoice)
		}

		// Reminder routes
		reminders := api.Group("/reminders")
		{
			reminders.GET("", reminderController.GetReminders)
			reminders.GET("/:id", reminderController.GetReminder)
			reminders.PUT("/:id", reminderController.UpdateReminder)
			reminders.PUT("/:id/called", reminderController.MarkCalled)
			reminders.PUT("/:id/scheduled", reminderController.MarkScheduled)
			reminders.PUT("/:id/completed", reminderController.MarkCompleted)
			reminders.POST("/run", reminderController.RunPass)
		}

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)
	}

	return r
}
