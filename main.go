package main

import (
	"fmt"
	"log"
	"os"
	"propcare-backend/config"
	"propcare-backend/models"
	"propcare-backend/routes"
	"propcare-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Laborer{},
		&models.Attendance{},
		&models.Service{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Reminder{},
	)

	store := services.NewReminderStore(config.DB)
	scheduler := services.NewReminderScheduler(store)
	dispatcher := services.NewDispatcher()
	poller := services.NewPoller(scheduler, dispatcher)

	// Started exactly once here; Start refuses a second call
	if err := poller.Start(); err != nil {
		log.Fatalf("Failed to start reminder poller: %v", err)
	}
	defer poller.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter(scheduler, poller)
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
