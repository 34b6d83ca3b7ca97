package main

import (
	"log"
	"os"

	"assignment-management-api/config"
	"assignment-management-api/middleware"
	"assignment-management-api/monitor"
	"assignment-management-api/routes"
	"assignment-management-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	config.ReloadMailerConfig()

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	svc := buildAssignmentService()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = config.LogWriter

	// Create Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	router.Use(middleware.CORSMiddleware())

	// Register /logs route early (before 404 catch-all in SetupRoutes)
	monitor.RegisterLogsRoute(router, os.Getenv("LOG_ACCESS_TOKEN"))
	monitor.RegisterMonitorPage(router)

	routes.SetupRoutes(router, svc)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s (db driver: %s)", port, config.DBDriver())
	if ginMode == "release" {
		log.Printf("Running in production mode")
	} else {
		log.Printf("Running in development mode")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// buildAssignmentService picks the storage and reminder queue backends from DB_DRIVER.
// "memory" keeps everything in process; anything else uses the SQL database and Redis.
func buildAssignmentService() *services.AssignmentService {
	if config.DBDriver() == "memory" {
		log.Printf("Using in-memory store and mail queue; data is lost on restart")
		return services.NewAssignmentService(services.NewMemoryStore(), services.NewMemoryMailQueue())
	}

	config.InitDB()
	client := config.InitRedis()
	return services.NewAssignmentService(
		services.NewGormStore(config.DB),
		services.NewRedisMailQueue(client, services.MailerQueueName),
	)
}
