package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/scrapmate/scrapmate-api/config"
	"github.com/scrapmate/scrapmate-api/controllers"
	"github.com/scrapmate/scrapmate-api/middleware"
	"github.com/scrapmate/scrapmate-api/models"
	"github.com/scrapmate/scrapmate-api/services"
	"github.com/scrapmate/scrapmate-api/utils"
	"gorm.io/gorm"
)

func main() {
	// Basic logging
	log.Println("Starting Scrapmate API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PickupRequest{},
		&models.PickupItem{},
		&models.Message{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Weigh-slip photo storage: S3 when a bucket is configured, local disk
	// otherwise
	var images services.ImageService
	if cfg.HasS3() {
		s3Service, err := services.NewS3Service(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		images = services.NewS3ImageService(s3Service)
		log.Printf("Weigh-slip photos stored in S3 bucket %s", cfg.AWSS3Bucket)
	} else {
		images = services.NewLocalImageService(utils.UploadDir, "/api/v1/uploads")
		log.Printf("Weigh-slip photos stored locally under %s", utils.UploadDir)
	}

	// Core components, constructed once and injected everywhere
	auth := services.NewAuthService(db, cfg.VerificationCode)
	store := services.NewPickupStore(db)
	engine := services.NewPickupEngine(store)
	views := services.NewPickupViews(store)

	router := buildRouter(db, auth, store, engine, views, images)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildRouter assembles the Gin engine with all routes and middleware
func buildRouter(db *gorm.DB, auth *services.AuthService, store *services.PickupStore, engine *services.PickupEngine, views *services.PickupViews, images services.ImageService) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	authController := controllers.NewAuthController(auth)
	pickupController := controllers.NewPickupController(engine, views, store, images)
	messageController := controllers.NewMessageController(db, store)
	uploadController := controllers.NewUploadController(engine, images)

	requireSession := middleware.RequireSession(auth)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus(db))

		v1.POST("/auth/login", authController.Login)
		v1.GET("/auth/me", requireSession, authController.Me)
		v1.POST("/auth/logout", requireSession, authController.Logout)

		v1.POST("/pickups", requireSession, pickupController.CreatePickup)
		v1.GET("/pickups", requireSession, pickupController.ListPickups)
		v1.GET("/pickups/:id", requireSession, pickupController.GetPickup)
		v1.POST("/pickups/:id/accept", requireSession, pickupController.AcceptPickup)
		v1.POST("/pickups/:id/start", requireSession, pickupController.StartPickup)
		v1.POST("/pickups/:id/items", requireSession, pickupController.SubmitItems)
		v1.POST("/pickups/:id/approve", requireSession, pickupController.ApprovePickup)

		v1.GET("/dashboard", requireSession, pickupController.Dashboard)

		v1.POST("/pickups/:id/messages", requireSession, messageController.SendMessage)
		v1.GET("/pickups/:id/messages", requireSession, messageController.ListMessages)

		v1.POST("/pickups/:id/weigh-slip", requireSession, uploadController.UploadWeighSlip)
		v1.GET("/uploads/:filename", uploadController.GetUploadedImage)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scrapmate API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the underlying SQL database to check connection
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to get database instance",
				},
			})
			return
		}

		// Ping the database to verify connection
		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_CONNECTION_ERROR",
					"message": "Database connection failed",
				},
			})
			return
		}

		// List tables through the migrator so this works on both SQLite
		// and Postgres
		tables, err := db.Migrator().GetTables()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_QUERY_ERROR",
					"message": "Failed to query tables",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database connected",
			"tables":  tables,
		})
	}
}
