package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/config"
	"github.com/minhqngo/staymate/internal/handler"
	"github.com/minhqngo/staymate/internal/middleware"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/repository"
	"github.com/minhqngo/staymate/internal/service"
	"github.com/minhqngo/staymate/internal/ws"
	"github.com/minhqngo/staymate/migrations"
	"github.com/minhqngo/staymate/pkg/auth"
	"github.com/minhqngo/staymate/pkg/mailer"
	"github.com/minhqngo/staymate/pkg/notification"
	"github.com/minhqngo/staymate/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title           StayMate API
// @version         1.0
// @description     Homestay marketplace API: listings, bookmarks and per-listing guest-host messaging with realtime delivery.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@staymate.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting StayMate API Server [env=%s]", cfg.App.Env)

	// ==================== Database (PostgreSQL) ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		if err := db.AutoMigrate(
			&model.User{},
			&model.OTPCode{},
			&model.UserDevice{},
			&model.Listing{},
			&model.SavedListing{},
			&model.Conversation{},
			&model.Message{},
		); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	}
	log.Println("✅ Database migrated successfully")

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// ==================== Email (SMTP / Mailpit) ====================
	mailClient := mailer.NewMailer(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	log.Printf("📧 SMTP configured: %s:%s", cfg.SMTP.Host, cfg.SMTP.Port)

	// ==================== Initialize Layers ====================
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	listingRepo := repository.NewListingRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, otpRepo, jwtManager, mailClient, rdb, cfg.Google.ClientID)
	listingService := service.NewListingService(listingRepo, userRepo)
	chatService := service.NewChatService(convRepo, msgRepo, listingRepo)

	// Push notifications (FCM)
	notifService, err := notification.NewNotificationService(cfg.Firebase.CredentialsFile, userRepo)
	if err != nil {
		log.Printf("⚠️  FCM setup failed: %v", err)
	}

	// WebSocket Hub (with Redis Pub/Sub for horizontal scaling)
	hub := ws.NewHub(rdb, func(userID uuid.UUID, online bool) {
		_ = userRepo.UpdateOnlineStatus(userID, online)
		log.Printf("👤 User %s is now %s", userID, map[bool]string{true: "ONLINE", false: "OFFLINE"}[online])
	})

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// MinIO Storage
	minioStorage, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Printf("⚠️  MinIO not available: %v (file upload disabled)", err)
	}
	if minioStorage != nil {
		log.Println("✅ Connected to MinIO")
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	listingHandler := handler.NewListingHandler(listingService)
	chatHandler := handler.NewChatHandler(chatService, hub, notifService)
	wsHandler := handler.NewWSHandler(hub, chatService, chatHandler, jwtManager)
	uploadHandler := handler.NewUploadHandler(minioStorage)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger: serve swagger.json at /docs/swagger.json to avoid conflict
	// with the /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))
	router.Use(middleware.MetricsMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "staymate-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/verify-otp", authHandler.VerifyOTP)
			authGroup.POST("/resend-otp", authHandler.ResendOTP)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/google", authHandler.GoogleLogin)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Auth + profile
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.POST("/profile/setup", authHandler.SetupProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.PUT("/profile/settings", authHandler.UpdateSettings)
			protected.POST("/profile/devices", authHandler.RegisterDevice)

			// Listings
			protected.POST("/listings", listingHandler.CreateListing)
			protected.GET("/listings", listingHandler.Browse)
			protected.GET("/listings/my", listingHandler.MyListings)
			protected.GET("/listings/saved", listingHandler.SavedListings)
			protected.GET("/listings/:id", listingHandler.GetListing)
			protected.PUT("/listings/:id", listingHandler.UpdateListing)
			protected.DELETE("/listings/:id", listingHandler.DeleteListing)
			protected.POST("/listings/:id/save", listingHandler.SaveListing)
			protected.DELETE("/listings/:id/save", listingHandler.UnsaveListing)

			// Conversations
			protected.GET("/conversations", chatHandler.GetConversations)
			protected.POST("/conversations/contact", chatHandler.ContactHost)
			protected.GET("/conversations/unread-count", chatHandler.GetUnreadCount)
			protected.GET("/conversations/:id", chatHandler.GetConversation)
			protected.DELETE("/conversations/:id", chatHandler.DeleteConversation)
			protected.PATCH("/conversations/:id/flags/:flag", chatHandler.ToggleFlag)
			protected.PUT("/conversations/:id/archive", chatHandler.SetArchived)

			// Messages
			protected.GET("/conversations/:id/messages", chatHandler.GetMessages)
			protected.POST("/conversations/:id/messages", chatHandler.SendMessage)
			protected.POST("/conversations/:id/read", chatHandler.MarkRead)

			// Upload
			protected.POST("/upload", uploadHandler.UploadImage)
			protected.POST("/upload/multiple", uploadHandler.UploadMultiple)
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 StayMate API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
	log.Printf("🔌 WebSocket: ws://0.0.0.0:%s/ws?token=<jwt>", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	hubCancel()
	log.Println("✅ Server exited gracefully")
}
