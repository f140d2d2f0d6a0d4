package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adityarh/antarin/internal/config"
	"github.com/adityarh/antarin/internal/handler"
	"github.com/adityarh/antarin/internal/middleware"
	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/internal/repository"
	"github.com/adityarh/antarin/internal/service"
	"github.com/adityarh/antarin/internal/ws"
	"github.com/adityarh/antarin/migrations"
	"github.com/adityarh/antarin/pkg/auth"
	"github.com/adityarh/antarin/pkg/mailer"
	"github.com/adityarh/antarin/pkg/notification"
	"github.com/adityarh/antarin/pkg/sms"
	"github.com/adityarh/antarin/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title           Antarin API
// @version         1.0
// @description     Ride-hailing backend: phone+OTP auth, coin wallet, driver onboarding and order dispatch.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@antarin.id

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
	log.Printf("🚀 Starting Antarin API Server [env=%s]", cfg.App.Env)

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
			&model.UserDevice{},
			&model.OtpRecord{},
			&model.DriverProfile{},
			&model.Wallet{},
			&model.CoinTransaction{},
			&model.Order{},
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
	mailClient := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	log.Printf("📧 SMTP configured: %s:%s", cfg.SMTP.Host, cfg.SMTP.Port)

	// ==================== SMS Gateway (AWS SNS) ====================
	var smsSender sms.Sender
	if cfg.App.Env == "production" {
		snsSender, err := sms.NewSNSSender(ctx, cfg.SNS.Region, cfg.SNS.SenderID)
		if err != nil {
			log.Fatalf("❌ Failed to configure SNS: %v", err)
		}
		smsSender = snsSender
		log.Printf("📱 SNS configured: region=%s sender=%s", cfg.SNS.Region, cfg.SNS.SenderID)
	} else {
		smsSender = sms.NewLogSender()
		log.Println("📱 Dev SMS sender: codes are written to the server log")
	}

	// ==================== MinIO Storage ====================
	minioStorage, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Printf("⚠️  MinIO not available: %v (document upload disabled)", err)
	}
	if minioStorage != nil {
		log.Println("✅ Connected to MinIO")
	}

	// ==================== Initialize Layers ====================
	// JWT Manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Push notifications (FCM)
	fcm, err := notification.NewNotificationService(cfg.Firebase.CredentialsFile, userRepo)
	if err != nil {
		log.Printf("⚠️  Firebase not available: %v (push notifications disabled)", err)
	}
	if fcm != nil {
		log.Println("✅ Firebase Messaging configured")
	}

	// WebSocket Hub (with Redis Pub/Sub for horizontal scaling)
	hub := ws.NewHub(rdb)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Housekeeping: purge long-expired OTP rows daily. The lifecycle itself
	// never deletes, it only marks records used.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-hubCtx.Done():
				return
			case <-ticker.C:
				if err := otpRepo.CleanupExpired(7 * 24 * time.Hour); err != nil {
					log.Printf("⚠️ OTP cleanup failed: %v", err)
				}
			}
		}
	}()

	// Services
	otpService := service.NewOTPService(otpRepo, service.OTPConfig{
		CodeLength:     cfg.OTP.CodeLength,
		TTL:            cfg.OTP.TTL,
		MaxAttempts:    cfg.OTP.MaxAttempts,
		ResendCooldown: cfg.OTP.ResendCooldown,
	})
	sessions := service.NewRedisSessionStore(rdb)
	authService := service.NewAuthService(userRepo, otpService, jwtManager, sessions, smsSender, mailClient, cfg.Google.ClientID)
	walletService := service.NewWalletService(walletRepo)
	driverService := service.NewDriverService(driverRepo, minioStorage)
	orderService := service.NewOrderService(orderRepo, driverRepo, walletService, fcm, hub, cfg.Order.CommissionPercent)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	walletHandler := handler.NewWalletHandler(walletService)
	driverHandler := handler.NewDriverHandler(driverService)
	orderHandler := handler.NewOrderHandler(orderService)
	wsHandler := handler.NewWSHandler(hub, jwtManager)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger configuration
	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "antarin-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/verify-phone", authHandler.VerifyPhone)
			authGroup.POST("/resend-otp", authHandler.ResendOTP)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/login-otp", authHandler.LoginOTP)
			authGroup.POST("/google", authHandler.GoogleLogin)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Auth
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/profile", authHandler.GetProfile)
			protected.POST("/auth/devices", authHandler.RegisterDevice)

			// Wallet
			protected.GET("/wallet", walletHandler.GetWallet)
			protected.GET("/wallet/transactions", walletHandler.ListTransactions)

			// Orders (riders create, both parties act on them)
			protected.POST("/orders", middleware.RequireRole(model.RoleRider), orderHandler.Create)
			protected.GET("/orders", orderHandler.ListMine)
			protected.GET("/orders/:id", orderHandler.Get)
			protected.PUT("/orders/:id/start", middleware.RequireRole(model.RoleDriver), orderHandler.Start)
			protected.PUT("/orders/:id/complete", middleware.RequireRole(model.RoleDriver), orderHandler.Complete)
			protected.PUT("/orders/:id/cancel", orderHandler.Cancel)

			// Driver profile
			driverGroup := protected.Group("/driver")
			driverGroup.Use(middleware.RequireRole(model.RoleDriver))
			{
				driverGroup.POST("/profile", driverHandler.CreateProfile)
				driverGroup.GET("/profile", driverHandler.GetProfile)
				driverGroup.PUT("/profile", driverHandler.UpdateProfile)
				driverGroup.POST("/documents/:kind", driverHandler.UploadDocument)
				driverGroup.GET("/documents/:kind", driverHandler.GetDocument)
				driverGroup.PUT("/availability", driverHandler.SetAvailability)
			}

			// Admin
			adminGroup := protected.Group("/admin")
			adminGroup.Use(middleware.RequireRole(model.RoleAdmin))
			{
				adminGroup.GET("/users", authHandler.ListUsers)
				adminGroup.GET("/drivers", driverHandler.ListByStatus)
				adminGroup.PUT("/drivers/:id/review", driverHandler.Review)
				adminGroup.POST("/wallet/topup", walletHandler.TopUp)
				adminGroup.GET("/orders", orderHandler.ListAll)
				adminGroup.PUT("/orders/:id/dispatch", orderHandler.RetryDispatch)
				adminGroup.PUT("/orders/:id/cancel", orderHandler.Cancel)
			}
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 Antarin API running on http://0.0.0.0:%s", cfg.App.Port)
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
