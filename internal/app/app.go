package app

import (
	"database/sql"
	"fmt"
	"time"

	"accounthub/internal/config"
	"accounthub/internal/handlers"
	"accounthub/internal/middleware"
	"accounthub/internal/models"
	"accounthub/internal/repositories"
	"accounthub/internal/routes"
	"accounthub/internal/services"
	"accounthub/internal/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "accounthub/docs"
)

func Run() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg := config.LoadConfig()
	middleware.SetJWTKey([]byte(cfg.JWT.Secret))

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warnf("close database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)

	// === Verification engine ===
	codes := utils.NewCodeGenerator(cfg.Verification.CodeLength)
	lifecycle := services.NewVerificationLifecycle(
		verificationRepo,
		codes,
		cfg.Verification.MaxRetry,
		cfg.Verification.VerifiedExtension(),
	)

	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	smsClient := utils.NewSMSClient(
		cfg.SMSGateway.BaseURL,
		cfg.SMSGateway.APIKey,
		cfg.SMSGateway.SenderID,
		cfg.SMSGateway.DryRun,
		utils.SMSPoolConfig{
			MaxConnections:     cfg.SMSGateway.MaxConnections,
			MaxIdleConnections: cfg.SMSGateway.MaxIdleConnections,
			IdleTimeout:        time.Duration(cfg.SMSGateway.IdleTimeoutSeconds) * time.Second,
			AcquireTimeout:     time.Duration(cfg.SMSGateway.AcquireTimeoutSeconds) * time.Second,
		},
	)

	verificationService := services.NewVerificationService(
		lifecycle,
		services.NewEmailChannel(emailService),
		services.NewSMSChannel(smsClient),
		map[models.VerificationChannel]time.Duration{
			models.ChannelEmail: cfg.Verification.EmailTTL(),
			models.ChannelSMS:   cfg.Verification.SMSTTL(),
		},
	)

	// === Services ===
	authService := services.NewAuthService()
	userService := services.NewUserService(userRepo, verificationService, emailService, authService)
	passwordService := services.NewPasswordService(userRepo, verificationService, emailService, authService)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, passwordService)
	userHandler := handlers.NewUserHandler(userService)
	verifyHandler := handlers.NewVerifyHandler(verificationService)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	routes.SetupRoutes(router, authHandler, userHandler, verifyHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
