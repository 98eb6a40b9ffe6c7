package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"canvango_backend/database"
	"canvango_backend/internal/auth"
	"canvango_backend/internal/config"
	"canvango_backend/internal/email"
	"canvango_backend/internal/handlers"
	"canvango_backend/internal/logger"
	"canvango_backend/internal/middleware"
	"canvango_backend/internal/models"
	"canvango_backend/internal/ratelimit"
	"canvango_backend/internal/repositories"
	"canvango_backend/internal/routes"
	"canvango_backend/internal/security"
	"canvango_backend/internal/services"
	"canvango_backend/internal/validator"
	"canvango_backend/internal/workers"
)

// Run boots the gateway: config, logger, database, router, workers.
func Run() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected", "driver", cfg.Database.Driver)

	if err := seedFirstAdmin(db); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	router := SetupRouter(cfg, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workers.NewRetentionWorker(
		repositories.NewRateLimitRepository(db),
		repositories.NewSecurityEventRepository(db),
	).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := router.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires repositories, services, handlers and middleware into
// a gin engine. Everything is constructed once and injected; nothing in
// the request path reads ambient globals.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	allowlist, err := security.NewIPAllowlist(cfg.Gateway.AllowedRanges)
	if err != nil {
		logger.Fatal("Invalid IP allow list configuration", "error", err)
	}

	// Fail fast on a malformed key instead of on the first credential
	// write after deploy.
	if cfg.Gateway.EnableEncryption && cfg.Gateway.EncryptionKey != "" {
		if _, err := security.NewEncryptor(cfg.Gateway.EncryptionKey); err != nil {
			logger.Fatal("Invalid encryption key", "error", err)
		}
	}

	v := validator.New()
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	eventRepo := repositories.NewSecurityEventRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	opRepo := repositories.NewOpenPaymentRepository(db)
	userRepo := repositories.NewUserRepository(db)
	rateRepo := repositories.NewRateLimitRepository(db)

	auditService := services.NewAuditService(eventRepo, email.NewAlertSender(cfg))
	tripayService := services.NewTripayService(cfg)
	callbackService := services.NewCallbackService(
		cfg.Gateway,
		cfg.Tripay.PrivateKey,
		allowlist,
		v,
		txRepo,
		opRepo,
		auditService,
	)
	paymentService := services.NewPaymentService(tripayService, txRepo, opRepo)
	authService := services.NewAuthService(userRepo, tokens, auditService)

	base := handlers.NewBaseHandler(v)
	appHandlers := &handlers.AppHandlers{
		Auth:           handlers.NewAuthHandler(base, authService),
		Payment:        handlers.NewPaymentHandler(base, paymentService),
		Callback:       handlers.NewCallbackHandler(base, callbackService),
		SecurityEvents: handlers.NewSecurityEventHandler(base, auditService),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())

	limiter := ratelimit.NewLimiter(rateRepo)
	callbackMiddleware := []gin.HandlerFunc{
		middleware.TimeoutMiddleware(time.Duration(cfg.Gateway.RequestTimeout) * time.Second),
		middleware.RateLimitMiddleware(
			limiter,
			auditService,
			cfg.Gateway.CallbackRateLimit,
			cfg.Gateway.CallbackRateWindow,
			cfg.Gateway.EnableRateLimiting,
		),
	}

	routes.RegisterRoutes(router, appHandlers, middleware.AuthMiddleware(tokens), callbackMiddleware...)
	return router
}

// seedFirstAdmin creates the initial admin account from the environment
// when no admin exists yet. No-op otherwise.
func seedFirstAdmin(db *gorm.DB) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	userRepo := repositories.NewUserRepository(db)
	count, err := userRepo.CountAdmins(context.Background())
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if err := auth.ValidatePassword(adminPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
	}
	if err := userRepo.Create(context.Background(), admin); err != nil {
		return err
	}
	logger.Info("Seeded first admin user", "email", adminEmail)
	return nil
}
