package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"examportal/internal/auth"
	"examportal/internal/config"
	"examportal/internal/email"
	"examportal/internal/handlers"
	"examportal/internal/logger"
	"examportal/internal/middleware"
	"examportal/internal/models"
	"examportal/internal/repositories"
	"examportal/internal/routes"
	"examportal/internal/services"
	"examportal/internal/validator"
	"examportal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.Exam{},
		&models.Question{},
		&models.Result{},
		&models.CheatingEvent{},
	); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	issuer, err := auth.NewTokenIssuer(auth.IssuerConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     time.Duration(cfg.JWT.AccessTTLMinutes) * time.Minute,
		RefreshTTL:    time.Duration(cfg.JWT.RefreshTTLHours) * time.Hour,
	})
	if err != nil {
		logger.Fatal("Failed to initialize token issuer", "error", err)
	}

	userRepo := repositories.NewUserRepository()

	serviceContainer, dispatcher := initializeServices(cfg, issuer, userRepo)
	go dispatcher.Run(context.Background())

	appHandlers := initializeHandlers(cfg, serviceContainer)

	wsManager := ws.NewWebSocketManager(serviceContainer.Result, gormDB)
	go wsManager.Run()
	wsHandler := ws.NewWebSocketHandler(wsManager)

	ginRouter := initializeGinRouter(cfg, gormDB)

	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler, issuer, userRepo)

	return ginRouter
}

func initializeServices(cfg *config.Config, issuer *auth.TokenIssuer, userRepo repositories.UserRepository) (*services.ServiceContainer, *email.Dispatcher) {
	var provider email.Provider
	if cfg.Email.SMTPHost != "" {
		smtpProvider, err := email.NewSMTPProvider(email.Config{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
		if err != nil {
			logger.Fatal("Failed to initialize SMTP provider", "error", err)
		}
		provider = smtpProvider
	} else {
		logger.Warn("SMTP is not configured, using mock email provider")
		provider = &MockEmailProvider{}
	}
	dispatcher := email.NewDispatcher(provider, 64)

	examRepo := repositories.NewExamRepository()
	resultRepo := repositories.NewResultRepository()

	authService := services.NewAuthService(
		userRepo,
		issuer,
		dispatcher,
		time.Duration(cfg.Verification.CodeTTLMinutes)*time.Minute,
		time.Duration(cfg.Verification.ResendCooldownSeconds)*time.Second,
	)
	examService := services.NewExamService(examRepo)
	resultService := services.NewResultService(resultRepo, examRepo)

	return &services.ServiceContainer{
		Auth:   authService,
		Exam:   examService,
		Result: resultService,
	}, dispatcher
}

func initializeHandlers(cfg *config.Config, serviceContainer *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		Auth:   handlers.NewAuthHandler(baseHandler, serviceContainer.Auth, cfg),
		Exam:   handlers.NewExamHandler(baseHandler, serviceContainer.Exam),
		Result: handlers.NewResultHandler(baseHandler, serviceContainer.Result),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.ClientOrigin))
	router.Use(middleware.DBMiddleware(db))
	return router
}

// seedFirstAdmin creates the bootstrap admin account if configured and
// absent. The seeded admin skips email verification.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Name:          "Administrator",
		Email:         adminEmail,
		PasswordHash:  hashedPassword,
		Role:          models.UserRoleAdmin,
		EmailVerified: true,
	}

	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "email", adminEmail)
	return nil
}
