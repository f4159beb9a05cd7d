package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"peakcredit/origination-backend/internal/audit"
	"peakcredit/origination-backend/internal/auth"
	"peakcredit/origination-backend/internal/config"
	"peakcredit/origination-backend/internal/documents"
	"peakcredit/origination-backend/internal/fees"
	"peakcredit/origination-backend/internal/loansync"
	"peakcredit/origination-backend/internal/pii"
	"peakcredit/origination-backend/internal/profile"
	"peakcredit/origination-backend/internal/sms"
	"peakcredit/origination-backend/internal/storage"
	"peakcredit/origination-backend/internal/verification"
	"peakcredit/origination-backend/internal/vendors/bureau"
	"peakcredit/origination-backend/internal/vendors/fraud"
	"peakcredit/origination-backend/internal/vendors/identity"
	"peakcredit/origination-backend/internal/vendors/loansys"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	if os.Getenv("APP_ENV") == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Security.EncryptionSecret == "" {
		logger.Fatal("ENCRYPTION_SECRET is required")
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&profile.Profile{},
		&audit.VerificationCheck{},
		&documents.Document{},
		&verification.OneTimeVerificationSession{},
		&loansync.ClientReference{},
	); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// AWS clients for SMS delivery and document storage
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}
	snsClient := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.Region = cfg.SMS.Region
	})
	s3Client := s3.NewFromConfig(awsCfg)

	// PII codec and audit trail
	codec := pii.NewCodec(cfg.Security.EncryptionSecret)
	auditRepo := audit.NewRepository(db)
	recorder := audit.NewRecorder(auditRepo, logger)

	// Vendor clients
	identityClient := identity.NewClient(
		cfg.Identity.BaseURL, cfg.Identity.LoginID, cfg.Identity.Username, cfg.Identity.Password, logger)
	bureauClient := bureau.NewClient(
		cfg.Bureau.BaseURL, cfg.Bureau.Username, cfg.Bureau.Password, cfg.Bureau.Origin, logger)
	fraudClient := fraud.NewClient(
		cfg.Fraud.BaseURL, cfg.Fraud.Username, cfg.Fraud.Password, logger)
	loansysClient := loansys.NewClient(
		cfg.LoanSystem.BaseURL, cfg.LoanSystem.Username, cfg.LoanSystem.Password, logger)

	// Verification module
	profileRepo := profile.NewRepository(db)
	otvRepo := verification.NewOTVRepository(db)
	smsSender := sms.NewSNSSender(snsClient, cfg.SMS.SenderID, logger)
	verificationService := verification.NewService(
		identityClient, bureauClient, fraudClient,
		codec, recorder, profileRepo, otvRepo, smsSender,
		cfg.OTV.VerificationBaseURL, logger)
	orchestrator := verification.NewOrchestrator(verificationService, codec, logger)
	verificationHandler := verification.NewHandler(verificationService, orchestrator, codec, profileRepo, logger)

	// Loan-system synchronization module
	documentRepo := documents.NewRepository(db)
	objectStore := storage.NewS3Store(s3Client, cfg.Storage.Bucket)
	loansyncService := loansync.NewService(loansysClient, loansync.NewRepository(db), documentRepo, objectStore, logger)
	loansyncHandler := loansync.NewHandler(loansyncService, logger)

	// Fees module
	feeTable := fees.DefaultTable()
	if cfg.Fees.TablePath != "" {
		feeTable, err = fees.LoadTable(cfg.Fees.TablePath)
		if err != nil {
			logger.Warn("Failed to load fee table, using defaults", zap.Error(err))
			feeTable = fees.DefaultTable()
		}
	}
	feesHandler := fees.NewHandler(fees.NewCalculator(feeTable), logger)

	auditHandler := audit.NewHandler(auditRepo, logger)

	// Setup Router
	if os.Getenv("APP_ENV") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	api.Use(auth.Middleware(cfg.Security.JWTSecret))
	{
		verificationHandler.RegisterRoutes(api)
		loansyncHandler.RegisterRoutes(api)
		feesHandler.RegisterRoutes(api)

		compliance := api.Group("", auth.RequireRole("compliance"))
		auditHandler.RegisterRoutes(compliance)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}
