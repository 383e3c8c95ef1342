package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rentiva/veriprop/internal/cache"
	"github.com/rentiva/veriprop/internal/config"
	"github.com/rentiva/veriprop/internal/env"
	"github.com/rentiva/veriprop/internal/errHandler"
	"github.com/rentiva/veriprop/internal/file"
	"github.com/rentiva/veriprop/internal/helper"
	"github.com/rentiva/veriprop/internal/provider"
	"github.com/rentiva/veriprop/internal/repository"
	"github.com/rentiva/veriprop/internal/secure"
	"github.com/rentiva/veriprop/internal/smtp"
	"github.com/rentiva/veriprop/internal/stream"
	"github.com/rentiva/veriprop/internal/verification"
	"github.com/rentiva/veriprop/internal/worker"
	"github.com/rentiva/veriprop/internal/workflow"

	"github.com/joho/godotenv"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items and when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       *smtp.Mailer
	WG           sync.WaitGroup
	Kafka        *stream.KafkaStream
	Cache        *cache.Cache
	FileUploader *file.FileUploader
	Encryptor    *secure.Encryptor
	Provider     *provider.Client
	Engine       *verification.Engine
	Workflow     *workflow.Workflow

	errorHandler *errHandler.ErrorRepository
	helper       *helper.HelperRepository
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file
	// Default values are provided for these items and these should strictly be values for development mode only
	// make sure no production-level value is exposed as default value here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "Example Name <no_reply@example.org>")

	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "")

	cfg.FileUploader.ApiKey = env.GetString("CLOUDINARY_API_KEY", "")
	cfg.FileUploader.CloudName = env.GetString("CLOUDINARY_CLOUD_NAME", "")
	cfg.FileUploader.ApiSecret = env.GetString("CLOUDINARY_API_SECRET", "")

	cfg.Provider.BaseURL = env.GetString("KYC_PROVIDER_BASE_URL", "https://api.dojah.io")
	cfg.Provider.AppID = env.GetString("KYC_PROVIDER_APP_ID", "")
	cfg.Provider.SecretKey = env.GetString("KYC_PROVIDER_SECRET_KEY", "")

	// 64 hex characters, 32 bytes once decoded
	cfg.Encryption.Key = env.GetString("ENCRYPTION_KEY", "")

	cfg.Redis.Addr = env.GetString("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Db = env.GetInt("REDIS_DB", 0)

	cfg.Workflow.RequireAdminSignOff = env.GetBool("REQUIRE_ADMIN_SIGNOFF", false)

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	encryptor, err := secure.New(cfg.Encryption.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	app := &Application{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Mailer: mailer,
	}

	app.errorHandler = errHandler.New(cfg.Notifications.Email, cfg.BaseURL, mailer, logger)
	app.helper = helper.New(&app.Config.BaseURL, &app.WG, app.errorHandler)

	app.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.Db)
	app.FileUploader = file.New(cfg.FileUploader.CloudName, cfg.FileUploader.ApiKey, cfg.FileUploader.ApiSecret)
	app.Encryptor = encryptor

	app.Provider = provider.New(cfg.Provider.BaseURL, cfg.Provider.AppID, cfg.Provider.SecretKey, db.ProviderCallLog(), logger)

	// Kafka is optional. Without it the engine still runs, only inline.
	var dispatcher verification.Dispatcher
	if cfg.KafkaServers != "" {
		app.Kafka = stream.New(cfg.KafkaServers)
		dispatcher = &worker.KafkaDispatcher{Stream: app.Kafka}
	}

	app.Engine = verification.New(&verification.Engine{
		Provider:   app.Provider,
		Encryptor:  app.Encryptor,
		Documents:  db.VerificationDocument(),
		Activity:   db.Activity(),
		Lease:      app.Cache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app.Workflow = workflow.New(&workflow.Workflow{
		Requests:            db.VerificationRequest(),
		Documents:           db.VerificationDocument(),
		Users:               db.User(),
		Activity:            db.Activity(),
		Notifier:            mailer,
		Helper:              app.helper,
		Logger:              logger,
		RequireAdminSignOff: cfg.Workflow.RequireAdminSignOff,
	})

	return app, nil
}
