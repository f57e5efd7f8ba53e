package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmanager/config"
	"taskmanager/logging"
	"taskmanager/middleware"
	"taskmanager/routes"
	"taskmanager/services"
	"taskmanager/utils"
	"taskmanager/worker"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	logging.InitLogger(logging.Options{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
	})
	logger := logrus.StandardLogger()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.WithError(err).Warn("Failed to initialize Sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	db, err := config.ConnectStore(ctx)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.WithError(err).Warn("Error closing database connection")
		}
	}()

	var (
		blacklist      utils.TokenBlacklist = utils.NewMemoryBlacklist()
		limiterStorage fiber.Storage
	)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis is not reachable, token revocation will fail open until it recovers")
		}
		blacklist = utils.NewRedisBlacklist(redisClient)
		limiterStorage = middleware.NewRedisStorage(redisClient)
	}

	var notifier services.Notifier = services.NopNotifier{}
	if cfg.SMTP.Enabled() {
		notifier = utils.NewMailer(utils.MailerConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			ClientURL: cfg.ClientURL,
		})
	} else {
		logger.Info("SMTP not configured, task notifications are disabled")
	}

	hub := services.NewEventHub(32)
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	deps := routes.Dependencies{
		Auth:        services.NewAuthService(db, tokens, blacklist, cfg.AdminInviteToken, logger.WithField("component", "auth")),
		Tasks:       services.NewTaskService(db, db, hub, notifier, logger.WithField("component", "tasks")),
		Dashboard:   services.NewDashboardService(db, db),
		Users:       services.NewUserService(db, db),
		Reports:     services.NewReportService(db, db),
		Events:      hub,
		AuthLimiter: middleware.AuthRateLimiter(cfg.RateLimitAuth, limiterStorage),
		UploadDir:   cfg.UploadDir,
		Logger:      logger,
	}

	// Initialize and start reminder worker
	reminderWorker := worker.NewReminderWorker(db, db, notifier, logger.WithField("component", "reminder_worker"), cfg.ReminderInterval, cfg.ReminderLead)
	go reminderWorker.Start(ctx)

	app := routes.NewApp(deps, cfg.ClientURL)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down server...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}()

	// Start server
	logger.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
