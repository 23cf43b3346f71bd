package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-complaints-api/internal/config"
	"github.com/noah-isme/campus-complaints-api/internal/database"
	"github.com/noah-isme/campus-complaints-api/internal/handler"
	"github.com/noah-isme/campus-complaints-api/internal/middleware"
	"github.com/noah-isme/campus-complaints-api/internal/observability"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
	"github.com/noah-isme/campus-complaints-api/internal/router"
	"github.com/noah-isme/campus-complaints-api/internal/service"
	cloud "github.com/noah-isme/campus-complaints-api/pkg/cloudinary"
	"github.com/noah-isme/campus-complaints-api/pkg/mailer"
	objects3 "github.com/noah-isme/campus-complaints-api/pkg/s3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured: sign-out revocation and duplicate guard disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	store, err := newObjectStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create object store: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	complaintRepo := repository.NewComplaintRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)

	var tokenStore repository.TokenStore
	if redisClient != nil {
		tokenStore = repository.NewRedisTokenStore(redisClient)
	}

	notifier := service.NewMultiStatusNotifier().Add("log", service.NewLogStatusNotifier(logger))
	if cfg.SendgridAPIKey != "" {
		sendgrid, err := mailer.NewSendGrid(mailer.Config{
			APIKey:    cfg.SendgridAPIKey,
			FromName:  cfg.MailFromName,
			FromEmail: cfg.MailFromEmail,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create mailer: %v", err)
		}
		notifier.Add("email", service.NewEmailStatusNotifier(sendgrid))
	}
	if redisClient != nil || natsConn != nil {
		notifier.Add("events", service.NewEventStatusNotifier(redisClient, natsConn, cfg.EventsBase))
	}

	sessionService := service.NewSessionService(profileRepo, tokenStore, cfg.LoginPath, logger)
	studentDashboardService := service.NewStudentDashboardService(complaintRepo, validate, logger)
	complaintService := service.NewComplaintService(complaintRepo, store, redisClient, validate, service.ComplaintServiceConfig{
		MaxAttachmentBytes: cfg.AttachmentMaxBytes,
		DedupeWindow:       cfg.SubmitDedupeWindow,
	}, logger)
	adminComplaintService := service.NewAdminComplaintService(complaintRepo, historyRepo, notifier, validate, logger)
	seedService := service.NewSeedService(profileRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	if cfg.SeedDemoProfiles {
		if _, err := seedService.SeedDemoProfiles(context.Background()); err != nil {
			log.Fatalf("failed to seed demo profiles: %v", err)
		}
	}

	sessionHandler := handler.NewSessionHandler(sessionService, cfg.LoginPath, logger)
	studentHandler := handler.NewStudentComplaintHandler(
		studentDashboardService,
		complaintService,
		middleware.RateLimit("complaint-submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow),
		logger,
	)
	adminHandler := handler.NewAdminComplaintHandler(adminComplaintService, logger)

	var seedHandler *handler.SeedHandler
	if cfg.SeedEnabled {
		seedHandler = handler.NewSeedHandler(seedService, logger)
	}

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.AttachmentMaxBytes)*8 + 1024*1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		SessionHandler:          sessionHandler,
		StudentComplaintHandler: studentHandler,
		AdminComplaintHandler:   adminHandler,
		SeedHandler:             seedHandler,
		HealthProbes:            probes,
		JWTMiddleware:           middleware.JWT(middleware.JWTConfig{Secret: cfg.JWTSecret, Revocations: tokenStore}),
		OptionalJWTMiddleware:   middleware.JWT(middleware.JWTConfig{Secret: cfg.JWTSecret, Revocations: tokenStore, Optional: true}),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("complaint desk listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func newObjectStore(cfg config.Config, logger zerolog.Logger) (service.ObjectStore, error) {
	switch cfg.StorageProvider {
	case config.StorageS3:
		return objects3.New(objects3.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		}, logger)
	default:
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
