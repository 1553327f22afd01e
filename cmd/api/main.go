package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/zainab674/project-plus-sub002/pkg/validator"

	"github.com/zainab674/project-plus-sub002/internal/adapter/handler"
	"github.com/zainab674/project-plus-sub002/internal/adapter/repository"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/cache"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/database"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/events"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/external/livekit"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/storage"
	"github.com/zainab674/project-plus-sub002/internal/usecase/dispatch"
	"github.com/zainab674/project-plus-sub002/internal/usecase/meeting"
	"github.com/zainab674/project-plus-sub002/internal/usecase/session"
	"github.com/zainab674/project-plus-sub002/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, handler.HeaderUserID, handler.HeaderAgentKey},
		AllowCredentials: true,
	}))

	// Initialize Database
	logger.Info("Connecting to database")
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	} else {
		logger.Info("Skipping migrations; run sql-migrate in CI/CD or set DB_AUTO_MIGRATE")
	}

	// Initialize repositories
	meetingRepo := repository.NewMeetingRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	gateway := repository.NewPersistenceGateway(db)

	// Summary cache and event notifier: Redis when enabled, in-process otherwise
	var (
		summaries session.SummaryStore
		notifier  session.Notifier
	)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		summaries = cache.NewRedisSummaryStore(redisClient)
		notifier = events.NewRedisPublisher(redisClient, cfg.Session.EventChannel, logger)
	} else {
		logger.Warn("Redis disabled, session summaries are kept in memory")
		memStore := cache.NewMemoryStore(time.Minute)
		defer memStore.Close()
		summaries = cache.NewMemorySummaryStore(memStore)
		notifier = events.NewLogPublisher(logger)
	}

	// Transcript archive is optional
	var archiver session.Archiver
	if cfg.Storage.Enabled {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err := storage.NewTranscriptArchive(initCtx, &cfg.Storage)
		cancel()
		if err != nil {
			logger.Warn("Transcript archive unavailable", zap.Error(err))
		} else {
			archiver = archive
			logger.Info("Transcript archive ready", zap.String("bucket", cfg.Storage.BucketName))
		}
	}

	// Initialize LiveKit
	livekitClient := livekit.NewClient(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.UseMock)
	agentDispatcher := livekit.NewAgentDispatcher(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.UseMock)
	if cfg.LiveKit.UseMock {
		logger.Warn("LiveKit running in MOCK mode (no real server needed)")
	} else {
		logger.Info("LiveKit configured", zap.String("url", cfg.LiveKit.URL))
	}

	coordinator := dispatch.NewCoordinator(agentDispatcher, dispatch.Config{
		AgentName:  cfg.Session.AgentName,
		MaxElapsed: cfg.Session.DispatchMaxElapsed,
	}, logger)

	// Initialize use cases
	lifecycle := session.NewLifecycle(session.Dependencies{
		Gateway:   gateway,
		Meetings:  meetingRepo,
		Notifier:  notifier,
		Archiver:  archiver,
		Summaries: summaries,
		Logger:    logger,
	}, session.Config{
		PersistWorkers:         cfg.Session.PersistWorkers,
		FinalizeTimeout:        cfg.Session.FinalizeTimeout,
		SummaryTTL:             cfg.Session.SummaryTTL,
		PreserveStartOnRestart: cfg.Session.PreserveStartOnRestart,
		LateFragmentWindow:     cfg.Session.LateFragmentWindow,
	})

	meetingService := meeting.NewMeetingService(
		meetingRepo,
		participantRepo,
		transcriptRepo,
		livekitClient,
		coordinator,
		cfg.LiveKit.URL,
		logger,
	)

	// Initialize handlers
	router := handler.NewRouter(
		cfg,
		handler.NewMeetingHandler(meetingService, lifecycle, logger),
		handler.NewTranscriptionHandler(lifecycle, meetingService, logger),
		handler.NewWebhookHandler(lifecycle, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.AllowUnsignedWebhooks, logger),
		lifecycle,
		logger,
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment))

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if buffers, markers := lifecycle.ActiveSessions(); buffers > 0 || markers > 0 {
		logger.Warn("Open sessions discarded on shutdown",
			zap.Int("buffers", buffers),
			zap.Int("sessions", markers))
	}

	logger.Info("Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
