// @title           Consult API
// @version         1.0
// @description     Video consultation service using LiveKit as transport.
// @description     Provides consultation lifecycle, patient queues, real-time events and payments.

// @contact.name   TeleClinic Team

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8190
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"teleclinic/consult-api/internal/config"
	"teleclinic/consult-api/internal/domain/availability"
	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/domain/payment"
	"teleclinic/consult-api/internal/domain/queue"
	"teleclinic/consult-api/internal/domain/video"
	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/infrastructure/database"
	"teleclinic/consult-api/internal/infrastructure/events"
	"teleclinic/consult-api/internal/infrastructure/livekit"
	"teleclinic/consult-api/internal/infrastructure/logger"
	"teleclinic/consult-api/internal/infrastructure/observability"
	"teleclinic/consult-api/internal/infrastructure/payments"
	consultationrepo "teleclinic/consult-api/internal/infrastructure/repository/consultation"
	paymentrepo "teleclinic/consult-api/internal/infrastructure/repository/payment"
	queuerepo "teleclinic/consult-api/internal/infrastructure/repository/queue"
	"teleclinic/consult-api/internal/infrastructure/roomsync"
	"teleclinic/consult-api/internal/interfaces/httpserver"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	syncer     *roomsync.Syncer
	hub        *events.Hub
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, syncer *roomsync.Syncer, hub *events.Hub, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		syncer:     syncer,
		hub:        hub,
		log:        log,
	}
}

// Start runs the application.
func (a *Application) Start(ctx context.Context) error {
	// Start the room syncer
	a.syncer.Start(ctx)

	// Run HTTP server (blocks until context cancelled)
	err := a.httpServer.Run(ctx)

	// Stop background work and drop open event sessions
	a.syncer.Stop()
	a.hub.CloseAll()

	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup observability
	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize auth validator
	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth validator")
	}

	// Connect to Postgres and migrate
	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdle,
		MaxOpenConns:    cfg.DBMaxOpen,
		ConnMaxLifetime: cfg.DBMaxLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Initialize LiveKit clients
	tokenGen := livekit.NewTokenGenerator(cfg)
	roomClient := livekit.NewRoomClient(cfg)

	// Repositories
	consultRepo := consultationrepo.NewRepository(db)
	queueRepo := queuerepo.NewRepository(db)
	payRepo := paymentrepo.NewRepository(db)

	// Availability state and event hub. The hub carries the inbound
	// availability toggle, so it depends on the availability service.
	availabilityService := availability.NewService(cfg.AvailabilityDebounce, log)
	hub := events.NewHub(cfg, availabilityService, log)

	// Domain services
	queueService := queue.NewService(queueRepo, consultation.NewQueueLookup(consultRepo), hub, cfg.AvgConsultDuration, log)
	consultService := consultation.NewService(consultRepo, queueService, roomClient, hub, log)
	videoService := video.NewService(tokenGen, roomClient, consultRepo, cfg.LiveKitTokenTTL, log)

	gateway := payments.NewGateway(cfg, log)
	defer gateway.Close()
	paymentService := payment.NewService(payRepo, gateway, log)

	// Room syncer cancels consultations whose rooms emptied out
	syncer := roomsync.NewSyncer(consultService, consultRepo, roomClient, cfg.ConsultPendingTTL, cfg.RoomSyncInterval, log)

	// Initialize HTTP server
	handlerProvider := handlers.NewProvider(consultService, queueService, videoService, paymentService, hub, availabilityService, log)
	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)

	// Create and start application
	app := NewApplication(httpServer, syncer, hub, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
