//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
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
	"teleclinic/consult-api/internal/infrastructure/payments"
	consultationrepo "teleclinic/consult-api/internal/infrastructure/repository/consultation"
	paymentrepo "teleclinic/consult-api/internal/infrastructure/repository/payment"
	queuerepo "teleclinic/consult-api/internal/infrastructure/repository/queue"
	"teleclinic/consult-api/internal/infrastructure/roomsync"
	"teleclinic/consult-api/internal/interfaces/httpserver"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideDatabase,
	ProvideTokenGenerator,
	ProvideRoomClient,
	ProvideAuthValidator,
	ProvideAvailabilityService,
	ProvideHub,
	ProvideGateway,
	ProvideSyncer,

	// Repository providers
	ProvideConsultationRepository,
	ProvideQueueRepository,
	ProvidePaymentRepository,

	// Domain providers
	ProvideQueueService,
	ProvideConsultationService,
	ProvideVideoService,
	ProvidePaymentService,

	// Interface providers
	handlers.NewProvider,
	httpserver.New,

	// Application
	NewApplication,
)

// ProvideDatabase connects to Postgres and applies migrations.
func ProvideDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdle,
		MaxOpenConns:    cfg.DBMaxOpen,
		ConnMaxLifetime: cfg.DBMaxLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// ProvideTokenGenerator provides a LiveKit token generator.
func ProvideTokenGenerator(cfg *config.Config) video.TokenGenerator {
	return livekit.NewTokenGenerator(cfg)
}

// ProvideRoomClient provides a LiveKit room client.
func ProvideRoomClient(cfg *config.Config) *livekit.RoomClient {
	return livekit.NewRoomClient(cfg)
}

// ProvideAuthValidator provides an auth validator.
func ProvideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// ProvideAvailabilityService provides the doctor availability state.
func ProvideAvailabilityService(cfg *config.Config, log zerolog.Logger) *availability.Service {
	return availability.NewService(cfg.AvailabilityDebounce, log)
}

// ProvideHub provides the event bridge hub.
func ProvideHub(cfg *config.Config, avail *availability.Service, log zerolog.Logger) *events.Hub {
	return events.NewHub(cfg, avail, log)
}

// ProvideGateway provides the payment gateway client.
func ProvideGateway(cfg *config.Config, log zerolog.Logger) *payments.Gateway {
	return payments.NewGateway(cfg, log)
}

// ProvideConsultationRepository provides consultation persistence.
func ProvideConsultationRepository(db *gorm.DB) consultation.Repository {
	return consultationrepo.NewRepository(db)
}

// ProvideQueueRepository provides queue entry persistence.
func ProvideQueueRepository(db *gorm.DB) queue.Repository {
	return queuerepo.NewRepository(db)
}

// ProvidePaymentRepository provides payment persistence.
func ProvidePaymentRepository(db *gorm.DB) payment.Repository {
	return paymentrepo.NewRepository(db)
}

// ProvideQueueService provides the queue membership service.
func ProvideQueueService(
	repo queue.Repository,
	consultRepo consultation.Repository,
	hub *events.Hub,
	cfg *config.Config,
	log zerolog.Logger,
) queue.Service {
	return queue.NewService(repo, consultation.NewQueueLookup(consultRepo), hub, cfg.AvgConsultDuration, log)
}

// ProvideConsultationService provides the consultation lifecycle service.
func ProvideConsultationService(
	repo consultation.Repository,
	queueService queue.Service,
	roomClient *livekit.RoomClient,
	hub *events.Hub,
	log zerolog.Logger,
) consultation.Service {
	return consultation.NewService(repo, queueService, roomClient, hub, log)
}

// ProvideVideoService provides the media token and room service.
func ProvideVideoService(
	tokenGen video.TokenGenerator,
	roomClient *livekit.RoomClient,
	repo consultation.Repository,
	cfg *config.Config,
	log zerolog.Logger,
) *video.Service {
	return video.NewService(tokenGen, roomClient, repo, cfg.LiveKitTokenTTL, log)
}

// ProvidePaymentService provides the payment service.
func ProvidePaymentService(repo payment.Repository, gateway *payments.Gateway, log zerolog.Logger) *payment.Service {
	return payment.NewService(repo, gateway, log)
}

// ProvideSyncer provides the room syncer.
func ProvideSyncer(
	consultService consultation.Service,
	repo consultation.Repository,
	roomClient *livekit.RoomClient,
	cfg *config.Config,
	log zerolog.Logger,
) *roomsync.Syncer {
	return roomsync.NewSyncer(consultService, repo, roomClient, cfg.ConsultPendingTTL, cfg.RoomSyncInterval, log)
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
