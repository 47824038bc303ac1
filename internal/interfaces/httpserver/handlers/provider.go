package handlers

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/availability"
	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/domain/payment"
	"teleclinic/consult-api/internal/domain/queue"
	"teleclinic/consult-api/internal/domain/video"
	"teleclinic/consult-api/internal/infrastructure/events"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Consultation *ConsultationHandler
	Queue        *QueueHandler
	Video        *VideoHandler
	Payment      *PaymentHandler
	Events       *EventsHandler
}

// NewProvider creates a new handler provider.
func NewProvider(
	consultationService consultation.Service,
	queueService queue.Service,
	videoService *video.Service,
	paymentService *payment.Service,
	hub *events.Hub,
	avail *availability.Service,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Consultation: NewConsultationHandler(consultationService),
		Queue:        NewQueueHandler(queueService),
		Video:        NewVideoHandler(videoService),
		Payment:      NewPaymentHandler(paymentService),
		Events:       NewEventsHandler(hub, avail, log),
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewConsultationHandler,
	NewQueueHandler,
	NewVideoHandler,
	NewPaymentHandler,
	NewEventsHandler,
	NewProvider,
)
