package handlers

import (
	"context"

	"teleclinic/consult-api/internal/domain/queue"
)

// QueueHandler handles patient queue HTTP requests.
type QueueHandler struct {
	service queue.Service
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(service queue.Service) *QueueHandler {
	return &QueueHandler{service: service}
}

// Join admits a patient to a doctor's queue.
func (h *QueueHandler) Join(ctx context.Context, patientID, doctorID int64) (*queue.JoinResult, error) {
	return h.service.Join(ctx, patientID, doctorID)
}

// Leave removes a patient from a doctor's queue.
func (h *QueueHandler) Leave(ctx context.Context, patientID, doctorID int64) ([]*queue.Entry, error) {
	return h.service.Leave(ctx, patientID, doctorID)
}

// Fetch returns a doctor's queue.
func (h *QueueHandler) Fetch(ctx context.Context, doctorID int64) ([]*queue.Entry, error) {
	return h.service.Fetch(ctx, doctorID)
}
