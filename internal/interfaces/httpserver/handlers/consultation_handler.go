package handlers

import (
	"context"

	"teleclinic/consult-api/internal/domain/consultation"
)

// ConsultationHandler handles consultation-related HTTP requests.
type ConsultationHandler struct {
	service consultation.Service
}

// NewConsultationHandler creates a new consultation handler.
func NewConsultationHandler(service consultation.Service) *ConsultationHandler {
	return &ConsultationHandler{service: service}
}

// Start begins a consultation for a doctor/patient pair.
func (h *ConsultationHandler) Start(ctx context.Context, doctorID, patientID int64) (*consultation.Consultation, error) {
	return h.service.Start(ctx, doctorID, patientID)
}

// CheckStatus resolves the pair's current state.
func (h *ConsultationHandler) CheckStatus(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*consultation.StatusResult, error) {
	return h.service.CheckStatus(ctx, doctorID, patientID, autoJoin)
}

// Rejoin resumes an ongoing consultation.
func (h *ConsultationHandler) Rejoin(ctx context.Context, consultationID string, userID int64, userType string) (*consultation.Consultation, error) {
	return h.service.Rejoin(ctx, consultationID, userID, userType)
}

// End terminates an ongoing consultation.
func (h *ConsultationHandler) End(ctx context.Context, consultationID string, doctorID int64, notes string) error {
	return h.service.End(ctx, consultationID, doctorID, notes)
}

// History lists terminal consultations.
func (h *ConsultationHandler) History(ctx context.Context, doctorID, patientID int64, page consultation.Page) (*consultation.HistoryPage, error) {
	return h.service.History(ctx, doctorID, patientID, page)
}
