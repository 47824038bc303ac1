// Package responses contains HTTP response DTOs for the consult-api.
package responses

import (
	"time"

	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/domain/payment"
	"teleclinic/consult-api/internal/domain/queue"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Consultation is the wire form of a consultation record.
type Consultation struct {
	ID        string     `json:"id"`
	DoctorID  int64      `json:"doctorId"`
	PatientID int64      `json:"patientId"`
	RoomName  string     `json:"roomName"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// NewConsultation maps a domain consultation to its wire form.
func NewConsultation(cons *consultation.Consultation) Consultation {
	return Consultation{
		ID:        cons.ID,
		DoctorID:  cons.DoctorID,
		PatientID: cons.PatientID,
		RoomName:  cons.RoomName,
		Status:    cons.Status.String(),
		Notes:     cons.Notes,
		StartedAt: cons.StartedAt,
		EndedAt:   cons.EndedAt,
	}
}

// StartConsultationResponse is returned by startConsultation and
// rejoin. The consultation fields are flattened to the top level.
type StartConsultationResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	ConsultationID string `json:"consultationId"`
	RoomName       string `json:"roomName"`
	DoctorID       int64  `json:"doctorId"`
	PatientID      int64  `json:"patientId"`
	Status         string `json:"status"`
}

// NewStartConsultationResponse flattens a consultation into the
// startConsultation/rejoin wire form.
func NewStartConsultationResponse(cons *consultation.Consultation, message string) StartConsultationResponse {
	return StartConsultationResponse{
		Success:        true,
		Message:        message,
		ConsultationID: cons.ID,
		RoomName:       cons.RoomName,
		DoctorID:       cons.DoctorID,
		PatientID:      cons.PatientID,
		Status:         cons.Status.String(),
	}
}

// StatusResponse is the resolved next step for a pair.
type StatusResponse struct {
	Success        bool   `json:"success"`
	Action         string `json:"action"`
	ConsultationID string `json:"consultationId,omitempty"`
	RoomName       string `json:"roomName,omitempty"`
	Position       int    `json:"position,omitempty"`
	EstimatedWait  int    `json:"estimatedWait,omitempty"` // seconds
	QueueLength    int    `json:"queueLength,omitempty"`
}

// NewStatusResponse maps a status result to its wire form.
func NewStatusResponse(res *consultation.StatusResult) StatusResponse {
	return StatusResponse{
		Success:        true,
		Action:         string(res.Action),
		ConsultationID: res.ConsultationID,
		RoomName:       res.RoomName,
		Position:       res.Position,
		EstimatedWait:  int(res.EstimatedWait.Seconds()),
		QueueLength:    res.QueueLength,
	}
}

// AckResponse is a generic success/message envelope.
type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HistoryResponse is one page of consultation history.
type HistoryResponse struct {
	Success       bool           `json:"success"`
	Consultations []Consultation `json:"consultations"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}

// NewHistoryResponse maps a history page to its wire form.
func NewHistoryResponse(page *consultation.HistoryPage) HistoryResponse {
	items := make([]Consultation, 0, len(page.Consultations))
	for _, cons := range page.Consultations {
		items = append(items, NewConsultation(cons))
	}
	return HistoryResponse{
		Success:       true,
		Consultations: items,
		Total:         page.Total,
		Page:          page.Page.Number,
		Limit:         page.Page.Size,
	}
}

// QueueEntry is the wire form of a queue entry.
type QueueEntry struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctorId"`
	PatientID int64     `json:"patientId"`
	Position  int       `json:"position,omitempty"`
	Status    string    `json:"status"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// QueueResponse is the doctor-side view of a waiting queue.
type QueueResponse struct {
	Success bool         `json:"success"`
	Queue   []QueueEntry `json:"queue"`
}

// NewQueueResponse maps queue entries to their wire form.
func NewQueueResponse(entries []*queue.Entry) QueueResponse {
	items := make([]QueueEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, QueueEntry{
			ID:        entry.ID,
			DoctorID:  entry.DoctorID,
			PatientID: entry.PatientID,
			Position:  entry.Position,
			Status:    string(entry.Status),
			JoinedAt:  entry.JoinedAt,
		})
	}
	return QueueResponse{Success: true, Queue: items}
}

// JoinQueueResponse is returned by a queue join.
type JoinQueueResponse struct {
	Success        bool   `json:"success"`
	Action         string `json:"action"`
	Position       int    `json:"position,omitempty"`
	EstimatedWait  int    `json:"estimatedWait,omitempty"` // seconds
	QueueLength    int    `json:"queueLength,omitempty"`
	ConsultationID string `json:"consultationId,omitempty"`
	RoomName       string `json:"roomName,omitempty"`
}

// NewJoinQueueResponse maps a join result to its wire form.
func NewJoinQueueResponse(res *queue.JoinResult) JoinQueueResponse {
	return JoinQueueResponse{
		Success:        true,
		Action:         string(res.Action),
		Position:       res.Position,
		EstimatedWait:  int(res.EstimatedWait.Seconds()),
		QueueLength:    res.QueueLength,
		ConsultationID: res.ConsultationID,
		RoomName:       res.RoomName,
	}
}

// TokenResponse carries a media access token.
type TokenResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	Identity  string    `json:"identity"`
	RoomName  string    `json:"roomName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ParticipantsResponse lists room participant identities.
type ParticipantsResponse struct {
	Success      bool     `json:"success"`
	Participants []string `json:"participants"`
}

// PaymentResponse is the wire form of a payment record.
type PaymentResponse struct {
	Success     bool   `json:"success"`
	PaymentID   string `json:"paymentId"`
	Status      string `json:"status"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	GatewayRef  string `json:"gatewayRef,omitempty"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
}

// NewPaymentResponse maps a payment to its wire form.
func NewPaymentResponse(p *payment.Payment, checkoutURL string) PaymentResponse {
	return PaymentResponse{
		Success:     true,
		PaymentID:   p.ID,
		Status:      string(p.Status),
		Amount:      p.Amount.StringFixed(2),
		Currency:    p.Currency,
		GatewayRef:  p.GatewayRef,
		CheckoutURL: checkoutURL,
	}
}

// AvailabilityResponse reports a doctor's availability flag.
type AvailabilityResponse struct {
	Success     bool  `json:"success"`
	DoctorID    int64 `json:"doctorId"`
	IsAvailable bool  `json:"isAvailable"`
}
