package handlers

import (
	"context"

	"teleclinic/consult-api/internal/domain/payment"
)

// PaymentHandler handles payment HTTP requests.
type PaymentHandler struct {
	service *payment.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service *payment.Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Initiate starts a payment against the gateway.
func (h *PaymentHandler) Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.InitiateResult, error) {
	return h.service.Initiate(ctx, req)
}

// Verify confirms a completed payment.
func (h *PaymentHandler) Verify(ctx context.Context, req payment.VerifyRequest) (*payment.Payment, error) {
	return h.service.Verify(ctx, req)
}

// Status returns the current payment record.
func (h *PaymentHandler) Status(ctx context.Context, id string) (*payment.Payment, error) {
	return h.service.Status(ctx, id)
}
