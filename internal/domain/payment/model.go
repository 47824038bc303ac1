// Package payment tracks consultation payments against an external gateway.
// The gateway itself is opaque; this package persists a local mirror of
// each payment for status reads and reconciliation.
package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a payment.
type Status string

const (
	// StatusInitiated indicates the payment was handed to the gateway.
	StatusInitiated Status = "initiated"
	// StatusVerified indicates the gateway confirmed the payment.
	StatusVerified Status = "verified"
	// StatusFailed indicates the gateway rejected or could not verify the payment.
	StatusFailed Status = "failed"
)

// Payment is a local record of one gateway payment.
type Payment struct {
	ID             string
	ConsultationID string
	PatientID      int64
	DoctorID       int64
	Amount         decimal.Decimal
	Currency       string
	Status         Status
	GatewayRef     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InitiateRequest carries everything needed to start a payment.
type InitiateRequest struct {
	ConsultationID string
	PatientID      int64
	DoctorID       int64
	Amount         decimal.Decimal
	Currency       string
}

// VerifyRequest carries the gateway's callback parameters for verification.
type VerifyRequest struct {
	PaymentID  string
	GatewayRef string
	Signature  string
}
