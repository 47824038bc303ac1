package payment

import "context"

// Repository defines persistence for payment records.
type Repository interface {
	// Create stores a new payment record.
	Create(ctx context.Context, p *Payment) error

	// GetByID retrieves a payment by its ID.
	GetByID(ctx context.Context, id string) (*Payment, error)

	// UpdateStatus transitions a payment to the given status and records
	// the gateway reference.
	UpdateStatus(ctx context.Context, id string, status Status, gatewayRef string) error
}
