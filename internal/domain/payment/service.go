package payment

import (
	"context"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/utils/idgen"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// Gateway is the external payment processor. Implementations talk to the
// real gateway over HTTP; the domain only sees these three calls.
type Gateway interface {
	// Initiate registers the payment with the gateway and returns its
	// reference plus a redirect/checkout URL for the client.
	Initiate(ctx context.Context, p *Payment) (ref string, checkoutURL string, err error)

	// Verify confirms a completed payment against the gateway.
	Verify(ctx context.Context, ref, signature string) (bool, error)
}

// Service coordinates payments between the gateway and local persistence.
type Service struct {
	repo    Repository
	gateway Gateway
	log     zerolog.Logger
}

// NewService creates a new payment service.
func NewService(repo Repository, gateway Gateway, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		log:     log.With().Str("component", "payment-service").Logger(),
	}
}

// InitiateResult is returned to the client after a successful initiation.
type InitiateResult struct {
	Payment     *Payment
	CheckoutURL string
}

// Initiate creates a local payment record and registers it with the gateway.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "amount must be positive", nil, "")
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	id, err := idgen.GenerateSecureID("pay", 24)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate payment ID")
	}

	p := &Payment{
		ID:             id,
		ConsultationID: req.ConsultationID,
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Status:         StatusInitiated,
	}

	ref, checkoutURL, err := s.gateway.Initiate(ctx, p)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "payment initiation failed")
	}
	p.GatewayRef = ref

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_id", p.ID).
		Str("gateway_ref", ref).
		Str("amount", p.Amount.String()).
		Msg("payment initiated")

	return &InitiateResult{Payment: p, CheckoutURL: checkoutURL}, nil
}

// Verify checks the gateway's confirmation and records the outcome. A
// failed verification is persisted as failed and reported as an error.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	if p.Status == StatusVerified {
		return p, nil
	}

	ref := req.GatewayRef
	if ref == "" {
		ref = p.GatewayRef
	}

	ok, err := s.gateway.Verify(ctx, ref, req.Signature)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "payment verification failed")
	}

	status := StatusVerified
	if !ok {
		status = StatusFailed
	}
	if err := s.repo.UpdateStatus(ctx, p.ID, status, ref); err != nil {
		return nil, err
	}
	p.Status = status
	p.GatewayRef = ref

	if !ok {
		s.log.Warn().Str("payment_id", p.ID).Msg("payment verification rejected")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "payment verification rejected", ErrVerificationFailed, "")
	}

	s.log.Info().Str("payment_id", p.ID).Msg("payment verified")
	return p, nil
}

// Status returns the current local payment record.
func (s *Service) Status(ctx context.Context, id string) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}
