// Package payments talks to the external payment gateway over HTTP.
package payments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"teleclinic/consult-api/internal/config"
	domain "teleclinic/consult-api/internal/domain/payment"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// Gateway is an HTTP client for the payment gateway implementing
// payment.Gateway.
type Gateway struct {
	client  *resty.Client
	baseURL string
	log     zerolog.Logger
}

// NewGateway creates a gateway client from config.
func NewGateway(cfg *config.Config, log zerolog.Logger) *Gateway {
	gwLog := log.With().Str("component", "payment-gateway").Logger()

	client := resty.New().
		SetBaseURL(cfg.PaymentGatewayURL).
		SetTimeout(cfg.PaymentGatewayTimeout).
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.PaymentGatewayKey)

	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		gwLog.Debug().
			Int("status", r.StatusCode()).
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Dur("latency", r.Duration()).
			Msg("gateway request")
		return nil
	})

	return &Gateway{
		client:  client,
		baseURL: cfg.PaymentGatewayURL,
		log:     gwLog,
	}
}

type initiateRequest struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

type initiateResponse struct {
	GatewayRef  string `json:"gatewayRef"`
	CheckoutURL string `json:"checkoutUrl"`
	Error       string `json:"error,omitempty"`
}

type verifyRequest struct {
	GatewayRef string `json:"gatewayRef"`
	Signature  string `json:"signature"`
}

type verifyResponse struct {
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

// Initiate registers a payment with the gateway.
func (g *Gateway) Initiate(ctx context.Context, p *domain.Payment) (string, string, error) {
	var out initiateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(initiateRequest{
			Reference: p.ID,
			Amount:    p.Amount.StringFixed(2),
			Currency:  p.Currency,
		}).
		SetResult(&out).
		Post("/v1/payments")
	if err != nil {
		return "", "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal, "payment gateway unreachable", err, "")
	}
	if resp.IsError() {
		return "", "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal,
			fmt.Sprintf("payment gateway returned %d", resp.StatusCode()), nil, "")
	}
	return out.GatewayRef, out.CheckoutURL, nil
}

// Verify confirms a payment against the gateway.
func (g *Gateway) Verify(ctx context.Context, ref, signature string) (bool, error) {
	var out verifyResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(verifyRequest{GatewayRef: ref, Signature: signature}).
		SetResult(&out).
		Post("/v1/payments/verify")
	if err != nil {
		return false, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal, "payment gateway unreachable", err, "")
	}
	if resp.IsError() {
		return false, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal,
			fmt.Sprintf("payment gateway returned %d", resp.StatusCode()), nil, "")
	}
	return out.Verified, nil
}

// Close releases the underlying HTTP client resources.
func (g *Gateway) Close() {
	g.client.Close()
}
