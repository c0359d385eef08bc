// Package payment integrates external card processors.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// zeroDecimalCurrencies are charged in whole units rather than cents
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// StripeGateway refunds card payments and verifies webhooks through Stripe
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
	logger        *zap.Logger
}

// StripeOption customizes a StripeGateway
type StripeOption func(*stripe.BackendConfig)

// WithBackendURL points the API client at another base URL
func WithBackendURL(url string) StripeOption {
	return func(c *stripe.BackendConfig) {
		c.URL = stripe.String(url)
	}
}

// NewStripeGateway creates a gateway from the payment configuration
func NewStripeGateway(cfg config.PaymentConfig, logger *zap.Logger, opts ...StripeOption) (*StripeGateway, error) {
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if !strings.HasPrefix(cfg.StripeSecretKey, "sk_") && !strings.HasPrefix(cfg.StripeSecretKey, "rk_") {
		return nil, errors.New("stripe: secret key must start with sk_ or rk_")
	}

	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(2),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	for _, opt := range opts {
		opt(backendCfg)
	}

	api := &client.API{}
	api.Init(cfg.StripeSecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	})

	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.StripeWebhookSecret,
		currency:      strings.ToLower(cfg.Currency),
		logger:        logger.Named("stripe"),
	}, nil
}

// Refund refunds a PaymentIntent. A zero amount refunds the full charge.
func (g *StripeGateway) Refund(ctx context.Context, req finance.RefundRequest) (*finance.RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.TransactionID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if req.Amount.IsPositive() {
		params.Amount = stripe.Int64(g.minorUnits(req.Amount))
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe refund",
			zap.String("payment_intent", req.TransactionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create refund: %w", err)
	}

	g.logger.Info("Created Stripe refund",
		zap.String("payment_intent", req.TransactionID),
		zap.String("refund_id", refund.ID),
		zap.String("status", string(refund.Status)))

	return &finance.RefundResult{RefundID: refund.ID, Status: string(refund.Status)}, nil
}

// VerifyWebhook checks the Stripe-Signature header and extracts the
// PaymentIntent id of payment_intent.* events
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*finance.GatewayEvent, error) {
	if g.webhookSecret == "" {
		return nil, errors.New("stripe: webhook secret is not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.logger.Warn("Failed to verify webhook signature", zap.Error(err))
		return nil, finance.ErrInvalidSignature
	}

	out := &finance.GatewayEvent{Type: string(event.Type)}
	if strings.HasPrefix(string(event.Type), "payment_intent.") && event.Data != nil {
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("stripe: failed to decode payment intent: %w", err)
		}
		out.TransactionID = intent.ID
	}
	return out, nil
}

// minorUnits converts an amount to the smallest currency unit
func (g *StripeGateway) minorUnits(amount decimal.Decimal) int64 {
	if zeroDecimalCurrencies[g.currency] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var (
	_ finance.PaymentGateway  = (*StripeGateway)(nil)
	_ finance.WebhookVerifier = (*StripeGateway)(nil)
)
