package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	stripeSucceeded = "payment_intent.succeeded"
	stripeFailed    = "payment_intent.payment_failed"
	stripeCanceled  = "payment_intent.canceled"
)

// intentCreator is the subset of the Stripe client used to create payment intents.
type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeGateway struct {
	intents  intentCreator
	cfg      config.StripeConfig
	currency string
	appName  string
	logger   zerolog.Logger
}

// NewStripeGateway creates the Stripe gateway. Without a secret key the
// gateway still exists but Initiate reports it as not configured.
func NewStripeGateway(cfg config.StripeConfig, currency, appName string, logger zerolog.Logger) Gateway {
	var intents intentCreator
	if cfg.SecretKey != "" {
		intents = client.New(cfg.SecretKey, nil).PaymentIntents
	}
	return newStripeGateway(intents, cfg, currency, appName, logger)
}

func newStripeGateway(intents intentCreator, cfg config.StripeConfig, currency, appName string, logger zerolog.Logger) *stripeGateway {
	return &stripeGateway{
		intents:  intents,
		cfg:      cfg,
		currency: strings.ToLower(currency),
		appName:  appName,
		logger:   logger.With().Str("component", "stripe-gateway").Logger(),
	}
}

func (g *stripeGateway) Provider() model.Provider { return model.ProviderStripe }

func (g *stripeGateway) SignatureHeader() string { return "Stripe-Signature" }

// Initiate creates a PaymentIntent for the order total.
func (g *stripeGateway) Initiate(ctx context.Context, order *model.Order) (*Intent, error) {
	if g.intents == nil || g.cfg.SecretKey == "" {
		return nil, model.NewProviderNotConfiguredError(model.ProviderStripe)
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(MinorUnits(order.Total)),
		Currency:    stripe.String(g.currency),
		Description: stripe.String(fmt.Sprintf("%s order #%s", g.appName, order.ID)),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID.String())

	intent, err := g.intents.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create payment intent")
		return nil, model.NewProviderError(model.ProviderStripe, err)
	}

	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment intent: %w", err)
	}

	g.logger.Info().
		Str("order_id", order.ID.String()).
		Str("payment_intent", intent.ID).
		Msg("payment intent created")

	return &Intent{
		TransactionID: intent.ID,
		Payload:       payload,
		Instruction: &model.PaymentInstruction{
			Provider:       model.ProviderStripe,
			ClientSecret:   intent.ClientSecret,
			PublishableKey: g.cfg.PublishableKey,
			PaymentIntent:  intent.ID,
		},
	}, nil
}

type stripeIntentObject struct {
	ID             string            `json:"id"`
	Object         string            `json:"object"`
	Amount         int64             `json:"amount"`
	AmountReceived int64             `json:"amount_received"`
	Metadata       map[string]string `json:"metadata"`
}

// VerifyWebhook checks the Stripe-Signature header and extracts the payment intent.
func (g *stripeGateway) VerifyWebhook(body []byte, signature string) (*WebhookEvent, error) {
	if g.cfg.WebhookSecret == "" || signature == "" {
		return nil, model.ErrInvalidWebhook
	}

	event, err := webhook.ConstructEventWithOptions(body, signature, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.logger.Warn().Err(err).Msg("stripe webhook rejected")
		return nil, model.ErrInvalidWebhook
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, model.ErrInvalidWebhook
	}

	var obj stripeIntentObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		g.logger.Warn().Err(err).Str("event_id", event.ID).Msg("stripe webhook data is not an object")
		return nil, model.ErrInvalidWebhook
	}

	// Events about other objects carry no payment and are acknowledged as is.
	if obj.Object != "payment_intent" || obj.ID == "" {
		return &WebhookEvent{Provider: model.ProviderStripe, Payload: json.RawMessage(event.Data.Raw)}, nil
	}

	amount := obj.AmountReceived
	if amount == 0 {
		amount = obj.Amount
	}

	var status model.PaymentStatus
	switch string(event.Type) {
	case stripeSucceeded:
		status = model.PaymentCompleted
	case stripeFailed, stripeCanceled:
		status = model.PaymentFailed
	default:
		return &WebhookEvent{Provider: model.ProviderStripe, Payload: json.RawMessage(event.Data.Raw)}, nil
	}

	return &WebhookEvent{
		Provider:      model.ProviderStripe,
		OrderID:       obj.Metadata["order_id"],
		TransactionID: obj.ID,
		Amount:        FromMinorUnits(amount),
		Status:        status,
		Payload:       json.RawMessage(event.Data.Raw),
	}, nil
}
