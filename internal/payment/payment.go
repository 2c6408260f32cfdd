// Package payment adapts the supported payment providers to a single
// Gateway interface: creating provider-side payments at checkout and
// verifying the webhooks they send back.
package payment

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Gateway creates payments with one provider and verifies its webhooks.
type Gateway interface {
	// Provider identifies the gateway.
	Provider() model.Provider

	// Initiate creates the provider-side payment for an order.
	Initiate(ctx context.Context, order *model.Order) (*Intent, error)

	// VerifyWebhook authenticates a webhook body and normalizes it. Every
	// failure is reported as model.ErrInvalidWebhook.
	VerifyWebhook(body []byte, signature string) (*WebhookEvent, error)

	// SignatureHeader is the HTTP header carrying the webhook signature.
	SignatureHeader() string
}

// Intent is a created provider-side payment.
type Intent struct {
	TransactionID string
	Payload       json.RawMessage
	Instruction   *model.PaymentInstruction
}

// WebhookEvent is a verified provider notification. An empty TransactionID
// means the notification is not about a payment.
type WebhookEvent struct {
	Provider      model.Provider
	OrderID       string
	TransactionID string
	Amount        decimal.Decimal
	Status        model.PaymentStatus
	Payload       json.RawMessage
}

var methodPattern = regexp.MustCompile(`^[a-z_-]{1,30}$`)

// ParseMethod maps a client supplied payment method to a provider. Empty and
// unrecognised well-formed names select cash on delivery.
func ParseMethod(s string) (model.Provider, error) {
	method := strings.ToLower(strings.TrimSpace(s))
	switch method {
	case "":
		return model.ProviderCOD, nil
	case "stripe":
		return model.ProviderStripe, nil
	case "razorpay":
		return model.ProviderRazorpay, nil
	case "cod", "cash-on-delivery", "cash_on_delivery":
		return model.ProviderCOD, nil
	}
	if !methodPattern.MatchString(method) {
		return "", model.ErrInvalidPaymentMethod
	}
	return model.ProviderCOD, nil
}

// ParseProvider resolves a webhook path segment. Only providers that send
// webhooks are accepted.
func ParseProvider(s string) (model.Provider, bool) {
	switch model.Provider(strings.ToLower(s)) {
	case model.ProviderStripe:
		return model.ProviderStripe, true
	case model.ProviderRazorpay:
		return model.ProviderRazorpay, true
	}
	return "", false
}

// MinorUnits converts an amount to the provider's smallest currency unit,
// truncating anything below it.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Truncate(0).IntPart()
}

// FromMinorUnits converts a provider amount back to a decimal.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Gateways indexes the configured gateways by provider.
type Gateways map[model.Provider]Gateway

// NewGateways builds the registry from the given gateways.
func NewGateways(gateways ...Gateway) Gateways {
	g := make(Gateways, len(gateways))
	for _, gw := range gateways {
		g[gw.Provider()] = gw
	}
	return g
}

// Get returns the gateway for provider.
func (g Gateways) Get(provider model.Provider) (Gateway, bool) {
	gw, ok := g[provider]
	return gw, ok
}
