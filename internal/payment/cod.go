package payment

import (
	"context"

	"storefront/internal/model"
)

// codGateway records cash on delivery. It has no provider round trip and
// receives no webhooks.
type codGateway struct{}

// NewCODGateway creates the cash on delivery gateway.
func NewCODGateway() Gateway {
	return codGateway{}
}

func (codGateway) Provider() model.Provider { return model.ProviderCOD }

func (codGateway) SignatureHeader() string { return "" }

// Initiate returns a pending payment keyed by cod-<order id>.
func (codGateway) Initiate(_ context.Context, order *model.Order) (*Intent, error) {
	return &Intent{
		TransactionID: "cod-" + order.ID.String(),
		Payload:       []byte(`{"note":"Cash on delivery"}`),
		Instruction: &model.PaymentInstruction{
			Provider: model.ProviderCOD,
			Status:   "placed",
		},
	}, nil
}

func (codGateway) VerifyWebhook([]byte, string) (*WebhookEvent, error) {
	return nil, model.ErrInvalidWebhook
}
