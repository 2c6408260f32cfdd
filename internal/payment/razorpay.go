package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/rs/zerolog"
)

const (
	razorpayCaptured = "payment.captured"
	razorpayFailed   = "payment.failed"
)

// orderCreator is the subset of the Razorpay client used to create orders.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type razorpayGateway struct {
	orders   orderCreator
	cfg      config.RazorpayConfig
	currency string
	logger   zerolog.Logger
}

// NewRazorpayGateway creates the Razorpay gateway. Without a key pair the
// gateway still exists but Initiate reports it as not configured.
func NewRazorpayGateway(cfg config.RazorpayConfig, currency string, logger zerolog.Logger) Gateway {
	var orders orderCreator
	if cfg.KeyID != "" && cfg.KeySecret != "" {
		orders = razorpay.NewClient(cfg.KeyID, cfg.KeySecret).Order
	}
	return newRazorpayGateway(orders, cfg, currency, logger)
}

func newRazorpayGateway(orders orderCreator, cfg config.RazorpayConfig, currency string, logger zerolog.Logger) *razorpayGateway {
	return &razorpayGateway{
		orders:   orders,
		cfg:      cfg,
		currency: currency,
		logger:   logger.With().Str("component", "razorpay-gateway").Logger(),
	}
}

func (g *razorpayGateway) Provider() model.Provider { return model.ProviderRazorpay }

func (g *razorpayGateway) SignatureHeader() string { return "X-Razorpay-Signature" }

type razorpayResult struct {
	order map[string]interface{}
	err   error
}

// Initiate creates a Razorpay order for the order total. The SDK takes no
// context, so the call is abandoned when ctx is done.
func (g *razorpayGateway) Initiate(ctx context.Context, order *model.Order) (*Intent, error) {
	if g.orders == nil || g.cfg.KeyID == "" || g.cfg.KeySecret == "" {
		return nil, model.NewProviderNotConfiguredError(model.ProviderRazorpay)
	}

	data := map[string]interface{}{
		"amount":          MinorUnits(order.Total),
		"currency":        g.currency,
		"payment_capture": 1,
		"notes":           map[string]interface{}{"order_id": order.ID.String()},
	}

	done := make(chan razorpayResult, 1)
	go func() {
		created, err := g.orders.Create(data, nil)
		done <- razorpayResult{order: created, err: err}
	}()

	var res razorpayResult
	select {
	case <-ctx.Done():
		g.logger.Error().Err(ctx.Err()).Str("order_id", order.ID.String()).Msg("razorpay order timed out")
		return nil, model.NewProviderError(model.ProviderRazorpay, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		g.logger.Error().Err(res.err).Str("order_id", order.ID.String()).Msg("failed to create razorpay order")
		return nil, model.NewProviderError(model.ProviderRazorpay, res.err)
	}

	id, _ := res.order["id"].(string)
	if id == "" {
		return nil, model.NewProviderError(model.ProviderRazorpay, errors.New("response has no order id"))
	}

	payload, err := json.Marshal(res.order)
	if err != nil {
		return nil, fmt.Errorf("failed to encode razorpay order: %w", err)
	}

	currency, _ := res.order["currency"].(string)
	if currency == "" {
		currency = g.currency
	}

	g.logger.Info().
		Str("order_id", order.ID.String()).
		Str("razorpay_order", id).
		Msg("razorpay order created")

	return &Intent{
		TransactionID: id,
		Payload:       payload,
		Instruction: &model.PaymentInstruction{
			Provider: model.ProviderRazorpay,
			OrderID:  id,
			Amount:   toInt64(res.order["amount"], MinorUnits(order.Total)),
			Currency: currency,
			KeyID:    g.cfg.KeyID,
		},
	}, nil
}

// toInt64 reads a JSON number decoded as float64 or json.Number.
func toInt64(v interface{}, fallback int64) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	return fallback
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID     string          `json:"id"`
				Amount int64           `json:"amount"`
				Notes  json.RawMessage `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// VerifyWebhook checks the X-Razorpay-Signature HMAC and extracts the payment entity.
func (g *razorpayGateway) VerifyWebhook(body []byte, signature string) (*WebhookEvent, error) {
	secret := g.cfg.RazorpayWebhookSecret()
	if secret == "" || signature == "" {
		return nil, model.ErrInvalidWebhook
	}

	if !utils.VerifyWebhookSignature(string(body), signature, secret) {
		g.logger.Warn().Msg("razorpay webhook signature mismatch")
		return nil, model.ErrInvalidWebhook
	}

	var event razorpayWebhook
	if err := json.Unmarshal(body, &event); err != nil {
		g.logger.Warn().Err(err).Msg("razorpay webhook body is not valid JSON")
		return nil, model.ErrInvalidWebhook
	}

	entity := event.Payload.Payment.Entity
	if entity.ID == "" {
		return &WebhookEvent{Provider: model.ProviderRazorpay, Payload: json.RawMessage(body)}, nil
	}

	// Razorpay sends notes as [] when empty.
	var notes map[string]interface{}
	_ = json.Unmarshal(entity.Notes, &notes)
	orderID, _ := notes["order_id"].(string)

	var status model.PaymentStatus
	switch event.Event {
	case razorpayCaptured:
		status = model.PaymentCompleted
	case razorpayFailed:
		status = model.PaymentFailed
	default:
		// authorized, refunds and the like do not settle the order
		return &WebhookEvent{Provider: model.ProviderRazorpay, Payload: json.RawMessage(body)}, nil
	}

	return &WebhookEvent{
		Provider:      model.ProviderRazorpay,
		OrderID:       orderID,
		TransactionID: entity.ID,
		Amount:        FromMinorUnits(entity.Amount),
		Status:        status,
		Payload:       json.RawMessage(body),
	}, nil
}
