package service

import (
	"context"
	"fmt"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// webhookService implements WebhookService.
type webhookService struct {
	gateways  payment.Gateways
	orderRepo repository.OrderRepository
	payments  PaymentService
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(
	gateways payment.Gateways,
	orderRepo repository.OrderRepository,
	payments PaymentService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) WebhookService {
	return &webhookService{
		gateways:  gateways,
		orderRepo: orderRepo,
		payments:  payments,
		metrics:   m,
		logger:    logger.With().Str("service", "webhook").Logger(),
	}
}

func (s *webhookService) gateway(name string) (payment.Gateway, bool) {
	provider, ok := payment.ParseProvider(name)
	if !ok {
		return nil, false
	}
	return s.gateways.Get(provider)
}

// SignatureHeader returns the header carrying the provider's signature.
func (s *webhookService) SignatureHeader(name string) (string, bool) {
	gw, ok := s.gateway(name)
	if !ok {
		return "", false
	}
	return gw.SignatureHeader(), true
}

// Handle verifies the webhook, resolves its order and records the payment.
// Verified notifications that carry no payment are acknowledged without
// effect. Rejections carry no detail about why verification failed.
func (s *webhookService) Handle(ctx context.Context, name string, body []byte, signature string) error {
	gw, ok := s.gateway(name)
	if !ok {
		s.metrics.Webhook("unsupported", "rejected")
		s.logger.Warn().Str("provider", name).Msg("webhook for unsupported provider")
		return model.ErrUnsupportedProvider
	}
	provider := string(gw.Provider())

	event, err := gw.VerifyWebhook(body, signature)
	if err != nil || event == nil {
		s.metrics.Webhook(provider, "rejected")
		return model.ErrInvalidWebhook
	}
	if event.TransactionID == "" {
		s.metrics.Webhook(provider, "ignored")
		s.logger.Debug().Str("provider", provider).Msg("webhook carries no payment, acknowledged")
		return nil
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		s.metrics.Webhook(provider, "unknown_order")
		s.logger.Warn().Str("provider", provider).Str("order_ref", event.OrderID).Msg("webhook order reference is not an order id")
		return model.ErrOrderNotFound
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.metrics.Webhook(provider, "unknown_order")
		s.logger.Warn().Str("provider", provider).Str("order_id", orderID.String()).Msg("webhook for unknown order")
		return model.ErrOrderNotFound
	}

	expected := payment.FromMinorUnits(payment.MinorUnits(order.Total))
	if !event.Amount.Equal(expected) {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("provider", provider).
			Str("expected", expected.String()).
			Str("received", event.Amount.String()).
			Msg("webhook amount does not match order total")
	}

	if _, err := s.payments.RecordPayment(ctx, PaymentRecord{
		OrderID:       order.ID,
		Provider:      gw.Provider(),
		Amount:        event.Amount,
		Status:        event.Status,
		TransactionID: event.TransactionID,
		Payload:       event.Payload,
	}); err != nil {
		s.metrics.Webhook(provider, "failed")
		return err
	}

	s.metrics.Webhook(provider, "ok")
	return nil
}
