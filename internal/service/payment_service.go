package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	gateways    payment.Gateways
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	currency    string
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	gateways payment.Gateways,
	notifier notify.Notifier,
	m *metrics.Metrics,
	cfg config.PaymentsConfig,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gateways:    gateways,
		notifier:    notifier,
		metrics:     m,
		currency:    cfg.Currency,
		timeout:     cfg.ProviderTimeout,
		logger:      logger.With().Str("service", "payment").Logger(),
	}
}

// CheckProvider returns a configuration error when no gateway is registered
// for provider.
func (s *paymentService) CheckProvider(provider model.Provider) error {
	if _, ok := s.gateways.Get(provider); !ok {
		s.metrics.PaymentInitiated(string(provider), "not_configured")
		return model.NewProviderNotConfiguredError(provider)
	}
	return nil
}

// InitiatePayment creates the provider-side payment under the provider timeout
// and records it as pending.
func (s *paymentService) InitiatePayment(ctx context.Context, order *model.Order, provider model.Provider) (*model.PaymentInstruction, error) {
	gw, ok := s.gateways.Get(provider)
	if !ok {
		s.metrics.PaymentInitiated(string(provider), "not_configured")
		return nil, model.NewProviderNotConfiguredError(provider)
	}

	providerCtx, cancel := context.WithTimeout(ctx, s.timeout)
	intent, err := gw.Initiate(providerCtx, order)
	cancel()
	if err != nil {
		s.metrics.PaymentInitiated(string(provider), "failed")
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("provider", string(provider)).
			Msg("failed to initiate payment")
		return nil, err
	}

	if _, err := s.RecordPayment(ctx, PaymentRecord{
		OrderID:       order.ID,
		Provider:      provider,
		Amount:        order.Total,
		Status:        model.PaymentPending,
		TransactionID: intent.TransactionID,
		Payload:       intent.Payload,
	}); err != nil {
		return nil, err
	}

	s.metrics.PaymentInitiated(string(provider), "ok")
	if order.Status == model.OrderCreated {
		order.Status = model.OrderPending
	}

	return intent.Instruction, nil
}

// nextOrderStatus returns the status a payment moves an order to, or "" when
// the order stays put. Orders never move back from paid or later states.
func nextOrderStatus(current model.OrderStatus, status model.PaymentStatus) model.OrderStatus {
	if current != model.OrderCreated && current != model.OrderPending {
		return ""
	}
	if status == model.PaymentCompleted {
		return model.OrderPaid
	}
	if current == model.OrderCreated {
		return model.OrderPending
	}
	return ""
}

// RecordPayment upserts the payment on (order, provider, transaction id) and
// advances the order in the same transaction. A completed payment marks the
// order paid and sends the receipt notification after commit.
func (s *paymentService) RecordPayment(ctx context.Context, rec PaymentRecord) (p *model.Payment, err error) {
	if rec.TransactionID == "" {
		return nil, fmt.Errorf("payment transaction id is required")
	}
	if !rec.Status.Valid() {
		return nil, fmt.Errorf("invalid payment status %q", rec.Status)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, rec.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	p = &model.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Provider:      rec.Provider,
		Amount:        rec.Amount,
		Currency:      s.currency,
		Status:        rec.Status,
		TransactionID: rec.TransactionID,
		Payload:       rec.Payload,
	}
	if err = s.paymentRepo.Upsert(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	paid := false
	if next := nextOrderStatus(order.Status, rec.Status); next != "" {
		var changed bool
		changed, err = s.orderRepo.UpdateStatus(ctx, tx, order.ID, next, order.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to update order status: %w", err)
		}
		if changed {
			message := "Awaiting payment via " + rec.Provider.DisplayName()
			if next == model.OrderPaid {
				message = "Payment received via " + rec.Provider.DisplayName()
				paid = true
			}
			if err = s.orderRepo.AddEvent(ctx, tx, &model.OrderEvent{
				OrderID: order.ID,
				Status:  next,
				Message: message,
			}); err != nil {
				return nil, fmt.Errorf("failed to record order event: %w", err)
			}
			order.Status = next
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.metrics.PaymentRecorded(string(rec.Provider), string(rec.Status))
	if paid {
		s.notifier.Notify(ctx, notify.OrderPaid(order, p))
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("provider", string(rec.Provider)).
		Str("transaction_id", rec.TransactionID).
		Str("payment_status", string(rec.Status)).
		Str("order_status", string(order.Status)).
		Msg("payment recorded")

	return p, nil
}
