package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	orderPlacedMessage = "Order placed"
	lowStockReason     = "Low stock alert"
)

// moneyScale is the number of decimal places stored for order and payment
// amounts. Amounts are rounded to it before the total is derived so that the
// stored row still satisfies total = subtotal - discount + delivery_fee.
const moneyScale = 4

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	couponRepo  repository.CouponRepository
	addressRepo repository.AddressRepository
	engine      *coupon.Engine
	payments    PaymentService
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	cfg         config.CheckoutConfig
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	couponRepo repository.CouponRepository,
	addressRepo repository.AddressRepository,
	engine *coupon.Engine,
	payments PaymentService,
	notifier notify.Notifier,
	m *metrics.Metrics,
	cfg config.CheckoutConfig,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		couponRepo:  couponRepo,
		addressRepo: addressRepo,
		engine:      engine,
		payments:    payments,
		notifier:    notifier,
		metrics:     m,
		cfg:         cfg,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// Checkout places the order and initiates payment. The provider is checked
// before anything is written. A payment failure after the order is placed is
// returned to the caller but never undoes the order; the order can be paid
// again with PayOrder.
func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, cart *model.Cart, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("checkout request is nil")
	}

	provider, err := s.paymentProvider(req.PaymentMethod)
	if err != nil {
		s.checkoutFailed(err)
		return nil, err
	}

	order, err := s.CreateOrderFromCart(ctx, userID, req.AddressID, cart, req.CouponCode, req.DeliveryFee)
	if err != nil {
		s.checkoutFailed(err)
		return nil, err
	}

	return s.pay(ctx, order, provider)
}

// PayOrder initiates a new payment for one of the user's orders that is still
// awaiting payment.
func (s *checkoutService) PayOrder(ctx context.Context, userID, orderID uuid.UUID, req *model.PaymentRequest) (*model.CheckoutResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("payment request is nil")
	}

	provider, err := s.paymentProvider(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	if order.Status != model.OrderCreated && order.Status != model.OrderPending {
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Msg("payment requested for settled order")
		return nil, model.ErrOrderNotPayable
	}

	return s.pay(ctx, order, provider)
}

// paymentProvider resolves the payment method and checks the provider is
// configured.
func (s *checkoutService) paymentProvider(method string) (model.Provider, error) {
	provider, err := payment.ParseMethod(method)
	if err != nil {
		return "", err
	}
	if err := s.payments.CheckProvider(provider); err != nil {
		return "", err
	}
	return provider, nil
}

func (s *checkoutService) checkoutFailed(err error) {
	code := model.ErrCodeInternalError
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}
	s.metrics.CheckoutFailed(code)
}

func (s *checkoutService) pay(ctx context.Context, order *model.Order, provider model.Provider) (*model.CheckoutResponse, error) {
	instruction, err := s.payments.InitiatePayment(ctx, order, provider)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("provider", string(provider)).
			Msg("payment initiation failed, order kept")
		return nil, err
	}

	return &model.CheckoutResponse{
		OrderID:     order.ID,
		Status:      order.Status,
		Subtotal:    order.Subtotal,
		Discount:    order.Discount,
		DeliveryFee: order.DeliveryFee,
		Total:       order.Total,
		Payment:     instruction,
	}, nil
}

// CreateOrderFromCart converts the cart into an order in one transaction:
// price the cart, apply the coupon, reserve stock line by line, copy the lines,
// empty the cart and record the audit event. Any failure rolls everything back.
func (s *checkoutService) CreateOrderFromCart(
	ctx context.Context,
	userID, addressID uuid.UUID,
	cart *model.Cart,
	couponCode string,
	deliveryFee decimal.Decimal,
) (order *model.Order, err error) {
	if cart == nil || cart.IsEmpty() {
		return nil, model.ErrEmptyCart
	}

	if deliveryFee.IsNegative() {
		return nil, model.ErrInvalidDeliveryFee
	}
	deliveryFee = deliveryFee.Round(moneyScale)

	couponCode = coupon.NormalizeCode(couponCode)
	if err := coupon.ValidateCode(couponCode); err != nil {
		return nil, err
	}

	address, err := s.addressRepo.GetForUser(ctx, addressID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil {
		s.logger.Warn().
			Str("address_id", addressID.String()).
			Str("user_id", userID.String()).
			Msg("address not found for user")
		return nil, model.ErrAddressNotFound
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	subtotal := cart.Subtotal()
	discount := decimal.Zero
	var couponID *uuid.UUID

	if couponCode != "" {
		var c *model.Coupon
		c, err = s.couponRepo.GetActiveByCode(ctx, tx, couponCode)
		if err != nil {
			return nil, fmt.Errorf("failed to look up coupon: %w", err)
		}

		discount = s.engine.Apply(c, subtotal).Round(moneyScale)
		if discount.IsPositive() && s.cfg.RedeemCoupons {
			var redeemed bool
			redeemed, err = s.couponRepo.Redeem(ctx, tx, c.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to redeem coupon: %w", err)
			}
			if !redeemed {
				s.logger.Info().Str("coupon_code", couponCode).Msg("coupon used up during checkout")
				discount = decimal.Zero
			}
		}

		if discount.IsPositive() {
			couponID = &c.ID
		} else {
			s.logger.Debug().Str("coupon_code", couponCode).Msg("coupon gave no discount")
		}
	}

	order = &model.Order{
		ID:                uuid.New(),
		UserID:            userID,
		ShippingAddressID: address.ID,
		CouponID:          couponID,
		Status:            model.OrderCreated,
		Subtotal:          subtotal,
		Discount:          discount,
		DeliveryFee:       deliveryFee,
		Total:             subtotal.Sub(discount).Add(deliveryFee),
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]model.OrderItem, 0, len(cart.Items))
	logs := make([]model.InventoryLog, 0, len(cart.Items))
	var alerts []notify.Event

	for i, line := range cart.Items {
		var change *repository.StockChange
		change, err = s.productRepo.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
		if change == nil {
			err = model.ErrProductUnavailable
			return nil, err
		}
		if !change.Applied {
			s.logger.Info().
				Str("product_id", line.ProductID).
				Int("requested", line.Quantity).
				Int("available", change.Stock).
				Msg("insufficient stock")
			err = model.NewInsufficientStockError(change.Title)
			return nil, err
		}

		items = append(items, model.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    line.ProductID,
			ProductTitle: change.Title,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Position:     i,
		})
		logs = append(logs, model.InventoryLog{
			ProductID: line.ProductID,
			Change:    -line.Quantity,
			Reason:    fmt.Sprintf("Order #%s", order.ID),
		})

		if change.Stock <= s.cfg.LowStockThreshold {
			logs = append(logs, model.InventoryLog{
				ProductID: line.ProductID,
				Change:    0,
				Reason:    lowStockReason,
			})
			alerts = append(alerts, notify.LowStock(line.ProductID, change.Title, change.Stock))
		}
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = s.productRepo.AddInventoryLogs(ctx, tx, logs); err != nil {
		return nil, fmt.Errorf("failed to record inventory: %w", err)
	}

	if err = s.cartRepo.ClearItems(ctx, tx, cart.ID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err = s.orderRepo.AddEvent(ctx, tx, &model.OrderEvent{
		OrderID: order.ID,
		Status:  model.OrderCreated,
		Message: orderPlacedMessage,
	}); err != nil {
		return nil, fmt.Errorf("failed to record order event: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.metrics.OrderPlaced()
	s.notifier.Notify(ctx, notify.OrderCreated(order))
	for _, alert := range alerts {
		s.notifier.Notify(ctx, alert)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Int("item_count", len(items)).
		Str("total", order.Total.String()).
		Msg("order created successfully")

	return order, nil
}

// ListOrders retrieves a user's orders, newest first.
func (s *checkoutService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	limit, offset = clampPage(limit, offset, 20)

	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder retrieves one of the user's orders. Orders of other users are
// reported as not found.
func (s *checkoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.OrderDetail, error) {
	detail, err := s.orderRepo.GetDetail(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if detail == nil || detail.UserID != userID {
		s.logger.Debug().Str("order_id", orderID.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return detail, nil
}
