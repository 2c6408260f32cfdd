package service

import (
	"context"
	"encoding/json"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService defines read operations over the published catalogue.
type ProductService interface {
	// List retrieves published products with pagination.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetBySlug retrieves a published product with tags and rating.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// ListReviews retrieves the reviews of the product with the given slug.
	ListReviews(ctx context.Context, slug string, limit, offset int) ([]model.Review, error)
}

// CartService defines operations on shopping carts.
type CartService interface {
	// GetCart resolves the caller's cart from a session key and optional user,
	// merging the user's other cart into a session cart on first sight.
	GetCart(ctx context.Context, sessionKey string, userID *uuid.UUID) (*model.Cart, error)

	// AddItem adds qty units of a product, refreshing the line's unit price.
	AddItem(ctx context.Context, cartID uuid.UUID, productID string, qty int) (*model.Cart, error)

	// UpdateItem sets the quantity of a line. Zero removes it.
	UpdateItem(ctx context.Context, cartID uuid.UUID, productID string, qty int) (*model.Cart, error)

	// RemoveItem deletes a line.
	RemoveItem(ctx context.Context, cartID uuid.UUID, productID string) (*model.Cart, error)

	// Clear deletes every line, keeping the cart.
	Clear(ctx context.Context, cartID uuid.UUID) (*model.Cart, error)
}

// CheckoutService places orders and reads them back.
type CheckoutService interface {
	// Checkout validates the request, places the order from the cart and
	// initiates payment with the requested provider.
	Checkout(ctx context.Context, userID uuid.UUID, cart *model.Cart, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// CreateOrderFromCart converts the cart into an order in a single transaction.
	CreateOrderFromCart(ctx context.Context, userID, addressID uuid.UUID, cart *model.Cart, couponCode string, deliveryFee decimal.Decimal) (*model.Order, error)

	// ListOrders retrieves a user's orders, newest first.
	ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)

	// GetOrder retrieves one of the user's orders with items, payments and events.
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.OrderDetail, error)

	// PayOrder initiates a new payment for an unpaid order of the user.
	PayOrder(ctx context.Context, userID, orderID uuid.UUID, req *model.PaymentRequest) (*model.CheckoutResponse, error)
}

// PaymentRecord is a payment attempt reported by checkout or a provider webhook.
type PaymentRecord struct {
	OrderID       uuid.UUID
	Provider      model.Provider
	Amount        decimal.Decimal
	Status        model.PaymentStatus
	TransactionID string
	Payload       json.RawMessage
}

// PaymentService initiates and records payments.
type PaymentService interface {
	// CheckProvider reports whether payments can be initiated with provider.
	CheckProvider(provider model.Provider) error

	// InitiatePayment creates the provider-side payment for an order and records it as pending.
	InitiatePayment(ctx context.Context, order *model.Order, provider model.Provider) (*model.PaymentInstruction, error)

	// RecordPayment idempotently stores a payment attempt and advances the order status.
	RecordPayment(ctx context.Context, rec PaymentRecord) (*model.Payment, error)
}

// WebhookService reconciles provider webhooks with orders.
type WebhookService interface {
	// SignatureHeader returns the header carrying the provider's signature.
	SignatureHeader(provider string) (string, bool)

	// Handle verifies a webhook and records the payment it reports.
	Handle(ctx context.Context, provider string, body []byte, signature string) error
}

// SearchService defines catalogue search operations.
type SearchService interface {
	// Search returns published products matching the filter.
	Search(ctx context.Context, filter model.SearchFilter) (*model.SearchResult, error)

	// Suggestions returns autocomplete entries: exact matches, then prefixes, then substrings.
	Suggestions(ctx context.Context, query string, limit int) ([]model.Suggestion, error)

	// PopularSearches returns the most frequent queries.
	PopularSearches(limit int) []model.PopularSearch
}

// AnalyticsService defines admin reporting operations.
type AnalyticsService interface {
	SalesOverview(ctx context.Context, days int) (*model.SalesOverview, error)
	DailySales(ctx context.Context, days int) ([]model.DailySales, error)
	CategorySales(ctx context.Context, days int) ([]model.CategorySales, error)
	TopProducts(ctx context.Context, days, limit int) ([]model.ProductSales, error)
	PaymentMethods(ctx context.Context, days int) ([]model.PaymentMethodStats, error)
	CustomerMetrics(ctx context.Context, days int) (*model.CustomerMetrics, error)
	InventoryAlerts(ctx context.Context, threshold int) ([]model.InventoryAlert, error)
	RecentOrders(ctx context.Context, limit int) ([]model.RecentOrder, error)

	// Dashboard runs every report concurrently.
	Dashboard(ctx context.Context, days int) (*model.Dashboard, error)
}
