package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for catalogue data access operations.
type ProductRepository interface {
	// List retrieves published products, newest first, with pagination support.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID, published or not.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetBySlug retrieves a published product with its tags and rating.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Order is not preserved.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ListReviews retrieves the reviews of a product, newest first.
	ListReviews(ctx context.Context, productID string, limit, offset int) ([]model.Review, error)

	// DecrementStock atomically takes qty units of stock within the provided transaction.
	// When stock is insufficient the row is left untouched and Applied is false.
	DecrementStock(ctx context.Context, tx pgx.Tx, productID string, qty int) (*StockChange, error)

	// AddInventoryLogs appends stock movement records within the provided transaction.
	AddInventoryLogs(ctx context.Context, tx pgx.Tx, logs []model.InventoryLog) error

	// LowStock retrieves published products at or below threshold, lowest stock first.
	LowStock(ctx context.Context, threshold, limit int) ([]model.InventoryAlert, error)
}

// StockChange is the outcome of a conditional stock decrement.
type StockChange struct {
	ProductID string
	Title     string
	Stock     int
	Applied   bool
}

// SearchRepository runs catalogue search queries.
type SearchRepository interface {
	// Search returns the IDs of matching published products in ranking order.
	Search(ctx context.Context, filter model.SearchFilter) ([]string, error)

	// Suggestions returns title matches of the given kind (exact, starts_with or contains),
	// skipping the excluded slugs.
	Suggestions(ctx context.Context, query, matchType string, exclude []string, limit int) ([]model.Suggestion, error)
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// GetOrCreateBySessionKey returns the cart bound to key, creating it if needed.
	GetOrCreateBySessionKey(ctx context.Context, key string) (*model.Cart, error)

	// GetOrCreateByUser returns the most recently updated cart of a user, creating one if needed.
	GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// FindOtherUserCart returns a cart owned by userID other than excludeID, or nil.
	FindOtherUserCart(ctx context.Context, userID, excludeID uuid.UUID) (*model.Cart, error)

	// GetByID retrieves a cart with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error)

	// AddItem inserts a line or increments an existing one, refreshing its unit price.
	AddItem(ctx context.Context, cartID uuid.UUID, productID string, qty int, unitPrice decimal.Decimal) error

	// SetItemQuantity overwrites the quantity of an existing line. Returns false if no such line.
	SetItemQuantity(ctx context.Context, cartID uuid.UUID, productID string, qty int) (bool, error)

	// RemoveItem deletes a line. Returns false if no such line.
	RemoveItem(ctx context.Context, cartID uuid.UUID, productID string) (bool, error)

	// ClearItems deletes every line of a cart within the provided transaction, or
	// directly when tx is nil. The cart row is kept.
	ClearItems(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error

	// Merge moves the lines of fromID into toID, deletes fromID and assigns toID to userID.
	Merge(ctx context.Context, fromID, toID, userID uuid.UUID) error

	// AssignUser binds a cart to a user.
	AssignUser(ctx context.Context, cartID, userID uuid.UUID) error
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// GetActiveByCode retrieves an active coupon by exact code within the provided transaction.
	GetActiveByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error)

	// Redeem increments usage_count unless the usage limit is reached. Returns false when it is.
	Redeem(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	// UpsertCoupons inserts or updates coupon definitions by code, preserving usage counters.
	UpsertCoupons(ctx context.Context, coupons []model.Coupon) (int, error)
}

// AddressRepository defines the interface for address data access operations.
type AddressRepository interface {
	// GetForUser retrieves an address only if it belongs to userID.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Address, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// AddEvent appends an audit trail entry within the provided transaction.
	AddEvent(ctx context.Context, tx pgx.Tx, event *model.OrderEvent) error

	// GetByID retrieves an order without its children.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// LockByID retrieves and row-locks an order within the provided transaction.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateStatus moves an order to status if its current status is one of from.
	// An empty from matches any status. Returns false when nothing changed.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, from ...model.OrderStatus) (bool, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)

	// GetDetail retrieves an order with its items, payments and events.
	GetDetail(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error)
}

// PaymentRepository defines the interface for payment data access operations.
type PaymentRepository interface {
	// Upsert records a payment attempt, overwriting amount, status and payload when
	// (order, provider, transaction id) already exists.
	Upsert(ctx context.Context, tx pgx.Tx, payment *model.Payment) error
}

// AnalyticsRepository runs read-only reporting queries over orders, payments and users.
type AnalyticsRepository interface {
	// SalesTotals returns the sum and count of orders created in [from, to).
	SalesTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error)

	// DailySales returns per-day totals for orders created since from. Days without orders are absent.
	DailySales(ctx context.Context, from time.Time) ([]model.DailySales, error)

	// CategorySales returns revenue per category, highest first.
	CategorySales(ctx context.Context, from time.Time, limit int) ([]model.CategorySales, error)

	// TopProducts returns best sellers by quantity.
	TopProducts(ctx context.Context, from time.Time, limit int) ([]model.ProductSales, error)

	// PaymentMethods returns payment volume per provider.
	PaymentMethods(ctx context.Context, from time.Time) ([]model.PaymentMethodStats, error)

	// CustomerMetrics returns customer counts for orders and sign-ups since from.
	CustomerMetrics(ctx context.Context, from time.Time) (*model.CustomerMetrics, error)

	// RecentOrders returns the latest orders across all customers.
	RecentOrders(ctx context.Context, limit int) ([]model.RecentOrder, error)
}
