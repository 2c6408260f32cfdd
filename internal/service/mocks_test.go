package service

import (
	"context"
	"sync"
	"time"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) ListReviews(ctx context.Context, productID string, limit, offset int) ([]model.Review, error) {
	args := m.Called(ctx, productID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, productID string, qty int) (*repository.StockChange, error) {
	args := m.Called(ctx, tx, productID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.StockChange), args.Error(1)
}

func (m *MockProductRepository) AddInventoryLogs(ctx context.Context, tx pgx.Tx, logs []model.InventoryLog) error {
	args := m.Called(ctx, tx, logs)
	return args.Error(0)
}

func (m *MockProductRepository) LowStock(ctx context.Context, threshold, limit int) ([]model.InventoryAlert, error) {
	args := m.Called(ctx, threshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InventoryAlert), args.Error(1)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) cart(args mock.Arguments) (*model.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) GetOrCreateBySessionKey(ctx context.Context, key string) (*model.Cart, error) {
	return m.cart(m.Called(ctx, key))
}

func (m *MockCartRepository) GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

func (m *MockCartRepository) FindOtherUserCart(ctx context.Context, userID, excludeID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID, excludeID))
}

func (m *MockCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, id))
}

func (m *MockCartRepository) AddItem(ctx context.Context, cartID uuid.UUID, productID string, qty int, unitPrice decimal.Decimal) error {
	return m.Called(ctx, cartID, productID, qty, unitPrice).Error(0)
}

func (m *MockCartRepository) SetItemQuantity(ctx context.Context, cartID uuid.UUID, productID string, qty int) (bool, error) {
	args := m.Called(ctx, cartID, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, cartID uuid.UUID, productID string) (bool, error) {
	args := m.Called(ctx, cartID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) ClearItems(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	return m.Called(ctx, tx, cartID).Error(0)
}

func (m *MockCartRepository) Merge(ctx context.Context, fromID, toID, userID uuid.UUID) error {
	return m.Called(ctx, fromID, toID, userID).Error(0)
}

func (m *MockCartRepository) AssignUser(ctx context.Context, cartID, userID uuid.UUID) error {
	return m.Called(ctx, cartID, userID).Error(0)
}

// MockCouponRepository is a mock implementation of CouponRepository.
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetActiveByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	args := m.Called(ctx, tx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Redeem(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCouponRepository) UpsertCoupons(ctx context.Context, coupons []model.Coupon) (int, error) {
	args := m.Called(ctx, coupons)
	return args.Int(0), args.Error(1)
}

// MockAddressRepository is a mock implementation of AddressRepository.
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Address, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	return m.Called(ctx, tx, items).Error(0)
}

func (m *MockOrderRepository) AddEvent(ctx context.Context, tx pgx.Tx, event *model.OrderEvent) error {
	return m.Called(ctx, tx, event).Error(0)
}

func (m *MockOrderRepository) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, tx, id))
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, from ...model.OrderStatus) (bool, error) {
	args := m.Called(ctx, tx, id, status, from)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetail), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Upsert(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	return m.Called(ctx, tx, p).Error(0)
}

// MockSearchRepository is a mock implementation of SearchRepository.
type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) Search(ctx context.Context, filter model.SearchFilter) ([]string, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSearchRepository) Suggestions(ctx context.Context, query, matchType string, exclude []string, limit int) ([]model.Suggestion, error) {
	args := m.Called(ctx, query, matchType, exclude, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Suggestion), args.Error(1)
}

// MockAnalyticsRepository is a mock implementation of AnalyticsRepository.
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) SalesTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Int(1), args.Error(2)
}

func (m *MockAnalyticsRepository) DailySales(ctx context.Context, from time.Time) ([]model.DailySales, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DailySales), args.Error(1)
}

func (m *MockAnalyticsRepository) CategorySales(ctx context.Context, from time.Time, limit int) ([]model.CategorySales, error) {
	args := m.Called(ctx, from, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CategorySales), args.Error(1)
}

func (m *MockAnalyticsRepository) TopProducts(ctx context.Context, from time.Time, limit int) ([]model.ProductSales, error) {
	args := m.Called(ctx, from, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductSales), args.Error(1)
}

func (m *MockAnalyticsRepository) PaymentMethods(ctx context.Context, from time.Time) ([]model.PaymentMethodStats, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentMethodStats), args.Error(1)
}

func (m *MockAnalyticsRepository) CustomerMetrics(ctx context.Context, from time.Time) (*model.CustomerMetrics, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CustomerMetrics), args.Error(1)
}

func (m *MockAnalyticsRepository) RecentOrders(ctx context.Context, limit int) ([]model.RecentOrder, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RecentOrder), args.Error(1)
}

// MockPaymentService is a mock implementation of PaymentService.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CheckProvider(provider model.Provider) error {
	args := m.Called(provider)
	return args.Error(0)
}

func (m *MockPaymentService) InitiatePayment(ctx context.Context, order *model.Order, provider model.Provider) (*model.PaymentInstruction, error) {
	args := m.Called(ctx, order, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentInstruction), args.Error(1)
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, rec PaymentRecord) (*model.Payment, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

// recordingNotifier keeps every event it is given.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []notify.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]notify.EventType, len(n.events))
	for i, e := range n.events {
		types[i] = e.Type
	}
	return types
}

// fakeGateway is a scripted payment.Gateway.
type fakeGateway struct {
	provider  model.Provider
	intent    *payment.Intent
	err       error
	event     *payment.WebhookEvent
	verifyErr error
}

func (g *fakeGateway) Provider() model.Provider { return g.provider }

func (g *fakeGateway) SignatureHeader() string { return "X-Test-Signature" }

func (g *fakeGateway) Initiate(ctx context.Context, _ *model.Order) (*payment.Intent, error) {
	if _, ok := ctx.Deadline(); !ok {
		panic("provider call without deadline")
	}
	return g.intent, g.err
}

func (g *fakeGateway) VerifyWebhook([]byte, string) (*payment.WebhookEvent, error) {
	return g.event, g.verifyErr
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
