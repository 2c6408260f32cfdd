package handler

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) ListReviews(ctx context.Context, slug string, limit, offset int) ([]model.Review, error) {
	args := m.Called(ctx, slug, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetCart(ctx context.Context, sessionKey string, userID *uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, sessionKey, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, cartID uuid.UUID, productID string, qty int) (*model.Cart, error) {
	args := m.Called(ctx, cartID, productID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) UpdateItem(ctx context.Context, cartID uuid.UUID, productID string, qty int) (*model.Cart, error) {
	args := m.Called(ctx, cartID, productID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, cartID uuid.UUID, productID string) (*model.Cart, error) {
	args := m.Called(ctx, cartID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, userID uuid.UUID, cart *model.Cart, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, userID, cart, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockCheckoutService) CreateOrderFromCart(ctx context.Context, userID, addressID uuid.UUID, cart *model.Cart, couponCode string, deliveryFee decimal.Decimal) (*model.Order, error) {
	args := m.Called(ctx, userID, addressID, cart, couponCode, deliveryFee)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockCheckoutService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockCheckoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.OrderDetail, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetail), args.Error(1)
}

func (m *MockCheckoutService) PayOrder(ctx context.Context, userID, orderID uuid.UUID, req *model.PaymentRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, userID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

// MockWebhookService is a mock implementation of WebhookService.
type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) SignatureHeader(provider string) (string, bool) {
	args := m.Called(provider)
	return args.String(0), args.Bool(1)
}

func (m *MockWebhookService) Handle(ctx context.Context, provider string, body []byte, signature string) error {
	args := m.Called(ctx, provider, body, signature)
	return args.Error(0)
}

// MockSearchService is a mock implementation of SearchService.
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, filter model.SearchFilter) (*model.SearchResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchResult), args.Error(1)
}

func (m *MockSearchService) Suggestions(ctx context.Context, query string, limit int) ([]model.Suggestion, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Suggestion), args.Error(1)
}

func (m *MockSearchService) PopularSearches(limit int) []model.PopularSearch {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.PopularSearch)
}

// MockAnalyticsService is a mock implementation of AnalyticsService.
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) SalesOverview(ctx context.Context, days int) (*model.SalesOverview, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesOverview), args.Error(1)
}

func (m *MockAnalyticsService) DailySales(ctx context.Context, days int) ([]model.DailySales, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DailySales), args.Error(1)
}

func (m *MockAnalyticsService) CategorySales(ctx context.Context, days int) ([]model.CategorySales, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CategorySales), args.Error(1)
}

func (m *MockAnalyticsService) TopProducts(ctx context.Context, days, limit int) ([]model.ProductSales, error) {
	args := m.Called(ctx, days, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductSales), args.Error(1)
}

func (m *MockAnalyticsService) PaymentMethods(ctx context.Context, days int) ([]model.PaymentMethodStats, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentMethodStats), args.Error(1)
}

func (m *MockAnalyticsService) CustomerMetrics(ctx context.Context, days int) (*model.CustomerMetrics, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CustomerMetrics), args.Error(1)
}

func (m *MockAnalyticsService) InventoryAlerts(ctx context.Context, threshold int) ([]model.InventoryAlert, error) {
	args := m.Called(ctx, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InventoryAlert), args.Error(1)
}

func (m *MockAnalyticsService) RecentOrders(ctx context.Context, limit int) ([]model.RecentOrder, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RecentOrder), args.Error(1)
}

func (m *MockAnalyticsService) Dashboard(ctx context.Context, days int) (*model.Dashboard, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dashboard), args.Error(1)
}
