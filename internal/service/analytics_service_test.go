package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newAnalyticsServiceWithMocks() (*analyticsService, *MockAnalyticsRepository, *MockProductRepository) {
	repo := new(MockAnalyticsRepository)
	products := new(MockProductRepository)
	s := NewAnalyticsService(repo, products, 5, zerolog.Nop()).(*analyticsService)
	s.now = func() time.Time { return fixedNow }
	return s, repo, products
}

func at(want time.Time) interface{} {
	return mock.MatchedBy(func(got time.Time) bool { return got.Equal(want) })
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 30, clampDays(0))
	assert.Equal(t, 30, clampDays(-4))
	assert.Equal(t, 7, clampDays(7))
	assert.Equal(t, 365, clampDays(365))
	assert.Equal(t, 365, clampDays(1000))
}

func TestGrowth(t *testing.T) {
	assert.True(t, growth(decimal.NewFromInt(1000), decimal.NewFromInt(800)).Equal(decimal.NewFromInt(25)))
	assert.True(t, growth(decimal.NewFromInt(100), decimal.NewFromInt(300)).Equal(decimal.RequireFromString("-66.67")))
	assert.True(t, growth(decimal.NewFromInt(100), decimal.Zero).IsZero())
}

func TestAnalyticsService_SalesOverview(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newAnalyticsServiceWithMocks()
	from := fixedNow.AddDate(0, 0, -7)

	repo.On("SalesTotals", ctx, at(from), at(fixedNow.Add(24*time.Hour))).
		Return(decimal.RequireFromString("1000.00"), 3, nil)
	repo.On("SalesTotals", ctx, at(from.AddDate(0, 0, -7)), at(from)).
		Return(decimal.RequireFromString("800.00"), 2, nil)

	overview, err := s.SalesOverview(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, 7, overview.Days)
	assert.Equal(t, 3, overview.OrderCount)
	assert.True(t, overview.AvgOrderValue.Equal(decimal.RequireFromString("333.33")), "avg %s", overview.AvgOrderValue)
	assert.True(t, overview.SalesGrowth.Equal(decimal.NewFromInt(25)))
	assert.True(t, overview.OrderGrowth.Equal(decimal.NewFromInt(50)))
}

func TestAnalyticsService_SalesOverview_NoOrders(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newAnalyticsServiceWithMocks()
	repo.On("SalesTotals", ctx, mock.Anything, mock.Anything).Return(decimal.Zero, 0, nil)

	overview, err := s.SalesOverview(ctx, 0)

	require.NoError(t, err)
	assert.Equal(t, 30, overview.Days)
	assert.True(t, overview.AvgOrderValue.IsZero())
	assert.True(t, overview.SalesGrowth.IsZero())
	assert.True(t, overview.OrderGrowth.IsZero())
}

func TestAnalyticsService_DailySales_ZeroFilled(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newAnalyticsServiceWithMocks()
	repo.On("DailySales", ctx, at(fixedNow.AddDate(0, 0, -3))).Return([]model.DailySales{
		{Day: "2026-03-08", Sales: decimal.RequireFromString("189.98"), Orders: 1},
	}, nil)

	series, err := s.DailySales(ctx, 3)

	require.NoError(t, err)
	require.Len(t, series, 4)
	days := make([]string, len(series))
	for i, d := range series {
		days[i] = d.Day
	}
	assert.Equal(t, []string{"2026-03-07", "2026-03-08", "2026-03-09", "2026-03-10"}, days)
	assert.True(t, series[0].Sales.IsZero())
	assert.Equal(t, 1, series[1].Orders)
	assert.True(t, series[1].Sales.Equal(decimal.RequireFromString("189.98")))
}

func TestAnalyticsService_Limits(t *testing.T) {
	ctx := context.Background()

	t.Run("top products default limit", func(t *testing.T) {
		s, repo, _ := newAnalyticsServiceWithMocks()
		repo.On("TopProducts", ctx, mock.Anything, 10).Return([]model.ProductSales{}, nil)

		_, err := s.TopProducts(ctx, 30, 500)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("inventory alerts use configured threshold", func(t *testing.T) {
		s, _, products := newAnalyticsServiceWithMocks()
		products.On("LowStock", ctx, 5, 20).Return([]model.InventoryAlert{{ProductID: "P001", Stock: 2}}, nil)

		alerts, err := s.InventoryAlerts(ctx, -1)

		require.NoError(t, err)
		assert.Len(t, alerts, 1)
	})

	t.Run("inventory alerts with explicit threshold", func(t *testing.T) {
		s, _, products := newAnalyticsServiceWithMocks()
		products.On("LowStock", ctx, 0, 20).Return([]model.InventoryAlert{}, nil)

		_, err := s.InventoryAlerts(ctx, 0)

		require.NoError(t, err)
		products.AssertExpectations(t)
	})

	t.Run("recent orders default limit", func(t *testing.T) {
		s, repo, _ := newAnalyticsServiceWithMocks()
		repo.On("RecentOrders", ctx, 10).Return([]model.RecentOrder{}, nil)

		_, err := s.RecentOrders(ctx, 0)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func expectAllReports(repo *MockAnalyticsRepository, products *MockProductRepository, customersErr error) {
	repo.On("SalesTotals", mock.Anything, mock.Anything, mock.Anything).Return(decimal.NewFromInt(100), 1, nil).Maybe()
	repo.On("DailySales", mock.Anything, mock.Anything).Return([]model.DailySales{}, nil).Maybe()
	repo.On("CategorySales", mock.Anything, mock.Anything, 10).Return([]model.CategorySales{{Category: "Audio"}}, nil).Maybe()
	repo.On("TopProducts", mock.Anything, mock.Anything, 10).Return([]model.ProductSales{{ProductID: "P001"}}, nil).Maybe()
	repo.On("PaymentMethods", mock.Anything, mock.Anything).Return([]model.PaymentMethodStats{{Provider: "cod"}}, nil).Maybe()
	repo.On("RecentOrders", mock.Anything, 10).Return([]model.RecentOrder{}, nil).Maybe()
	products.On("LowStock", mock.Anything, 5, 20).Return([]model.InventoryAlert{}, nil).Maybe()
	if customersErr != nil {
		repo.On("CustomerMetrics", mock.Anything, mock.Anything).Return(nil, customersErr)
	} else {
		repo.On("CustomerMetrics", mock.Anything, mock.Anything).Return(&model.CustomerMetrics{TotalCustomers: 1}, nil)
	}
}

func TestAnalyticsService_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("all reports", func(t *testing.T) {
		s, repo, products := newAnalyticsServiceWithMocks()
		expectAllReports(repo, products, nil)

		d, err := s.Dashboard(ctx, 14)

		require.NoError(t, err)
		assert.Equal(t, 14, d.Overview.Days)
		assert.Len(t, d.DailySales, 15)
		assert.Equal(t, "Audio", d.CategorySales[0].Category)
		assert.Equal(t, "P001", d.TopProducts[0].ProductID)
		assert.Equal(t, "cod", d.PaymentMethods[0].Provider)
		assert.Equal(t, 1, d.Customers.TotalCustomers)
		assert.NotNil(t, d.InventoryAlerts)
		assert.NotNil(t, d.RecentOrders)
	})

	t.Run("one failing report fails the dashboard", func(t *testing.T) {
		s, repo, products := newAnalyticsServiceWithMocks()
		expectAllReports(repo, products, errors.New("statement timeout"))

		d, err := s.Dashboard(ctx, 14)

		assert.Nil(t, d)
		assert.ErrorContains(t, err, "statement timeout")
	})
}
