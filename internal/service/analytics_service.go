package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultReportDays    = 30
	maxReportDays        = 365
	categorySalesLimit   = 10
	defaultTopProducts   = 10
	inventoryAlertsLimit = 20
	defaultRecentOrders  = 10
	dayLayout            = "2006-01-02"
)

var hundred = decimal.NewFromInt(100)

// analyticsService implements AnalyticsService.
type analyticsService struct {
	analyticsRepo     repository.AnalyticsRepository
	productRepo       repository.ProductRepository
	lowStockThreshold int
	now               func() time.Time
	logger            zerolog.Logger
}

// NewAnalyticsService creates a new analytics service. lowStockThreshold is
// the default for InventoryAlerts and the dashboard.
func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	productRepo repository.ProductRepository,
	lowStockThreshold int,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo:     analyticsRepo,
		productRepo:       productRepo,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
		logger:            logger.With().Str("service", "analytics").Logger(),
	}
}

func clampDays(days int) int {
	if days <= 0 {
		return defaultReportDays
	}
	if days > maxReportDays {
		return maxReportDays
	}
	return days
}

// window returns the start of the reporting window ending now.
func (s *analyticsService) window(days int) (from, now time.Time) {
	now = s.now().UTC()
	return now.AddDate(0, 0, -days), now
}

// growth is the percentage change from prev to cur, or zero without a baseline.
func growth(cur, prev decimal.Decimal) decimal.Decimal {
	if !prev.IsPositive() {
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev).Mul(hundred).Round(2)
}

// SalesOverview compares the last days with the days before them.
func (s *analyticsService) SalesOverview(ctx context.Context, days int) (*model.SalesOverview, error) {
	days = clampDays(days)
	from, now := s.window(days)
	prevFrom := from.AddDate(0, 0, -days)

	// The upper bound tolerates clock skew between the app and the database.
	total, count, err := s.analyticsRepo.SalesTotals(ctx, from, now.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to get sales overview: %w", err)
	}

	prevTotal, prevCount, err := s.analyticsRepo.SalesTotals(ctx, prevFrom, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales overview: %w", err)
	}

	avg := decimal.Zero
	if count > 0 {
		avg = total.Div(decimal.NewFromInt(int64(count))).Round(2)
	}

	return &model.SalesOverview{
		Days:          days,
		TotalSales:    total,
		OrderCount:    count,
		AvgOrderValue: avg,
		SalesGrowth:   growth(total, prevTotal),
		OrderGrowth:   growth(decimal.NewFromInt(int64(count)), decimal.NewFromInt(int64(prevCount))),
	}, nil
}

// DailySales returns one entry per UTC day of the window, including days without orders.
func (s *analyticsService) DailySales(ctx context.Context, days int) ([]model.DailySales, error) {
	days = clampDays(days)
	from, now := s.window(days)

	rows, err := s.analyticsRepo.DailySales(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily sales: %w", err)
	}

	byDay := make(map[string]model.DailySales, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	series := make([]model.DailySales, 0, days+1)
	for day := start; !day.After(now); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		if r, ok := byDay[key]; ok {
			series = append(series, r)
			continue
		}
		series = append(series, model.DailySales{Day: key, Sales: decimal.Zero})
	}

	return series, nil
}

// CategorySales returns the top categories by revenue.
func (s *analyticsService) CategorySales(ctx context.Context, days int) ([]model.CategorySales, error) {
	from, _ := s.window(clampDays(days))
	sales, err := s.analyticsRepo.CategorySales(ctx, from, categorySalesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get category sales: %w", err)
	}
	return sales, nil
}

// TopProducts returns best sellers by quantity.
func (s *analyticsService) TopProducts(ctx context.Context, days, limit int) ([]model.ProductSales, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultTopProducts
	}
	from, _ := s.window(clampDays(days))
	products, err := s.analyticsRepo.TopProducts(ctx, from, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	return products, nil
}

// PaymentMethods returns payment volume per provider.
func (s *analyticsService) PaymentMethods(ctx context.Context, days int) ([]model.PaymentMethodStats, error) {
	from, _ := s.window(clampDays(days))
	stats, err := s.analyticsRepo.PaymentMethods(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment methods: %w", err)
	}
	return stats, nil
}

// CustomerMetrics returns new, repeat and total customers for the window.
func (s *analyticsService) CustomerMetrics(ctx context.Context, days int) (*model.CustomerMetrics, error) {
	from, _ := s.window(clampDays(days))
	m, err := s.analyticsRepo.CustomerMetrics(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer metrics: %w", err)
	}
	return m, nil
}

// InventoryAlerts returns published products at or below threshold. A negative
// threshold selects the configured default.
func (s *analyticsService) InventoryAlerts(ctx context.Context, threshold int) ([]model.InventoryAlert, error) {
	if threshold < 0 {
		threshold = s.lowStockThreshold
	}
	alerts, err := s.productRepo.LowStock(ctx, threshold, inventoryAlertsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory alerts: %w", err)
	}
	return alerts, nil
}

// RecentOrders returns the latest orders.
func (s *analyticsService) RecentOrders(ctx context.Context, limit int) ([]model.RecentOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultRecentOrders
	}
	orders, err := s.analyticsRepo.RecentOrders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}
	return orders, nil
}

// Dashboard runs every report concurrently and fails if any of them fails.
func (s *analyticsService) Dashboard(ctx context.Context, days int) (*model.Dashboard, error) {
	days = clampDays(days)
	d := &model.Dashboard{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { d.Overview, err = s.SalesOverview(ctx, days); return })
	g.Go(func() (err error) { d.DailySales, err = s.DailySales(ctx, days); return })
	g.Go(func() (err error) { d.CategorySales, err = s.CategorySales(ctx, days); return })
	g.Go(func() (err error) { d.TopProducts, err = s.TopProducts(ctx, days, defaultTopProducts); return })
	g.Go(func() (err error) { d.PaymentMethods, err = s.PaymentMethods(ctx, days); return })
	g.Go(func() (err error) { d.Customers, err = s.CustomerMetrics(ctx, days); return })
	g.Go(func() (err error) { d.InventoryAlerts, err = s.InventoryAlerts(ctx, -1); return })
	g.Go(func() (err error) { d.RecentOrders, err = s.RecentOrders(ctx, defaultRecentOrders); return })

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("failed to build dashboard")
		return nil, err
	}

	return d, nil
}
