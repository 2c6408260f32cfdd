package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// analyticsRepository implements the AnalyticsRepository interface using PostgreSQL.
// Every query is read-only.
type analyticsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAnalyticsRepository creates a new PostgreSQL-backed analytics repository.
func NewAnalyticsRepository(pool *pgxpool.Pool, logger zerolog.Logger) AnalyticsRepository {
	return &analyticsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "analytics").Logger(),
	}
}

// SalesTotals returns the sum and count of orders created in [from, to).
func (r *analyticsRepository) SalesTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&total, &count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query sales totals")
		return decimal.Zero, 0, fmt.Errorf("failed to query sales totals: %w", err)
	}
	return total, count, nil
}

// DailySales returns per-day (UTC) totals for orders created since from.
func (r *analyticsRepository) DailySales(ctx context.Context, from time.Time) ([]model.DailySales, error) {
	return collect(ctx, r, "daily sales", `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(total), COUNT(*)
		FROM orders
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`, []any{from}, func(rows pgx.Rows) (model.DailySales, error) {
		var d model.DailySales
		err := rows.Scan(&d.Day, &d.Sales, &d.Orders)
		return d, err
	})
}

// CategorySales returns revenue per category, highest first.
func (r *analyticsRepository) CategorySales(ctx context.Context, from time.Time, limit int) ([]model.CategorySales, error) {
	return collect(ctx, r, "category sales", `
		SELECT c.name, SUM(oi.quantity * oi.unit_price) AS revenue, SUM(oi.quantity)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE o.created_at >= $1
		GROUP BY c.name
		ORDER BY revenue DESC, c.name
		LIMIT $2
	`, []any{from, limit}, func(rows pgx.Rows) (model.CategorySales, error) {
		var s model.CategorySales
		err := rows.Scan(&s.Category, &s.Sales, &s.Quantity)
		return s, err
	})
}

// TopProducts returns best sellers by quantity.
func (r *analyticsRepository) TopProducts(ctx context.Context, from time.Time, limit int) ([]model.ProductSales, error) {
	return collect(ctx, r, "top products", `
		SELECT p.id, p.title, p.slug,
		       SUM(oi.quantity * oi.unit_price) AS revenue,
		       SUM(oi.quantity) AS quantity,
		       COUNT(DISTINCT oi.order_id)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.created_at >= $1
		GROUP BY p.id, p.title, p.slug
		ORDER BY quantity DESC, revenue DESC, p.id
		LIMIT $2
	`, []any{from, limit}, func(rows pgx.Rows) (model.ProductSales, error) {
		var s model.ProductSales
		err := rows.Scan(&s.ProductID, &s.Title, &s.Slug, &s.Revenue, &s.Quantity, &s.Orders)
		return s, err
	})
}

// PaymentMethods returns payment volume per provider.
func (r *analyticsRepository) PaymentMethods(ctx context.Context, from time.Time) ([]model.PaymentMethodStats, error) {
	return collect(ctx, r, "payment methods", `
		SELECT pay.provider, COUNT(*), SUM(pay.amount) AS total
		FROM payments pay
		JOIN orders o ON o.id = pay.order_id
		WHERE o.created_at >= $1
		GROUP BY pay.provider
		ORDER BY total DESC, pay.provider
	`, []any{from}, func(rows pgx.Rows) (model.PaymentMethodStats, error) {
		var s model.PaymentMethodStats
		err := rows.Scan(&s.Provider, &s.Count, &s.Total)
		return s, err
	})
}

// CustomerMetrics returns customer counts for orders and sign-ups since from.
func (r *analyticsRepository) CustomerMetrics(ctx context.Context, from time.Time) (*model.CustomerMetrics, error) {
	var m model.CustomerMetrics
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM users WHERE created_at >= $1),
		       COUNT(*) FILTER (WHERE per_user.n > 1),
		       COUNT(*),
		       COALESCE(ROUND(AVG(per_user.n), 2), 0)
		FROM (
			SELECT user_id, COUNT(*) AS n
			FROM orders
			WHERE created_at >= $1
			GROUP BY user_id
		) per_user
	`, from).Scan(&m.NewCustomers, &m.RepeatCustomers, &m.TotalCustomers, &m.AvgOrdersPerCustomer)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query customer metrics")
		return nil, fmt.Errorf("failed to query customer metrics: %w", err)
	}
	return &m, nil
}

// RecentOrders returns the latest orders across all customers.
func (r *analyticsRepository) RecentOrders(ctx context.Context, limit int) ([]model.RecentOrder, error) {
	return collect(ctx, r, "recent orders", `
		SELECT o.id, COALESCE(NULLIF(u.full_name, ''), u.email), u.email, o.total, o.status,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id),
		       o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id
		LIMIT $1
	`, []any{limit}, func(rows pgx.Rows) (model.RecentOrder, error) {
		var o model.RecentOrder
		err := rows.Scan(&o.ID, &o.Customer, &o.Email, &o.Total, &o.Status, &o.ItemCount, &o.CreatedAt)
		return o, err
	})
}

// collect runs a report query and scans every row with scan.
func collect[T any](ctx context.Context, r *analyticsRepository, report, query string, args []any, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("report", report).Msg("failed to run report")
		return nil, fmt.Errorf("failed to query %s: %w", report, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			r.logger.Error().Err(err).Str("report", report).Msg("failed to scan report row")
			return nil, fmt.Errorf("failed to scan %s: %w", report, err)
		}
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", report, err)
	}
	return out, nil
}
