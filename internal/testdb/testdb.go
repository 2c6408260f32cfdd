// Package testdb starts a disposable PostgreSQL container with the
// application schema applied, for repository and service tests.
package testdb

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// New starts PostgreSQL, runs the embedded migrations and returns a pool.
// The container is terminated when the test finishes.
func New(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := zerolog.Nop()

	migrator, err := database.NewMigrator(connStr, logger)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := database.NewPoolFromURL(ctx, connStr, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

// SeedUser inserts a user and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, email, full_name) VALUES ($1, $2, $3)`,
		id, email, "Test Customer")
	require.NoError(t, err)
	return id
}

// SeedAddress inserts a shipping address for userID.
func SeedAddress(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO addresses (id, user_id, full_name, line1, city, postal_code)
		VALUES ($1, $2, 'Test Customer', '1 Market Street', 'Pune', '411001')`,
		id, userID)
	require.NoError(t, err)
	return id
}

// SeedCategory inserts a category and returns its id.
func SeedCategory(t *testing.T, pool *pgxpool.Pool, name, slug string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`,
		name, slug).Scan(&id)
	require.NoError(t, err)
	return id
}

// Product describes a product fixture.
type Product struct {
	ID                 string
	CategoryID         int64
	Title              string
	Slug               string
	Description        string
	Price              string
	DiscountPercentage string
	Stock              int
	Published          bool
	Trending           bool
}

// SeedProduct inserts a product fixture.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, p Product) {
	t.Helper()
	discount := decimal.Zero
	if p.DiscountPercentage != "" {
		discount = decimal.RequireFromString(p.DiscountPercentage)
	}
	_, err := pool.Exec(context.Background(), `
		INSERT INTO products (id, category_id, title, slug, description, price, discount_percentage,
		                      stock, sku, is_published, is_trending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.CategoryID, p.Title, p.Slug, p.Description,
		decimal.RequireFromString(p.Price), discount, p.Stock, "SKU-"+p.ID, p.Published, p.Trending)
	require.NoError(t, err)
}

// SeedTag attaches a tag (created on demand) to a product.
func SeedTag(t *testing.T, pool *pgxpool.Pool, productID, name string) {
	t.Helper()
	ctx := context.Background()
	var tagID int64
	err := pool.QueryRow(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&tagID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2)`, productID, tagID)
	require.NoError(t, err)
}

// Coupon describes a coupon fixture.
type Coupon struct {
	Code          string
	DiscountType  string
	Value         string
	MaxDiscount   string
	MinimumAmount string
	UsageLimit    int
	UsageCount    int
	ExpiresAt     *time.Time
	Inactive      bool
}

// SeedCoupon inserts a coupon fixture and returns its id.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, c Coupon) uuid.UUID {
	t.Helper()
	id := uuid.New()
	maxDiscount := decimal.NullDecimal{}
	if c.MaxDiscount != "" {
		maxDiscount = decimal.NewNullDecimal(decimal.RequireFromString(c.MaxDiscount))
	}
	minimum := decimal.Zero
	if c.MinimumAmount != "" {
		minimum = decimal.RequireFromString(c.MinimumAmount)
	}
	_, err := pool.Exec(context.Background(), `
		INSERT INTO coupons (id, code, discount_type, value, max_discount, minimum_amount,
		                     usage_limit, usage_count, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, c.Code, c.DiscountType, decimal.RequireFromString(c.Value), maxDiscount, minimum,
		c.UsageLimit, c.UsageCount, c.ExpiresAt, !c.Inactive)
	require.NoError(t, err)
	return id
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, pool *pgxpool.Pool, productID string) int {
	t.Helper()
	var stock int
	err := pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	require.NoError(t, err)
	return stock
}

// Count runs a COUNT(*) style query and returns the result.
func Count(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}
