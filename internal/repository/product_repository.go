package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productColumns selects a product with its category and review aggregates.
const productColumns = `
	SELECT p.id, p.category_id, c.name, c.slug, p.title, p.slug, p.description,
	       p.price, p.old_price, p.stock, p.discount_percentage, p.sku,
	       p.is_trending, p.is_published, p.created_at, p.updated_at,
	       COALESCE((SELECT ROUND(AVG(r.rating), 1) FROM reviews r WHERE r.product_id = p.id), 0),
	       (SELECT COUNT(*) FROM reviews r WHERE r.product_id = p.id)
	FROM products p
	JOIN categories c ON c.id = p.category_id
`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.CategoryName, &p.CategorySlug, &p.Title, &p.Slug, &p.Description,
		&p.Price, &p.OldPrice, &p.Stock, &p.DiscountPercentage, &p.SKU,
		&p.IsTrending, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt,
		&p.Rating, &p.ReviewCount,
	)
	return p, err
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.attachTags(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

// List retrieves published products, newest first, with pagination support.
func (r *productRepository) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := productColumns + `
		WHERE p.is_published
		ORDER BY p.created_at DESC, p.id
		LIMIT $1 OFFSET $2
	`

	products, err := r.queryProducts(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list products")
		return nil, err
	}
	return products, nil
}

// GetByID retrieves a single product by its ID, published or not.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return r.getOne(ctx, productColumns+` WHERE p.id = $1`, id)
}

// GetBySlug retrieves a published product with its tags and rating.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return r.getOne(ctx, productColumns+` WHERE p.slug = $1 AND p.is_published`, slug)
}

func (r *productRepository) getOne(ctx context.Context, query, key string) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product", key).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product", key).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	products := []model.Product{p}
	if err := r.attachTags(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	return r.queryProducts(ctx, productColumns+` WHERE p.id = ANY($1)`, ids)
}

// attachTags loads the tags of every product in one query.
func (r *productRepository) attachTags(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = i
	}

	query := `
		SELECT pt.product_id, t.id, t.name, t.slug
		FROM product_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.product_id = ANY($1)
		ORDER BY t.name
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query product tags")
		return fmt.Errorf("failed to query product tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var tag model.Tag
		if err := rows.Scan(&productID, &tag.ID, &tag.Name, &tag.Slug); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan tag row")
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		i := index[productID]
		products[i].Tags = append(products[i].Tags, tag)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating tag rows")
		return fmt.Errorf("error iterating tags: %w", err)
	}
	return nil
}

// ListReviews retrieves the reviews of a product, newest first.
func (r *productRepository) ListReviews(ctx context.Context, productID string, limit, offset int) ([]model.Review, error) {
	query := `
		SELECT id, product_id, user_id::text, rating, headline, body, is_verified_purchase, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, productID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Headline, &rv.Body,
			&rv.IsVerifiedPurchase, &rv.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan review row")
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating review rows")
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// DecrementStock atomically takes qty units of stock within the provided transaction.
// A nil result means the product does not exist.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, productID string, qty int) (*StockChange, error) {
	change := &StockChange{ProductID: productID}

	err := tx.QueryRow(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING stock, title
	`, productID, qty).Scan(&change.Stock, &change.Title)
	if err == nil {
		change.Applied = true
		return change, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Str("product_id", productID).Int("quantity", qty).Msg("failed to decrement stock")
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	err = tx.QueryRow(ctx, `SELECT stock, title FROM products WHERE id = $1`, productID).
		Scan(&change.Stock, &change.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", productID).Msg("failed to read stock")
		return nil, fmt.Errorf("failed to read stock: %w", err)
	}

	r.logger.Debug().
		Str("product_id", productID).
		Int("requested", qty).
		Int("available", change.Stock).
		Msg("insufficient stock")

	return change, nil
}

// AddInventoryLogs appends stock movement records within the provided transaction.
func (r *productRepository) AddInventoryLogs(ctx context.Context, tx pgx.Tx, logs []model.InventoryLog) error {
	if len(logs) == 0 {
		return nil
	}

	query := `
		INSERT INTO inventory_logs (product_id, change, reason)
		VALUES ($1, $2, $3)
	`

	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(query, l.ProductID, l.Change, l.Reason)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(logs); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("product_id", logs[i].ProductID).
				Msg("failed to write inventory log")
			return fmt.Errorf("failed to write inventory log: %w", err)
		}
	}

	return nil
}

// LowStock retrieves published products at or below threshold, lowest stock first.
func (r *productRepository) LowStock(ctx context.Context, threshold, limit int) ([]model.InventoryAlert, error) {
	query := `
		SELECT p.id, p.title, p.slug, p.stock, c.name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.stock <= $1 AND p.is_published
		ORDER BY p.stock, p.title
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, threshold, limit)
	if err != nil {
		r.logger.Error().Err(err).Int("threshold", threshold).Msg("failed to query low stock")
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	defer rows.Close()

	alerts := make([]model.InventoryAlert, 0)
	for rows.Next() {
		var a model.InventoryAlert
		if err := rows.Scan(&a.ProductID, &a.Title, &a.Slug, &a.Stock, &a.Category); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan low stock row")
			return nil, fmt.Errorf("failed to scan low stock row: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating low stock rows")
		return nil, fmt.Errorf("error iterating low stock rows: %w", err)
	}

	return alerts, nil
}
