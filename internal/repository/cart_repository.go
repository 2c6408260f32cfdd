package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const cartColumns = `SELECT id, user_id, session_key, created_at, updated_at FROM carts`

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

func scanCart(row pgx.Row) (*model.Cart, error) {
	var c model.Cart
	if err := row.Scan(&c.ID, &c.UserID, &c.SessionKey, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateBySessionKey returns the cart bound to key, creating it if needed.
func (r *cartRepository) GetOrCreateBySessionKey(ctx context.Context, key string) (*model.Cart, error) {
	query := `
		INSERT INTO carts (id, session_key)
		VALUES ($1, $2)
		ON CONFLICT (session_key) DO UPDATE SET session_key = EXCLUDED.session_key
		RETURNING id, user_id, session_key, created_at, updated_at
	`

	cart, err := scanCart(r.pool.QueryRow(ctx, query, uuid.New(), key))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to get or create session cart")
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// GetOrCreateByUser returns the most recently updated cart of a user, creating one if needed.
func (r *cartRepository) GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := r.findOne(ctx, cartColumns+` WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`, userID)
	if err != nil {
		return nil, err
	}

	if cart == nil {
		cart, err = scanCart(r.pool.QueryRow(ctx, `
			INSERT INTO carts (id, user_id)
			VALUES ($1, $2)
			RETURNING id, user_id, session_key, created_at, updated_at
		`, uuid.New(), userID))
		if err != nil {
			r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create user cart")
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		r.logger.Debug().Str("cart_id", cart.ID.String()).Msg("user cart created")
	}

	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// FindOtherUserCart returns a cart owned by userID other than excludeID, or nil.
func (r *cartRepository) FindOtherUserCart(ctx context.Context, userID, excludeID uuid.UUID) (*model.Cart, error) {
	return r.findOne(ctx,
		cartColumns+` WHERE user_id = $1 AND id <> $2 ORDER BY updated_at DESC LIMIT 1`,
		userID, excludeID)
}

// GetByID retrieves a cart with its items.
func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	cart, err := r.findOne(ctx, cartColumns+` WHERE id = $1`, id)
	if err != nil || cart == nil {
		return cart, err
	}

	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) findOne(ctx context.Context, query string, args ...any) (*model.Cart, error) {
	cart, err := scanCart(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	return cart, nil
}

// loadItems fills cart.Items in the order lines were first added.
func (r *cartRepository) loadItems(ctx context.Context, cart *model.Cart) error {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, p.title, ci.quantity, ci.unit_price, ci.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.product_id
	`

	rows, err := r.pool.Query(ctx, query, cart.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to query cart items")
		return fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = make([]model.CartItem, 0)
	for rows.Next() {
		var item model.CartItem
		err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductTitle,
			&item.Quantity, &item.UnitPrice, &item.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart item rows")
		return fmt.Errorf("error iterating cart items: %w", err)
	}
	return nil
}

// AddItem inserts a line or increments an existing one, refreshing its unit price.
func (r *cartRepository) AddItem(ctx context.Context, cartID uuid.UUID, productID string, qty int, unitPrice decimal.Decimal) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
		    unit_price = EXCLUDED.unit_price
	`, uuid.New(), cartID, productID, qty, unitPrice)
	batch.Queue(`UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("cart_id", cartID.String()).
				Str("product_id", productID).
				Msg("failed to add cart item")
			return fmt.Errorf("failed to add cart item: %w", err)
		}
	}

	r.logger.Debug().
		Str("cart_id", cartID.String()).
		Str("product_id", productID).
		Int("quantity", qty).
		Msg("cart item added")

	return nil
}

// SetItemQuantity overwrites the quantity of an existing line.
func (r *cartRepository) SetItemQuantity(ctx context.Context, cartID uuid.UUID, productID string, qty int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID, qty)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to update cart item")
		return false, fmt.Errorf("failed to update cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveItem deletes a line.
func (r *cartRepository) RemoveItem(ctx context.Context, cartID uuid.UUID, productID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to remove cart item")
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClearItems deletes every line of a cart within the provided transaction.
func (r *cartRepository) ClearItems(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	var exec execer = r.pool
	if tx != nil {
		exec = tx
	}
	if _, err := exec.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Merge moves the lines of fromID into toID with add-item semantics, deletes
// fromID and assigns toID to userID, all in one transaction.
func (r *cartRepository) Merge(ctx context.Context, fromID, toID, userID uuid.UUID) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Error().Err(rbErr).Msg("failed to rollback cart merge")
			}
		}
	}()

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, created_at)
		SELECT gen_random_uuid(), $2, ci.product_id, ci.quantity,
		       p.price * (100 - p.discount_percentage) / 100, ci.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
		    unit_price = EXCLUDED.unit_price
	`, fromID, toID)
	batch.Queue(`DELETE FROM carts WHERE id = $1`, fromID)
	batch.Queue(`UPDATE carts SET user_id = $2, updated_at = NOW() WHERE id = $1`, toID, userID)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = results.Exec(); err != nil {
			results.Close()
			r.logger.Error().
				Err(err).
				Str("from_cart", fromID.String()).
				Str("to_cart", toID.String()).
				Msg("failed to merge carts")
			return fmt.Errorf("failed to merge carts: %w", err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("failed to merge carts: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit cart merge")
		return fmt.Errorf("failed to commit cart merge: %w", err)
	}

	r.logger.Info().
		Str("from_cart", fromID.String()).
		Str("to_cart", toID.String()).
		Str("user_id", userID.String()).
		Msg("carts merged")

	return nil
}

// AssignUser binds a cart to a user.
func (r *cartRepository) AssignUser(ctx context.Context, cartID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE carts SET user_id = $2, updated_at = NOW() WHERE id = $1`,
		cartID, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to assign cart")
		return fmt.Errorf("failed to assign cart: %w", err)
	}
	return nil
}
