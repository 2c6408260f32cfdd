package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	SELECT id, user_id, shipping_address_id, coupon_id, status, subtotal, discount, delivery_fee,
	       total, tracking_number, notes, created_at, updated_at
	FROM orders
`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.ShippingAddressID, &o.CouponID, &o.Status, &o.Subtotal, &o.Discount,
		&o.DeliveryFee, &o.Total, &o.TrackingNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
// CreatedAt and UpdatedAt are filled from the database.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, shipping_address_id, coupon_id, status, subtotal, discount,
		                    delivery_fee, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.ID, order.UserID, order.ShippingAddressID, order.CouponID, string(order.Status),
		order.Subtotal, order.Discount, order.DeliveryFee, order.Total, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, product_title, quantity, unit_price, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.ProductTitle,
			item.Quantity, item.UnitPrice, item.Position)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// AddEvent appends an audit trail entry within the provided transaction.
func (r *orderRepository) AddEvent(ctx context.Context, tx pgx.Tx, event *model.OrderEvent) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO order_events (order_id, status, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, event.OrderID, string(event.Status), event.Message).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", event.OrderID.String()).Msg("failed to add order event")
		return fmt.Errorf("failed to add order event: %w", err)
	}
	return nil
}

// GetByID retrieves an order without its children.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOrder(ctx, r.pool, orderColumns+` WHERE id = $1`, id)
}

// LockByID retrieves and row-locks an order within the provided transaction.
func (r *orderRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.getOrder(ctx, tx, orderColumns+` WHERE id = $1 FOR UPDATE`, id)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *orderRepository) getOrder(ctx context.Context, q rowQuerier, query string, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return order, nil
}

// UpdateStatus moves an order to status if its current status is one of from.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, from ...model.OrderStatus) (bool, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND (cardinality($3::text[]) = 0 OR status = ANY($3::text[]))
	`, id, string(status), allowed)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListByUser retrieves a user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		orderColumns+` WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// GetDetail retrieves an order with its items, payments and events.
func (r *orderRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil || order == nil {
		return nil, err
	}

	detail := &model.OrderDetail{Order: *order}

	if detail.Items, err = r.items(ctx, id); err != nil {
		return nil, err
	}
	if detail.Payments, err = r.payments(ctx, id); err != nil {
		return nil, err
	}
	if detail.Events, err = r.events(ctx, id); err != nil {
		return nil, err
	}

	return detail, nil
}

func (r *orderRepository) items(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	itemsQuery := `
		SELECT id, order_id, product_id, product_title, quantity, unit_price, position
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, itemsQuery, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make([]model.OrderItem, 0)
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductTitle,
			&item.Quantity, &item.UnitPrice, &item.Position)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) payments(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, provider, amount, currency, status, transaction_id, payload, created_at, updated_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query payments")
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		err := rows.Scan(&p.ID, &p.OrderID, &p.Provider, &p.Amount, &p.Currency, &p.Status,
			&p.TransactionID, &p.Payload, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan payment row")
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

func (r *orderRepository) events(ctx context.Context, orderID uuid.UUID) ([]model.OrderEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, status, message, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order events")
		return nil, fmt.Errorf("failed to query order events: %w", err)
	}
	defer rows.Close()

	events := make([]model.OrderEvent, 0)
	for rows.Next() {
		var e model.OrderEvent
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Message, &e.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order event row")
			return nil, fmt.Errorf("failed to scan order event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order events: %w", err)
	}

	return events, nil
}
