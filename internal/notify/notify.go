// Package notify delivers fire-and-forget domain events (order placed, order
// paid, low stock) to downstream consumers such as the e-mail worker.
package notify

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EventType names a notification.
type EventType string

const (
	EventOrderCreated   EventType = "order_created"
	EventOrderPaid      EventType = "order_paid"
	EventLowStock       EventType = "low_stock"
	EventLowStockDigest EventType = "low_stock_digest"
)

// StockLevel is a product's remaining stock.
type StockLevel struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Stock     int    `json:"stock"`
}

// Event is the JSON document published for every notification.
type Event struct {
	Type          EventType        `json:"type"`
	OrderID       string           `json:"order_id,omitempty"`
	UserID        string           `json:"user_id,omitempty"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	Provider      string           `json:"provider,omitempty"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Products      []StockLevel     `json:"products,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// Key partitions events: order events by order, stock events by product.
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	if len(e.Products) == 1 {
		return e.Products[0].ProductID
	}
	return string(e.Type)
}

// OrderCreated builds the order confirmation event.
func OrderCreated(order *model.Order) Event {
	total := order.Total
	return Event{
		Type:       EventOrderCreated,
		OrderID:    order.ID.String(),
		UserID:     order.UserID.String(),
		Total:      &total,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderPaid builds the payment receipt event.
func OrderPaid(order *model.Order, payment *model.Payment) Event {
	amount := payment.Amount
	return Event{
		Type:          EventOrderPaid,
		OrderID:       order.ID.String(),
		UserID:        order.UserID.String(),
		Total:         &amount,
		Provider:      string(payment.Provider),
		TransactionID: payment.TransactionID,
		OccurredAt:    time.Now().UTC(),
	}
}

// LowStock builds the alert for a single product crossing the threshold.
func LowStock(productID, title string, stock int) Event {
	return Event{
		Type:       EventLowStock,
		Products:   []StockLevel{{ProductID: productID, Title: title, Stock: stock}},
		OccurredAt: time.Now().UTC(),
	}
}

// LowStockDigest builds the periodic summary of products at or below the threshold.
func LowStockDigest(alerts []model.InventoryAlert) Event {
	products := make([]StockLevel, len(alerts))
	for i, a := range alerts {
		products[i] = StockLevel{ProductID: a.ProductID, Title: a.Title, Stock: a.Stock}
	}
	return Event{
		Type:       EventLowStockDigest,
		Products:   products,
		OccurredAt: time.Now().UTC(),
	}
}

// Notifier accepts events without blocking the caller. Delivery failures are
// logged by the implementation and never returned.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// LogNotifier writes events to the log. Used when no broker is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// Notify logs the event.
func (n *LogNotifier) Notify(_ context.Context, event Event) {
	n.logger.Info().
		Str("type", string(event.Type)).
		Str("key", event.Key()).
		Str("order_id", event.OrderID).
		Int("products", len(event.Products)).
		Msg("notification")
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
