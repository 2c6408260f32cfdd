package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Order represents a placed customer order. Monetary fields are fixed at
// placement time: Total = Subtotal - Discount + DeliveryFee.
type Order struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	UserID            uuid.UUID       `json:"userId" db:"user_id"`
	ShippingAddressID uuid.UUID       `json:"shippingAddressId" db:"shipping_address_id"`
	CouponID          *uuid.UUID      `json:"couponId,omitempty" db:"coupon_id"`
	Status            OrderStatus     `json:"status" db:"status"`
	Subtotal          decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount          decimal.Decimal `json:"discount" db:"discount"`
	DeliveryFee       decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	Total             decimal.Decimal `json:"total" db:"total"`
	TrackingNumber    string          `json:"trackingNumber,omitempty" db:"tracking_number"`
	Notes             string          `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order. Title and price are copies
// taken at placement and never follow later catalogue edits.
type OrderItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"-" db:"order_id"`
	ProductID    string          `json:"productId" db:"product_id"`
	ProductTitle string          `json:"productTitle" db:"product_title"`
	Quantity     int             `json:"quantity" db:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Position     int             `json:"-" db:"position"`
}

// LineTotal is UnitPrice × Quantity.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// InventoryLog is an append-only stock movement record. A zero Change marks
// a low-stock alert.
type InventoryLog struct {
	ID        int64     `json:"id" db:"id"`
	ProductID string    `json:"productId" db:"product_id"`
	Change    int       `json:"change" db:"change"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// OrderEvent is an audit trail entry for an order.
type OrderEvent struct {
	ID        int64       `json:"id" db:"id"`
	OrderID   uuid.UUID   `json:"-" db:"order_id"`
	Status    OrderStatus `json:"status" db:"status"`
	Message   string      `json:"message" db:"message"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// CheckoutRequest represents the request payload for placing an order from the cart.
type CheckoutRequest struct {
	AddressID     uuid.UUID       `json:"address_id"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	PaymentMethod string          `json:"payment_method,omitempty"`
}

// PaymentRequest selects the provider for a new payment on an existing order.
type PaymentRequest struct {
	PaymentMethod string `json:"payment_method,omitempty"`
}

// CheckoutResponse is the placed order summary plus the provider payload the
// client needs to complete payment.
type CheckoutResponse struct {
	OrderID     uuid.UUID           `json:"order_id"`
	Status      OrderStatus         `json:"status"`
	Subtotal    decimal.Decimal     `json:"subtotal"`
	Discount    decimal.Decimal     `json:"discount"`
	DeliveryFee decimal.Decimal     `json:"delivery_fee"`
	Total       decimal.Decimal     `json:"total"`
	Payment     *PaymentInstruction `json:"payment,omitempty"`
}

// OrderDetail is an order with its lines, payments and audit trail.
type OrderDetail struct {
	Order
	Items    []OrderItem  `json:"items"`
	Payments []Payment    `json:"payments"`
	Events   []OrderEvent `json:"events"`
}
