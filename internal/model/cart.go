package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a pre-order basket bound to a session and optionally a user.
type Cart struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"userId,omitempty" db:"user_id"`
	SessionKey *string    `json:"-" db:"session_key"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// Subtotal sums the line totals using each line's captured unit price.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartItem is one product line in a cart. UnitPrice is the product's current
// price at the moment the line was last added to.
type CartItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	CartID       uuid.UUID       `json:"-" db:"cart_id"`
	ProductID    string          `json:"productId" db:"product_id"`
	ProductTitle string          `json:"productTitle" db:"product_title"`
	Quantity     int             `json:"quantity" db:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice" db:"unit_price"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// LineTotal is UnitPrice × Quantity.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItemRequest is the payload for adding or updating a cart line.
type CartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartResponse is a cart plus its computed subtotal.
type CartResponse struct {
	Cart
	Subtotal decimal.Decimal `json:"subtotal"`
}
