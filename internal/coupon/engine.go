package coupon

import (
	"regexp"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// MaxCodeLength is the longest coupon code accepted.
const MaxCodeLength = 20

var (
	codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	hundred     = decimal.NewFromInt(100)
)

// Engine evaluates coupon rules. It never mutates a coupon; redemption is a
// separate step owned by the caller.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates an engine with an injected clock.
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// IsValid reports whether c is active, unexpired and not used up.
func (e *Engine) IsValid(c *model.Coupon) bool {
	if c == nil || !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && e.now().After(*c.ExpiresAt) {
		return false
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return false
	}
	return true
}

// Apply returns the discount c grants on amount. The result is zero for an
// invalid coupon or an amount under the minimum, and is otherwise within
// [0, amount] and no greater than MaxDiscount when one is set. Percentages
// are not rounded.
func (e *Engine) Apply(c *model.Coupon, amount decimal.Decimal) decimal.Decimal {
	if !e.IsValid(c) || amount.LessThan(c.MinimumAmount) || !amount.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case model.DiscountFlat:
		discount = decimal.Min(c.Value, amount)
	case model.DiscountPercentage:
		discount = c.Value.Div(hundred).Mul(amount)
	default:
		return decimal.Zero
	}

	if c.MaxDiscount.Valid && c.MaxDiscount.Decimal.IsPositive() {
		discount = decimal.Min(discount, c.MaxDiscount.Decimal)
	}

	// A percentage over 100 must not produce a negative total.
	discount = decimal.Min(discount, amount)
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// NormalizeCode trims whitespace around a submitted code.
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// ValidateCode rejects codes that could never exist in the catalogue.
// An empty code means "no coupon" and is accepted.
func ValidateCode(code string) error {
	if code == "" {
		return nil
	}
	if len(code) > MaxCodeLength || !codePattern.MatchString(code) {
		return model.ErrInvalidCouponCode
	}
	return nil
}
