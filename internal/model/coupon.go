package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFlat
}

// Coupon is a discount rule. UsageLimit 0 means unlimited.
type Coupon struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	Code          string              `json:"code" db:"code"`
	Description   string              `json:"description" db:"description"`
	DiscountType  DiscountType        `json:"discountType" db:"discount_type"`
	Value         decimal.Decimal     `json:"value" db:"value"`
	MaxDiscount   decimal.NullDecimal `json:"maxDiscount" db:"max_discount"`
	MinimumAmount decimal.Decimal     `json:"minimumAmount" db:"minimum_amount"`
	UsageLimit    int                 `json:"usageLimit" db:"usage_limit"`
	UsageCount    int                 `json:"usageCount" db:"usage_count"`
	ExpiresAt     *time.Time          `json:"expiresAt,omitempty" db:"expires_at"`
	IsActive      bool                `json:"isActive" db:"is_active"`
}
