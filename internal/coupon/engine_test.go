package coupon

import (
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEngine_IsValid(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	tests := []struct {
		name     string
		coupon   *model.Coupon
		expected bool
	}{
		{
			name:     "active without limits",
			coupon:   &model.Coupon{IsActive: true},
			expected: true,
		},
		{
			name:     "inactive",
			coupon:   &model.Coupon{IsActive: false},
			expected: false,
		},
		{
			name:     "expired",
			coupon:   &model.Coupon{IsActive: true, ExpiresAt: &past},
			expected: false,
		},
		{
			name:     "expires later",
			coupon:   &model.Coupon{IsActive: true, ExpiresAt: &future},
			expected: true,
		},
		{
			name:     "usage limit reached",
			coupon:   &model.Coupon{IsActive: true, UsageLimit: 3, UsageCount: 3},
			expected: false,
		},
		{
			name:     "usage below limit",
			coupon:   &model.Coupon{IsActive: true, UsageLimit: 3, UsageCount: 2},
			expected: true,
		},
		{
			name:     "zero limit is unlimited",
			coupon:   &model.Coupon{IsActive: true, UsageLimit: 0, UsageCount: 1000},
			expected: true,
		},
		{
			name:     "nil coupon",
			coupon:   nil,
			expected: false,
		},
	}

	engine := NewEngineWithClock(func() time.Time { return fixedNow })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.IsValid(tt.coupon))
		})
	}
}

func TestEngine_Apply(t *testing.T) {
	past := fixedNow.Add(-time.Minute)

	tests := []struct {
		name     string
		coupon   model.Coupon
		amount   string
		expected string
	}{
		{
			name:     "percentage is not rounded",
			coupon:   model.Coupon{IsActive: true, DiscountType: model.DiscountPercentage, Value: dec("10")},
			amount:   "199.98",
			expected: "19.998",
		},
		{
			name:     "flat below amount",
			coupon:   model.Coupon{IsActive: true, DiscountType: model.DiscountFlat, Value: dec("50")},
			amount:   "120",
			expected: "50",
		},
		{
			name:     "flat capped at amount",
			coupon:   model.Coupon{IsActive: true, DiscountType: model.DiscountFlat, Value: dec("500")},
			amount:   "120",
			expected: "120",
		},
		{
			name: "percentage capped by max discount",
			coupon: model.Coupon{
				IsActive: true, DiscountType: model.DiscountPercentage, Value: dec("50"),
				MaxDiscount: decimal.NewNullDecimal(dec("30")),
			},
			amount:   "200",
			expected: "30",
		},
		{
			name: "flat capped by max discount",
			coupon: model.Coupon{
				IsActive: true, DiscountType: model.DiscountFlat, Value: dec("80"),
				MaxDiscount: decimal.NewNullDecimal(dec("25")),
			},
			amount:   "200",
			expected: "25",
		},
		{
			name: "zero max discount means no cap",
			coupon: model.Coupon{
				IsActive: true, DiscountType: model.DiscountPercentage, Value: dec("20"),
				MaxDiscount: decimal.NewNullDecimal(decimal.Zero),
			},
			amount:   "100",
			expected: "20",
		},
		{
			name: "below minimum amount",
			coupon: model.Coupon{
				IsActive: true, DiscountType: model.DiscountFlat, Value: dec("10"),
				MinimumAmount: dec("500"),
			},
			amount:   "499.99",
			expected: "0",
		},
		{
			name: "exactly minimum amount",
			coupon: model.Coupon{
				IsActive: true, DiscountType: model.DiscountFlat, Value: dec("10"),
				MinimumAmount: dec("500"),
			},
			amount:   "500",
			expected: "10",
		},
		{
			name:     "inactive gives nothing",
			coupon:   model.Coupon{IsActive: false, DiscountType: model.DiscountFlat, Value: dec("10")},
			amount:   "100",
			expected: "0",
		},
		{
			name:     "expired gives nothing",
			coupon:   model.Coupon{IsActive: true, ExpiresAt: &past, DiscountType: model.DiscountFlat, Value: dec("10")},
			amount:   "100",
			expected: "0",
		},
		{
			name: "used up gives nothing",
			coupon: model.Coupon{
				IsActive: true, UsageLimit: 1, UsageCount: 1,
				DiscountType: model.DiscountPercentage, Value: dec("10"),
			},
			amount:   "100",
			expected: "0",
		},
		{
			name:     "percentage above one hundred is capped at amount",
			coupon:   model.Coupon{IsActive: true, DiscountType: model.DiscountPercentage, Value: dec("150")},
			amount:   "80",
			expected: "80",
		},
		{
			name:     "zero amount",
			coupon:   model.Coupon{IsActive: true, DiscountType: model.DiscountFlat, Value: dec("10")},
			amount:   "0",
			expected: "0",
		},
		{
			name:     "unknown discount type",
			coupon:   model.Coupon{IsActive: true, DiscountType: "bogus", Value: dec("10")},
			amount:   "100",
			expected: "0",
		},
	}

	engine := NewEngineWithClock(func() time.Time { return fixedNow })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Apply(&tt.coupon, dec(tt.amount))
			assert.True(t, dec(tt.expected).Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestEngine_ApplyNeverIncrementsUsage(t *testing.T) {
	engine := NewEngine()
	c := &model.Coupon{
		IsActive: true, DiscountType: model.DiscountFlat, Value: dec("5"),
		UsageLimit: 2, UsageCount: 1,
	}

	for i := 0; i < 3; i++ {
		engine.Apply(c, dec("100"))
	}

	assert.Equal(t, 1, c.UsageCount)
}

func TestEngine_ApplyBounds(t *testing.T) {
	engine := NewEngine()
	amounts := []string{"0.01", "1", "9.99", "99.99", "1000", "123456.78"}
	coupons := []model.Coupon{
		{IsActive: true, DiscountType: model.DiscountFlat, Value: dec("10")},
		{IsActive: true, DiscountType: model.DiscountPercentage, Value: dec("12.5")},
		{IsActive: true, DiscountType: model.DiscountPercentage, Value: dec("100"), MaxDiscount: decimal.NewNullDecimal(dec("40"))},
	}

	for _, c := range coupons {
		for _, a := range amounts {
			amount := dec(a)
			got := engine.Apply(&c, amount)
			assert.False(t, got.IsNegative(), "discount must not be negative")
			assert.True(t, got.LessThanOrEqual(amount), "discount %s exceeds amount %s", got, amount)
			if c.MaxDiscount.Valid {
				assert.True(t, got.LessThanOrEqual(c.MaxDiscount.Decimal))
			}
		}
	}
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		code    string
		wantErr bool
	}{
		{"", false},
		{"SAVE10", false},
		{"new_user-2026", false},
		{"SAVE 10", true},
		{"DROP;TABLE", true},
		{"ABCDEFGHIJKLMNOPQRSTU", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ValidateCode(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidCouponCode)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
