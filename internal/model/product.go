package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalogue.
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	ParentID    *int64 `json:"parentId,omitempty" db:"parent_id"`
	Description string `json:"description,omitempty" db:"description"`
	IsActive    bool   `json:"isActive" db:"is_active"`
}

// Tag is a free-form product label used by search.
type Tag struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Product represents a sellable item in the catalogue.
type Product struct {
	ID                 string           `json:"id" db:"id"`
	CategoryID         int64            `json:"categoryId" db:"category_id"`
	CategoryName       string           `json:"categoryName,omitempty" db:"category_name"`
	CategorySlug       string           `json:"categorySlug,omitempty" db:"category_slug"`
	Title              string           `json:"title" db:"title"`
	Slug               string           `json:"slug" db:"slug"`
	Description        string           `json:"description" db:"description"`
	Price              decimal.Decimal  `json:"price" db:"price"`
	OldPrice           *decimal.Decimal `json:"oldPrice,omitempty" db:"old_price"`
	Stock              int              `json:"stock" db:"stock"`
	DiscountPercentage decimal.Decimal  `json:"discountPercentage" db:"discount_percentage"`
	SKU                string           `json:"sku" db:"sku"`
	IsTrending         bool             `json:"isTrending" db:"is_trending"`
	IsPublished        bool             `json:"isPublished" db:"is_published"`
	Tags               []Tag            `json:"tags,omitempty"`
	Rating             decimal.Decimal  `json:"rating"`
	ReviewCount        int              `json:"reviewCount"`
	CreatedAt          time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time        `json:"updatedAt" db:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// CurrentPrice is the price after the product's own percentage discount.
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.DiscountPercentage.IsPositive() {
		factor := hundred.Sub(p.DiscountPercentage).Div(hundred)
		return p.Price.Mul(factor)
	}
	return p.Price
}

// IsLowStock reports whether stock has reached the alert threshold.
func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock <= threshold
}

// Review is a customer rating of a product.
type Review struct {
	ID                 int64     `json:"id" db:"id"`
	ProductID          string    `json:"productId" db:"product_id"`
	UserID             string    `json:"userId" db:"user_id"`
	Rating             int       `json:"rating" db:"rating"`
	Headline           string    `json:"headline" db:"headline"`
	Body               string    `json:"body" db:"body"`
	IsVerifiedPurchase bool      `json:"isVerifiedPurchase" db:"is_verified_purchase"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
}
