package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOverview compares a reporting window with the window before it.
type SalesOverview struct {
	Days          int             `json:"days"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	OrderCount    int             `json:"orderCount"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
	SalesGrowth   decimal.Decimal `json:"salesGrowth"`
	OrderGrowth   decimal.Decimal `json:"orderGrowth"`
}

// DailySales is one day of the sales chart.
type DailySales struct {
	Day    string          `json:"day"` // YYYY-MM-DD
	Sales  decimal.Decimal `json:"sales"`
	Orders int             `json:"orders"`
}

// CategorySales is revenue and volume for one category.
type CategorySales struct {
	Category string          `json:"category"`
	Sales    decimal.Decimal `json:"sales"`
	Quantity int             `json:"quantity"`
}

// ProductSales is a best-seller row.
type ProductSales struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Revenue   decimal.Decimal `json:"revenue"`
	Quantity  int             `json:"quantity"`
	Orders    int             `json:"orders"`
}

// PaymentMethodStats is payment volume per provider.
type PaymentMethodStats struct {
	Provider string          `json:"provider"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// CustomerMetrics summarises customer activity in a window.
type CustomerMetrics struct {
	NewCustomers         int             `json:"newCustomers"`
	RepeatCustomers      int             `json:"repeatCustomers"`
	TotalCustomers       int             `json:"totalCustomers"`
	AvgOrdersPerCustomer decimal.Decimal `json:"avgOrdersPerCustomer"`
}

// InventoryAlert is a published product at or below the stock threshold.
type InventoryAlert struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Stock     int    `json:"stock"`
	Category  string `json:"category"`
}

// RecentOrder is an order row for the admin dashboard.
type RecentOrder struct {
	ID        uuid.UUID       `json:"id"`
	Customer  string          `json:"customer"`
	Email     string          `json:"email"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	ItemCount int             `json:"itemCount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Dashboard bundles every report for one window.
type Dashboard struct {
	Overview        *SalesOverview       `json:"overview"`
	DailySales      []DailySales         `json:"dailySales"`
	CategorySales   []CategorySales      `json:"categorySales"`
	TopProducts     []ProductSales       `json:"topProducts"`
	PaymentMethods  []PaymentMethodStats `json:"paymentMethods"`
	Customers       *CustomerMetrics     `json:"customers"`
	InventoryAlerts []InventoryAlert     `json:"inventoryAlerts"`
	RecentOrders    []RecentOrder        `json:"recentOrders"`
}
