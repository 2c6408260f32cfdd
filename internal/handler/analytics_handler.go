package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// AnalyticsHandler serves the admin reports.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("handler", "analytics").Logger(),
	}
}

func (h *AnalyticsHandler) intParam(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	v, err := queryInt(r, name, fallback)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid "+name+" parameter", h.logger)
		return 0, false
	}
	return v, true
}

// report runs fn with the days parameter and writes its result.
func report[T any](h *AnalyticsHandler, w http.ResponseWriter, r *http.Request, fn func(days int) (T, error)) {
	days, ok := h.intParam(w, r, "days", 0)
	if !ok {
		return
	}
	result, err := fn(days)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SalesOverview handles GET /api/admin/analytics/overview?days=.
func (h *AnalyticsHandler) SalesOverview(w http.ResponseWriter, r *http.Request) {
	report(h, w, r, func(days int) (*model.SalesOverview, error) {
		return h.service.SalesOverview(r.Context(), days)
	})
}

// DailySales handles GET /api/admin/analytics/daily-sales?days=.
func (h *AnalyticsHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	report(h, w, r, func(days int) ([]model.DailySales, error) {
		return h.service.DailySales(r.Context(), days)
	})
}

// CategorySales handles GET /api/admin/analytics/categories?days=.
func (h *AnalyticsHandler) CategorySales(w http.ResponseWriter, r *http.Request) {
	report(h, w, r, func(days int) ([]model.CategorySales, error) {
		return h.service.CategorySales(r.Context(), days)
	})
}

// TopProducts handles GET /api/admin/analytics/top-products?days=&limit=.
func (h *AnalyticsHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.intParam(w, r, "limit", 0)
	if !ok {
		return
	}
	report(h, w, r, func(days int) ([]model.ProductSales, error) {
		return h.service.TopProducts(r.Context(), days, limit)
	})
}

// PaymentMethods handles GET /api/admin/analytics/payment-methods?days=.
func (h *AnalyticsHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	report(h, w, r, func(days int) ([]model.PaymentMethodStats, error) {
		return h.service.PaymentMethods(r.Context(), days)
	})
}

// CustomerMetrics handles GET /api/admin/analytics/customers?days=.
func (h *AnalyticsHandler) CustomerMetrics(w http.ResponseWriter, r *http.Request) {
	report(h, w, r, func(days int) (*model.CustomerMetrics, error) {
		return h.service.CustomerMetrics(r.Context(), days)
	})
}

// InventoryAlerts handles GET /api/admin/analytics/inventory-alerts?threshold=.
// Without a threshold the configured low-stock threshold applies.
func (h *AnalyticsHandler) InventoryAlerts(w http.ResponseWriter, r *http.Request) {
	threshold, ok := h.intParam(w, r, "threshold", -1)
	if !ok {
		return
	}

	alerts, err := h.service.InventoryAlerts(r.Context(), threshold)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// RecentOrders handles GET /api/admin/analytics/recent-orders?limit=.
func (h *AnalyticsHandler) RecentOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.intParam(w, r, "limit", 0)
	if !ok {
		return
	}

	orders, err := h.service.RecentOrders(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Dashboard handles GET /api/admin/analytics/dashboard?days=.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	report(h, w, r, func(days int) (*model.Dashboard, error) {
		return h.service.Dashboard(r.Context(), days)
	})
}
