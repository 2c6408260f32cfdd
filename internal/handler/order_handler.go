package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles checkout and order history requests. Every route
// requires an authenticated user.
type OrderHandler struct {
	checkout service.CheckoutService
	carts    service.CartService
	logger   zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(checkout service.CheckoutService, carts service.CartService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		carts:    carts,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

func (h *OrderHandler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, model.ErrUnauthorised, h.logger)
	}
	return userID, ok
}

// Checkout handles POST /api/orders/checkout. The caller's current cart is
// converted into an order and payment is initiated with the chosen provider.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req model.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.AddressID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "address_id is required", h.logger)
		return
	}

	cart, ok := resolveCart(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	resp, err := h.checkout.Checkout(r.Context(), userID, cart, &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	limit, offset, ok := pageParams(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.checkout.ListOrders(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid order ID format", h.logger)
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Pay handles POST /api/orders/{id}/pay. It starts a new payment for an order
// whose earlier payment could not be initiated or completed.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid order ID format", h.logger)
		return
	}

	var req model.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	resp, err := h.checkout.PayOrder(r.Context(), userID, orderID, &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
