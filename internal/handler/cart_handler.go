package handler

import (
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionKeyHeader identifies an anonymous cart.
const SessionKeyHeader = "X-Session-Key"

// CartHandler handles cart requests. A cart is found by the X-Session-Key
// header, the bearer token's user, or both.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

func cartResponse(cart *model.Cart) model.CartResponse {
	return model.CartResponse{Cart: *cart, Subtotal: cart.Subtotal()}
}

// resolveCart loads the caller's cart or writes the error response.
func resolveCart(w http.ResponseWriter, r *http.Request, carts service.CartService, logger zerolog.Logger) (*model.Cart, bool) {
	var userID *uuid.UUID
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		userID = &id
	}

	cart, err := carts.GetCart(r.Context(), strings.TrimSpace(r.Header.Get(SessionKeyHeader)), userID)
	if err != nil {
		respondError(w, r, err, logger)
		return nil, false
	}
	return cart, true
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, ok := resolveCart(w, r, h.service, h.logger)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(cart))
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req model.CartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.ProductID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "productId is required", h.logger)
		return
	}

	cart, ok := resolveCart(w, r, h.service, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.AddItem(r.Context(), cart.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(cart))
}

// UpdateItem handles PATCH /api/cart/items/{productID}. Quantity 0 removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req model.CartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	cart, ok := resolveCart(w, r, h.service, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), cart.ID, r.PathValue("productID"), req.Quantity)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(cart))
}

// RemoveItem handles DELETE /api/cart/items/{productID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := resolveCart(w, r, h.service, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), cart.ID, r.PathValue("productID"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(cart))
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart, ok := resolveCart(w, r, h.service, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.Clear(r.Context(), cart.ID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(cart))
}
