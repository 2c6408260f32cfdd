package handler

import (
	"net/http"

	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products requests with pagination.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetBySlug handles GET /api/products/{slug} requests.
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// ListReviews handles GET /api/products/{slug}/reviews requests.
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r, h.logger)
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), r.PathValue("slug"), limit, offset)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}
