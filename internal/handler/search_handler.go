package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SearchHandler serves catalogue search, autocomplete and popular queries.
type SearchHandler struct {
	service service.SearchService
	logger  zerolog.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service service.SearchService, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger.With().Str("handler", "search").Logger(),
	}
}

func queryDecimal(r *http.Request, name string) (decimal.NullDecimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// Search handles GET /api/search?q=&category=&min_price=&max_price=&ordering=&limit=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid limit parameter", h.logger)
		return
	}
	minPrice, err := queryDecimal(r, "min_price")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid min_price parameter", h.logger)
		return
	}
	maxPrice, err := queryDecimal(r, "max_price")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid max_price parameter", h.logger)
		return
	}

	result, err := h.service.Search(r.Context(), model.SearchFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Ordering: q.Get("ordering"),
		Limit:    limit,
	})
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Suggestions handles GET /api/search/suggestions?q=&limit=.
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid limit parameter", h.logger)
		return
	}

	suggestions, err := h.service.Suggestions(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, suggestions)
}

// Popular handles GET /api/search/popular?limit=.
func (h *SearchHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid limit parameter", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.service.PopularSearches(limit))
}
