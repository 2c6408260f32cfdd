package handler

import (
	"io"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBytes bounds provider webhook bodies.
const maxWebhookBytes = 512 << 10

// WebhookHandler receives payment provider callbacks. The body is read raw
// because signatures cover the exact bytes sent.
type WebhookHandler struct {
	service service.WebhookService
	logger  zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service service.WebhookService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger.With().Str("handler", "webhook").Logger(),
	}
}

// Handle handles POST /webhook/{provider}.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	header, ok := h.service.SignatureHeader(provider)
	if !ok {
		respondError(w, r, model.ErrUnsupportedProvider, h.logger)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		respondError(w, r, model.ErrInvalidWebhook, h.logger)
		return
	}

	if err := h.service.Handle(r.Context(), provider, body, r.Header.Get(header)); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
