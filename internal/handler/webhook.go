package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/model"
)

type inboundProcessor interface {
	ProcessInboundBatch(ctx context.Context, payload model.WebhookPayload) model.BatchResult
}

// WebhookHandler receives messaging-gateway deliveries. Every POST is
// answered with 200 so the gateway never retries.
type WebhookHandler struct {
	inbound inboundProcessor
}

func NewWebhookHandler(inbound inboundProcessor) *WebhookHandler {
	return &WebhookHandler{inbound: inbound}
}

// POST /api/webhook/whatsapp
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload model.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn().Int64("limit", tooLarge.Limit).Msg("webhook: body too large")
			writeJSON(w, http.StatusOK, map[string]any{
				"status":  "ok",
				"message": "Payload too large",
			})
			return
		}
		log.Warn().Err(err).Msg("webhook: invalid JSON body")
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"message": "Invalid JSON",
		})
		return
	}

	result := h.inbound.ProcessInboundBatch(r.Context(), payload)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"processed": result.Processed,
	})
}

// GET /api/webhook/whatsapp
func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "whatsapp-webhook",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
