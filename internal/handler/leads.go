package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/audit"
	"github.com/leadflow/ingest-server/internal/model"
	redisclient "github.com/leadflow/ingest-server/internal/redis"
	"github.com/leadflow/ingest-server/internal/sse"
)

type leadLister interface {
	ListLeads(ctx context.Context, limit, offset int) ([]model.InboundCall, int, error)
}

type LeadsHandler struct {
	leads             leadLister
	broker            *sse.Broker
	heartbeatInterval time.Duration
}

func NewLeadsHandler(leads leadLister, broker *sse.Broker) *LeadsHandler {
	return &LeadsHandler{
		leads:             leads,
		broker:            broker,
		heartbeatInterval: sse.HeartbeatInterval,
	}
}

// GET /api/leads
func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r)

	calls, total, err := h.leads.ListLeads(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":   calls,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GET /api/leads/stream
// Server-sent events: one "lead" event per InboundCall created on any instance.
func (h *LeadsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(redisclient.LeadsChannel)
	defer h.broker.Unsubscribe(client)

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLeadStreamOpened})

	if err := sendEvent(w, flusher, "connected", map[string]any{
		"topic": redisclient.LeadsChannel,
	}); err != nil {
		return
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("lead stream closed by client")
			return

		case <-client.Done:
			log.Debug().Msg("lead stream closed by broker")
			return

		case event := <-client.Events:
			if err := sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send lead event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().Msg("heartbeat failed, closing lead stream")
				return
			}
			flusher.Flush()
		}
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
