package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/httputil"
	"github.com/leadflow/ingest-server/internal/model"
	"github.com/leadflow/ingest-server/internal/service"
)

type eventService interface {
	RecordEvent(ctx context.Context, params service.RecordEventParams) (*service.RecordResult, error)
	QueryEvents(ctx context.Context, filter model.EventFilter) ([]model.EngagementEvent, error)
}

type summaryService interface {
	Summarize(ctx context.Context, filter model.SummaryFilter) (*model.Summary, error)
}

type TrackingHandler struct {
	events    eventService
	analytics summaryService
}

func NewTrackingHandler(events eventService, analytics summaryService) *TrackingHandler {
	return &TrackingHandler{
		events:    events,
		analytics: analytics,
	}
}

type trackEventRequest struct {
	SessionID        string          `json:"session_id"`
	ListingID        int64           `json:"ponuda_id"`
	CampaignID       *int64          `json:"kampanja_id"`
	EventType        string          `json:"event_type"`
	EventData        json.RawMessage `json:"event_data"`
	Language         *string         `json:"language"`
	TimeSpentSeconds *int            `json:"time_spent_seconds"`
}

// POST /api/tracking/events
func (h *TrackingHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req trackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	var language *string
	if req.Language != nil {
		if lang := strings.TrimSpace(*req.Language); lang != "" {
			language = &lang
		}
	}

	result, err := h.events.RecordEvent(r.Context(), service.RecordEventParams{
		SessionID:        req.SessionID,
		ListingID:        req.ListingID,
		CampaignID:       req.CampaignID,
		EventType:        req.EventType,
		EventData:        req.EventData,
		Language:         language,
		TimeSpentSeconds: req.TimeSpentSeconds,
		IPAddress:        httputil.ClientIP(r),
		UserAgent:        httputil.OptionalHeader(r, "User-Agent"),
		Referrer:         httputil.OptionalHeader(r, "Referer"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Duplicate {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"id":        0,
			"duplicate": true,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      result.ID,
	})
}

// GET /api/tracking/events
func (h *TrackingHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	listingID, err := parseIDParam(r, "ponuda_id")
	if err != nil {
		writeError(w, err)
		return
	}
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filter := model.EventFilter{
		ListingID: listingID,
		EventType: model.EventType(strings.TrimSpace(r.URL.Query().Get("event_type"))),
		From:      from,
		To:        to,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperrors.InvalidInput("limit", "must be an integer"))
			return
		}
		filter.Limit = limit
	}

	events, err := h.events.QueryEvents(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": events})
}

// GET /api/tracking/summary
func (h *TrackingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	listingID, err := parseIDParam(r, "ponuda_id")
	if err != nil {
		writeError(w, err)
		return
	}
	campaignID, err := parseIDParam(r, "kampanja_id")
	if err != nil {
		writeError(w, err)
		return
	}
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.analytics.Summarize(r.Context(), model.SummaryFilter{
		ListingID:  listingID,
		CampaignID: campaignID,
		From:       from,
		To:         to,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
