package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/audit"
	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/httputil"
)

type audienceAssigner interface {
	AssignRandomContacts(ctx context.Context, campaignID int64, count int) (int, error)
}

type AudienceHandler struct {
	audience audienceAssigner
}

func NewAudienceHandler(audience audienceAssigner) *AudienceHandler {
	return &AudienceHandler{audience: audience}
}

type assignAudienceResponse struct {
	Added int     `json:"added"`
	Error *string `json:"error"`
}

// POST /api/campaigns/{campaignID}/audience
// Body: {"count": N}. The response always carries both added and error.
func (h *AudienceHandler) Assign(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.ParseInt(chi.URLParam(r, "campaignID"), 10, 64)
	if err != nil || campaignID <= 0 {
		h.fail(w, apperrors.InvalidInput("campaign_id", "must be a positive integer"))
		return
	}

	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	added, err := h.audience.AssignRandomContacts(r.Context(), campaignID, req.Count)
	if err != nil {
		h.fail(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventAudienceAssign,
		CampaignID: campaignID,
		Details: map[string]interface{}{
			"requested": req.Count,
			"added":     added,
		},
	})

	writeJSON(w, http.StatusOK, assignAudienceResponse{Added: added})
}

func (h *AudienceHandler) fail(w http.ResponseWriter, err error) {
	message := "Internal server error"
	appErr, ok := apperrors.AsAppError(err)
	if ok {
		message = appErr.Message
	} else {
		log.Error().Err(err).Msg("audience assignment failed")
	}

	writeJSON(w, httputil.StatusFromCode(apperrors.GetCode(err)), assignAudienceResponse{
		Added: 0,
		Error: &message,
	})
}
