package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/config"
	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/metrics"
	"github.com/leadflow/ingest-server/internal/model"
	redisclient "github.com/leadflow/ingest-server/internal/redis"
	"github.com/leadflow/ingest-server/internal/repository"
)

type RecordEventParams struct {
	SessionID        string
	ListingID        int64
	CampaignID       *int64
	EventType        string
	EventData        json.RawMessage
	Language         *string
	TimeSpentSeconds *int
	IPAddress        string
	UserAgent        *string
	Referrer         *string
}

type RecordResult struct {
	ID        int64
	Duplicate bool
}

type EventService struct {
	events repository.EventRepository
	dedup  DedupStore
	now    func() time.Time
}

// NewEventService creates the ingestion service. A nil dedup store disables
// server-side page_view idempotency.
func NewEventService(events repository.EventRepository, dedup DedupStore) *EventService {
	return &EventService{
		events: events,
		dedup:  dedup,
		now:    time.Now,
	}
}

func (s *EventService) RecordEvent(ctx context.Context, params RecordEventParams) (*RecordResult, error) {
	create, err := validateEvent(params)
	if err != nil {
		return nil, err
	}

	var dedupKey string
	if create.EventType == model.EventPageView && s.dedup != nil {
		day := s.now().UTC().Format(time.DateOnly)
		dedupKey = redisclient.PageViewKey(create.SessionID, create.ListingID, day)
		if !claimOrAllow(ctx, s.dedup, dedupKey, config.PageViewDedupTTL) {
			metrics.EventsDeduplicated.Inc()
			log.Debug().
				Str("sessionId", create.SessionID).
				Int64("listingId", create.ListingID).
				Msg("duplicate page view skipped")
			return &RecordResult{Duplicate: true}, nil
		}
	}

	id, err := s.events.Create(ctx, create)
	if err != nil {
		if dedupKey != "" {
			if relErr := s.dedup.Release(ctx, dedupKey); relErr != nil {
				log.Warn().Err(relErr).Str("key", dedupKey).Msg("failed to release page view key")
			}
		}
		log.Error().Err(err).
			Str("eventType", string(create.EventType)).
			Int64("listingId", create.ListingID).
			Msg("failed to record event")
		return nil, apperrors.Database(fmt.Errorf("record event: %w", err))
	}

	metrics.EventsRecorded.WithLabelValues(string(create.EventType)).Inc()
	return &RecordResult{ID: id}, nil
}

func validateEvent(params RecordEventParams) (model.CreateEngagementEventParams, error) {
	var create model.CreateEngagementEventParams

	sessionID := strings.TrimSpace(params.SessionID)
	if sessionID == "" {
		return create, apperrors.MissingRequired("session_id")
	}
	if params.ListingID == 0 {
		return create, apperrors.MissingRequired("ponuda_id")
	}
	if params.ListingID < 0 {
		return create, apperrors.InvalidInput("ponuda_id", "must be a positive integer")
	}
	if params.CampaignID != nil && *params.CampaignID <= 0 {
		return create, apperrors.InvalidInput("kampanja_id", "must be a positive integer")
	}
	if params.EventType == "" {
		return create, apperrors.MissingRequired("event_type")
	}
	eventType := model.EventType(params.EventType)
	if !eventType.IsValid() {
		return create, apperrors.InvalidInput("event_type", "unknown event type").
			WithDetails(map[string]any{"allowed": model.EventTypeNames()})
	}

	var timeSpent *int
	if eventType == model.EventPageLeave && params.TimeSpentSeconds != nil {
		if *params.TimeSpentSeconds < 0 {
			return create, apperrors.InvalidInput("time_spent_seconds", "must not be negative")
		}
		timeSpent = params.TimeSpentSeconds
	}

	var data json.RawMessage
	if trimmed := bytes.TrimSpace(params.EventData); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		data = trimmed
	}

	ip := strings.TrimSpace(params.IPAddress)
	if ip == "" {
		ip = "unknown"
	}

	return model.CreateEngagementEventParams{
		SessionID:        sessionID,
		ListingID:        params.ListingID,
		CampaignID:       params.CampaignID,
		EventType:        eventType,
		EventData:        data,
		IPAddress:        ip,
		UserAgent:        params.UserAgent,
		Referrer:         params.Referrer,
		Language:         params.Language,
		TimeSpentSeconds: timeSpent,
	}, nil
}

func (s *EventService) QueryEvents(ctx context.Context, filter model.EventFilter) ([]model.EngagementEvent, error) {
	if filter.EventType != "" && !filter.EventType.IsValid() {
		return nil, apperrors.InvalidInput("event_type", "unknown event type")
	}
	if filter.ListingID < 0 {
		return nil, apperrors.InvalidInput("ponuda_id", "must be a positive integer")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperrors.InvalidInput("date_from", "must not be after date_to")
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = config.DefaultEventQueryLimit
	case filter.Limit > config.MaxEventQueryLimit:
		filter.Limit = config.MaxEventQueryLimit
	}

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("query events: %w", err))
	}
	if events == nil {
		events = []model.EngagementEvent{}
	}
	return events, nil
}
