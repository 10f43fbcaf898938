package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/leadflow/ingest-server/internal/model"
)

type EventRepository interface {
	Create(ctx context.Context, params model.CreateEngagementEventParams) (int64, error)
	List(ctx context.Context, filter model.EventFilter) ([]model.EngagementEvent, error)
	Totals(ctx context.Context, filter model.SummaryFilter) (*model.EventTotals, error)
	CountPageViewsByLanguage(ctx context.Context, filter model.SummaryFilter) ([]model.CountByKey, error)
	CountByEventType(ctx context.Context, filter model.SummaryFilter) ([]model.CountByKey, error)
	PageViewsByDay(ctx context.Context, filter model.SummaryFilter) ([]model.DailyCount, error)
}

type eventRepo struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, params model.CreateEngagementEventParams) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO engagement_events
			(session_id, listing_id, campaign_id, event_type, event_data,
			 ip_address, user_agent, referrer, language, time_spent_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, params.SessionID, params.ListingID, params.CampaignID, params.EventType,
		jsonParam(params.EventData), params.IPAddress, params.UserAgent,
		params.Referrer, params.Language, params.TimeSpentSeconds)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *eventRepo) List(ctx context.Context, filter model.EventFilter) ([]model.EngagementEvent, error) {
	var w whereBuilder
	if filter.ListingID > 0 {
		w.add("listing_id = ?", filter.ListingID)
	}
	if filter.CampaignID > 0 {
		w.add("campaign_id = ?", filter.CampaignID)
	}
	if filter.EventType != "" {
		w.add("event_type = ?", filter.EventType)
	}
	if filter.From != nil {
		w.add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("created_at < ?", *filter.To)
	}

	query := `SELECT * FROM engagement_events` + w.clause() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.next(filter.Limit)

	events := []model.EngagementEvent{}
	err := r.db.SelectContext(ctx, &events, query, w.args...)
	return events, err
}

func summaryWhere(filter model.SummaryFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.ListingID > 0 {
		w.add("listing_id = ?", filter.ListingID)
	}
	if filter.CampaignID > 0 {
		w.add("campaign_id = ?", filter.CampaignID)
	}
	if filter.From != nil {
		w.add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("created_at < ?", *filter.To)
	}
	return w
}

func (r *eventRepo) Totals(ctx context.Context, filter model.SummaryFilter) (*model.EventTotals, error) {
	w := summaryWhere(filter)
	var totals model.EventTotals
	err := r.db.GetContext(ctx, &totals, `
		SELECT
			COUNT(*) FILTER (WHERE event_type = 'page_view') AS page_views,
			COUNT(DISTINCT session_id) AS unique_sessions,
			AVG(time_spent_seconds)::float8 AS avg_time_spent,
			COUNT(*) FILTER (WHERE event_type = 'whatsapp_click') AS whatsapp_clicks,
			COUNT(*) FILTER (WHERE event_type = 'photo_click') AS photo_clicks,
			COUNT(*) AS total_events
		FROM engagement_events`+w.clause(), w.args...)
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *eventRepo) CountPageViewsByLanguage(ctx context.Context, filter model.SummaryFilter) ([]model.CountByKey, error) {
	w := summaryWhere(filter)
	w.add("event_type = ?", model.EventPageView)
	counts := []model.CountByKey{}
	err := r.db.SelectContext(ctx, &counts, `
		SELECT COALESCE(NULLIF(language, ''), 'unknown') AS key, COUNT(*) AS count
		FROM engagement_events`+w.clause()+`
		GROUP BY 1
		ORDER BY count DESC, key ASC
	`, w.args...)
	return counts, err
}

func (r *eventRepo) CountByEventType(ctx context.Context, filter model.SummaryFilter) ([]model.CountByKey, error) {
	w := summaryWhere(filter)
	counts := []model.CountByKey{}
	err := r.db.SelectContext(ctx, &counts, `
		SELECT event_type AS key, COUNT(*) AS count
		FROM engagement_events`+w.clause()+`
		GROUP BY 1
		ORDER BY count DESC, key ASC
	`, w.args...)
	return counts, err
}

func (r *eventRepo) PageViewsByDay(ctx context.Context, filter model.SummaryFilter) ([]model.DailyCount, error) {
	w := summaryWhere(filter)
	w.add("event_type = ?", model.EventPageView)
	days := []model.DailyCount{}
	err := r.db.SelectContext(ctx, &days, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*) AS count
		FROM engagement_events`+w.clause()+`
		GROUP BY 1
		ORDER BY 1 ASC
	`, w.args...)
	return days, err
}
