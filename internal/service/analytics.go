package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/model"
	"github.com/leadflow/ingest-server/internal/repository"
)

type AnalyticsService struct {
	events repository.EventRepository
}

func NewAnalyticsService(events repository.EventRepository) *AnalyticsService {
	return &AnalyticsService{events: events}
}

// Summarize runs the independent rollups concurrently and assembles them.
func (s *AnalyticsService) Summarize(ctx context.Context, filter model.SummaryFilter) (*model.Summary, error) {
	if filter.ListingID < 0 {
		return nil, apperrors.InvalidInput("ponuda_id", "must be a positive integer")
	}
	if filter.CampaignID < 0 {
		return nil, apperrors.InvalidInput("kampanja_id", "must be a positive integer")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperrors.InvalidInput("date_from", "must not be after date_to")
	}

	var (
		totals    *model.EventTotals
		languages []model.CountByKey
		types     []model.CountByKey
		days      []model.DailyCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.events.Totals(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		languages, err = s.events.CountPageViewsByLanguage(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = s.events.CountByEventType(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		days, err = s.events.PageViewsByDay(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Database(fmt.Errorf("summarize events: %w", err))
	}

	summary := &model.Summary{
		ByLanguage:  toCountMap(languages),
		ByEventType: toCountMap(types),
		ViewsByDay:  make([]model.DayViews, 0, len(days)),
	}
	if totals != nil {
		summary.TotalViews = totals.PageViews
		summary.UniqueSessions = totals.UniqueSessions
		summary.AvgTimeSpentSeconds = totals.AvgTimeSpent
		summary.WhatsAppClicks = totals.WhatsAppClicks
		summary.PhotoClicks = totals.PhotoClicks
		summary.TotalEvents = totals.TotalEvents
	}
	for _, d := range days {
		summary.ViewsByDay = append(summary.ViewsByDay, model.DayViews{
			Date:  d.Day.UTC().Format(time.DateOnly),
			Views: d.Count,
		})
	}
	return summary, nil
}

func toCountMap(counts []model.CountByKey) map[string]int64 {
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.Key] += c.Count
	}
	return m
}
