package handler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/leadflow/ingest-server/internal/model"
	"github.com/leadflow/ingest-server/internal/service"
)

type mockEventService struct {
	mock.Mock
}

func (m *mockEventService) RecordEvent(ctx context.Context, params service.RecordEventParams) (*service.RecordResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecordResult), args.Error(1)
}

func (m *mockEventService) QueryEvents(ctx context.Context, filter model.EventFilter) ([]model.EngagementEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EngagementEvent), args.Error(1)
}

type mockSummaryService struct {
	mock.Mock
}

func (m *mockSummaryService) Summarize(ctx context.Context, filter model.SummaryFilter) (*model.Summary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Summary), args.Error(1)
}

type mockInboundProcessor struct {
	mock.Mock
}

func (m *mockInboundProcessor) ProcessInboundBatch(ctx context.Context, payload model.WebhookPayload) model.BatchResult {
	args := m.Called(ctx, payload)
	return args.Get(0).(model.BatchResult)
}

type mockContactImporter struct {
	mock.Mock
}

func (m *mockContactImporter) ImportFile(ctx context.Context, filename string, r io.Reader) (*model.ImportResult, error) {
	args := m.Called(ctx, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

type mockAudienceAssigner struct {
	mock.Mock
}

func (m *mockAudienceAssigner) AssignRandomContacts(ctx context.Context, campaignID int64, count int) (int, error) {
	args := m.Called(ctx, campaignID, count)
	return args.Int(0), args.Error(1)
}

type mockLeadLister struct {
	mock.Mock
}

func (m *mockLeadLister) ListLeads(ctx context.Context, limit, offset int) ([]model.InboundCall, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.InboundCall), args.Int(1), args.Error(2)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}
