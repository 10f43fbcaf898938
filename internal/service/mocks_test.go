package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/leadflow/ingest-server/internal/database"
	"github.com/leadflow/ingest-server/internal/model"
	"github.com/leadflow/ingest-server/internal/repository"
	"github.com/leadflow/ingest-server/internal/sse"
)

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Create(ctx context.Context, params model.CreateEngagementEventParams) (int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockEventRepo) List(ctx context.Context, filter model.EventFilter) ([]model.EngagementEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EngagementEvent), args.Error(1)
}

func (m *mockEventRepo) Totals(ctx context.Context, filter model.SummaryFilter) (*model.EventTotals, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventTotals), args.Error(1)
}

func (m *mockEventRepo) CountPageViewsByLanguage(ctx context.Context, filter model.SummaryFilter) ([]model.CountByKey, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CountByKey), args.Error(1)
}

func (m *mockEventRepo) CountByEventType(ctx context.Context, filter model.SummaryFilter) ([]model.CountByKey, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CountByKey), args.Error(1)
}

func (m *mockEventRepo) PageViewsByDay(ctx context.Context, filter model.SummaryFilter) ([]model.DailyCount, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DailyCount), args.Error(1)
}

type mockCallRepo struct {
	mock.Mock
}

func (m *mockCallRepo) Create(ctx context.Context, params model.CreateInboundCallParams) (*model.InboundCall, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InboundCall), args.Error(1)
}

func (m *mockCallRepo) List(ctx context.Context, limit, offset int) ([]model.InboundCall, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InboundCall), args.Error(1)
}

func (m *mockCallRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockContactRepo struct {
	mock.Mock
}

func (m *mockContactRepo) FindByEmail(ctx context.Context, email string) (*model.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *mockContactRepo) FindByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *mockContactRepo) Create(ctx context.Context, params model.CreateContactParams) (*model.Contact, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *mockContactRepo) UpdateFields(ctx context.Context, id int64, fields model.ContactFields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

type mockAudienceRepo struct {
	mock.Mock
}

func (m *mockAudienceRepo) LockCampaign(ctx context.Context, campaignID int64) error {
	args := m.Called(ctx, campaignID)
	return args.Error(0)
}

func (m *mockAudienceRepo) AssignedContactIDs(ctx context.Context, campaignID int64) ([]int64, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockAudienceRepo) EligibleContactIDs(ctx context.Context, exclude []int64) ([]int64, error) {
	args := m.Called(ctx, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockAudienceRepo) InsertBatch(ctx context.Context, campaignID int64, contactIDs []int64) (int64, error) {
	args := m.Called(ctx, campaignID, contactIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAudienceRepo) CountByCampaign(ctx context.Context, campaignID int64) (int, error) {
	args := m.Called(ctx, campaignID)
	return args.Int(0), args.Error(1)
}

func (m *mockAudienceRepo) WithTx(tx *sqlx.Tx) repository.AudienceRepository {
	return m
}

// fakeTxRunner runs fn without a real transaction.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	f.calls++
	return fn(nil)
}

type mockDedupStore struct {
	mock.Mock
}

func (m *mockDedupStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockDedupStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event sse.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}
