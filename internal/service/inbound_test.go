package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/model"
	redisclient "github.com/leadflow/ingest-server/internal/redis"
	"github.com/leadflow/ingest-server/internal/sse"
)

func TestExtractListingID(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected *int64
	}{
		{"parenthesised", "Zainteresovan sam (ID: 482)", int64Ptr(482)},
		{"lower case without parens", "id:77 molim info", int64Ptr(77)},
		{"spaces around colon", "Stan ID  :  1203, Vracar", int64Ptr(1203)},
		{"first match wins", "(ID: 5) ili (ID: 6)", int64Ptr(5)},
		{"no pattern", "Da li je stan jos dostupan?", nil},
		{"id without digits", "ID: abc", nil},
		{"zero is not a listing", "ID: 0", nil},
		{"empty", "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractListingID(tc.text))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"063 867 6663", "+0638676663"},
		{"+381 64 123-4567", "+381641234567"},
		{"+381641234567", "+381641234567"},
		{"381641234567@c.us", "+381641234567"},
		{"(011) 222-333", "+011222333"},
		{"unknown", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizePhone(tc.input))
		})
	}
}

func textMessage(id, from, body string) model.WebhookMessage {
	return model.WebhookMessage{ID: id, From: from, Text: &model.WebhookText{Body: body}, Type: "text"}
}

func TestInboundService_ProcessInboundBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("creates calls in delivery order", func(t *testing.T) {
		repo := new(mockCallRepo)
		svc := NewInboundService(repo, nil, time.Hour, nil)

		var order []string
		repo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				order = append(order, args.Get(1).(model.CreateInboundCallParams).RawText)
			}).
			Return(&model.InboundCall{ID: 1}, nil)

		result := svc.ProcessInboundBatch(ctx, model.WebhookPayload{
			Messages: []model.WebhookMessage{
				textMessage("a", "381641111111", "prva (ID: 1)"),
				textMessage("b", "381642222222", "druga"),
			},
			Message: &model.WebhookMessage{ID: "c", From: "381643333333", Text: &model.WebhookText{Body: "treca"}},
		})

		assert.Equal(t, 3, result.Processed)
		assert.Equal(t, 3, result.Created)
		assert.Equal(t, []string{"prva (ID: 1)", "druga", "treca"}, order)
	})

	t.Run("extracts listing and normalizes sender", func(t *testing.T) {
		repo := new(mockCallRepo)
		svc := NewInboundService(repo, nil, time.Hour, nil)

		repo.On("Create", ctx, model.CreateInboundCallParams{
			Phone:            "+0638676663",
			ListingID:        int64Ptr(482),
			RawText:          "Zainteresovan sam (ID: 482)",
			GatewayMessageID: strPtr("wamid.1"),
			ChatID:           strPtr("0638676663@c.us"),
		}).Return(&model.InboundCall{ID: 4, Phone: "+0638676663"}, nil)

		msg := textMessage("wamid.1", "063 867 6663", "Zainteresovan sam (ID: 482)")
		msg.ChatID = "0638676663@c.us"
		result := svc.ProcessInboundBatch(ctx, model.WebhookPayload{Message: &msg})

		assert.Equal(t, model.BatchResult{Processed: 1, Created: 1}, result)
		repo.AssertExpectations(t)
	})

	t.Run("message without listing reference still creates a call", func(t *testing.T) {
		repo := new(mockCallRepo)
		svc := NewInboundService(repo, nil, time.Hour, nil)
		repo.On("Create", ctx, mock.MatchedBy(func(p model.CreateInboundCallParams) bool {
			return p.ListingID == nil && p.RawText == "Koja je cena?"
		})).Return(&model.InboundCall{ID: 5}, nil)

		result := svc.ProcessInboundBatch(ctx, model.WebhookPayload{
			Messages: []model.WebhookMessage{textMessage("x", "381640000000", "Koja je cena?")},
		})
		assert.Equal(t, 1, result.Created)
		repo.AssertExpectations(t)
	})

	t.Run("skips own, empty and senderless messages", func(t *testing.T) {
		repo := new(mockCallRepo)
		svc := NewInboundService(repo, nil, time.Hour, nil)

		own := textMessage("1", "381641111111", "hvala")
		own.FromMe = true
		result := svc.ProcessInboundBatch(ctx, model.WebhookPayload{
			Messages: []model.WebhookMessage{
				own,
				textMessage("2", "381641111111", "   "),
				{ID: "3", From: "381641111111", Type: "image"},
				textMessage("4", "status@broadcast", "hello"),
			},
		})

		assert.Equal(t, model.BatchResult{Processed: 4, Skipped: 4}, result)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("one failed insert does not abort the batch", func(t *testing.T) {
		repo := new(mockCallRepo)
		svc := NewInboundService(repo, nil, time.Hour, nil)
		repo.On("Create", ctx, mock.MatchedBy(func(p model.CreateInboundCallParams) bool { return p.RawText == "bad" })).
			Return(nil, errors.New("deadlock detected"))
		repo.On("Create", ctx, mock.MatchedBy(func(p model.CreateInboundCallParams) bool { return p.RawText == "good" })).
			Return(&model.InboundCall{ID: 8}, nil)

		result := svc.ProcessInboundBatch(ctx, model.WebhookPayload{
			Messages: []model.WebhookMessage{
				textMessage("1", "3816411", "bad"),
				textMessage("2", "3816422", "good"),
			},
		})
		assert.Equal(t, model.BatchResult{Processed: 2, Created: 1, Failed: 1}, result)
	})

	t.Run("empty payload", func(t *testing.T) {
		svc := NewInboundService(new(mockCallRepo), nil, time.Hour, nil)
		assert.Equal(t, model.BatchResult{}, svc.ProcessInboundBatch(ctx, model.WebhookPayload{}))
	})
}

func TestInboundService_Redelivery(t *testing.T) {
	ctx := context.Background()
	key := redisclient.WebhookMessageKey("wamid.9")

	t.Run("redelivered message is skipped", func(t *testing.T) {
		repo := new(mockCallRepo)
		dedup := new(mockDedupStore)
		svc := NewInboundService(repo, dedup, 24*time.Hour, nil)

		dedup.On("Claim", ctx, key, 24*time.Hour).Return(true, nil).Once()
		dedup.On("Claim", ctx, key, 24*time.Hour).Return(false, nil).Once()
		repo.On("Create", ctx, mock.Anything).Return(&model.InboundCall{ID: 1}, nil).Once()

		msg := textMessage("wamid.9", "381641111111", "ID: 3")
		first := svc.ProcessInboundBatch(ctx, model.WebhookPayload{Message: &msg})
		second := svc.ProcessInboundBatch(ctx, model.WebhookPayload{Message: &msg})

		assert.Equal(t, 1, first.Created)
		assert.Equal(t, 0, second.Created)
		assert.Equal(t, 1, second.Skipped)
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("failed insert releases the message id", func(t *testing.T) {
		repo := new(mockCallRepo)
		dedup := new(mockDedupStore)
		svc := NewInboundService(repo, dedup, time.Hour, nil)

		dedup.On("Claim", ctx, key, time.Hour).Return(true, nil)
		dedup.On("Release", ctx, key).Return(nil)
		repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("timeout"))

		msg := textMessage("wamid.9", "381641111111", "hi")
		result := svc.ProcessInboundBatch(ctx, model.WebhookPayload{Message: &msg})
		assert.Equal(t, 1, result.Failed)
		dedup.AssertExpectations(t)
	})

	t.Run("store failure lets the message through", func(t *testing.T) {
		repo := new(mockCallRepo)
		dedup := new(mockDedupStore)
		svc := NewInboundService(repo, dedup, time.Hour, nil)

		dedup.On("Claim", ctx, key, time.Hour).Return(false, errors.New("redis down"))
		repo.On("Create", ctx, mock.Anything).Return(&model.InboundCall{ID: 2}, nil)

		msg := textMessage("wamid.9", "381641111111", "hi")
		assert.Equal(t, 1, svc.ProcessInboundBatch(ctx, model.WebhookPayload{Message: &msg}).Created)
	})
}

func TestInboundService_PublishesLeads(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCallRepo)
	publisher := new(mockPublisher)
	svc := NewInboundService(repo, nil, time.Hour, publisher)

	call := &model.InboundCall{ID: 12, Phone: "+381641111111", RawText: "ID: 9", ListingID: int64Ptr(9)}
	repo.On("Create", ctx, mock.Anything).Return(call, nil)
	publisher.On("Publish", ctx, redisclient.LeadsChannel, mock.MatchedBy(func(e sse.Event) bool {
		return e.Type == LeadEventType && len(e.Data) > 0
	})).Return(errors.New("redis down"))

	msg := textMessage("m", "381641111111", "ID: 9")
	result := svc.ProcessInboundBatch(ctx, model.WebhookPayload{Message: &msg})

	assert.Equal(t, 1, result.Created, "publish failures do not affect the lead")
	publisher.AssertExpectations(t)
}

func TestInboundService_ListLeads(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCallRepo)
	svc := NewInboundService(repo, nil, time.Hour, nil)

	repo.On("List", ctx, 20, 40).Return([]model.InboundCall{{ID: 3}}, nil)
	repo.On("Count", ctx).Return(41, nil)

	calls, total, err := svc.ListLeads(ctx, 20, 40)
	require.NoError(t, err)
	assert.Len(t, calls, 1)
	assert.Equal(t, 41, total)
}

func TestInboundService_ListLeadsStorageError(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCallRepo)
	svc := NewInboundService(repo, nil, time.Hour, nil)

	repo.On("List", ctx, 20, 0).Return(nil, errors.New("connection reset"))

	calls, total, err := svc.ListLeads(ctx, 20, 0)
	assert.Nil(t, calls)
	assert.Zero(t, total)
	assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
}
