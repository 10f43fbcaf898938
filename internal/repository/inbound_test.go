package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/ingest-server/internal/model"
)

var inboundColumns = []string{"id", "phone", "listing_id", "raw_text", "gateway_message_id", "chat_id", "created_at"}

func TestInboundCallRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInboundCallRepository(db)

	listingID := int64(482)
	msgID := "wamid.1"
	mock.ExpectQuery(`INSERT INTO inbound_calls`).
		WithArgs("+381641234567", int64(482), "Zainteresovan sam (ID: 482)", "wamid.1", nil).
		WillReturnRows(sqlmock.NewRows(inboundColumns).
			AddRow(int64(1), "+381641234567", int64(482), "Zainteresovan sam (ID: 482)", "wamid.1", nil, time.Now()))

	call, err := repo.Create(context.Background(), model.CreateInboundCallParams{
		Phone:            "+381641234567",
		ListingID:        &listingID,
		RawText:          "Zainteresovan sam (ID: 482)",
		GatewayMessageID: &msgID,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), call.ID)
	require.NotNil(t, call.ListingID)
	assert.Equal(t, int64(482), *call.ListingID)
	assert.Nil(t, call.ChatID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInboundCallRepository_ListAndCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInboundCallRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`FROM inbound_calls\s+ORDER BY created_at DESC`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(inboundColumns).
			AddRow(int64(2), "+3816", nil, "hello", nil, nil, time.Now()))

	calls, err := repo.List(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].ListingID)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM inbound_calls`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, mock.ExpectationsWereMet())
}
