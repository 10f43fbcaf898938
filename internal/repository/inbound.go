package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/leadflow/ingest-server/internal/model"
)

type InboundCallRepository interface {
	Create(ctx context.Context, params model.CreateInboundCallParams) (*model.InboundCall, error)
	List(ctx context.Context, limit, offset int) ([]model.InboundCall, error)
	Count(ctx context.Context) (int, error)
}

type inboundCallRepo struct {
	db *sqlx.DB
}

func NewInboundCallRepository(db *sqlx.DB) InboundCallRepository {
	return &inboundCallRepo{db: db}
}

func (r *inboundCallRepo) Create(ctx context.Context, params model.CreateInboundCallParams) (*model.InboundCall, error) {
	var call model.InboundCall
	err := r.db.GetContext(ctx, &call, `
		INSERT INTO inbound_calls (phone, listing_id, raw_text, gateway_message_id, chat_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Phone, params.ListingID, params.RawText, params.GatewayMessageID, params.ChatID)
	if err != nil {
		return nil, err
	}
	return &call, nil
}

func (r *inboundCallRepo) List(ctx context.Context, limit, offset int) ([]model.InboundCall, error) {
	calls := []model.InboundCall{}
	err := r.db.SelectContext(ctx, &calls, `
		SELECT * FROM inbound_calls
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return calls, err
}

func (r *inboundCallRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM inbound_calls`)
	return count, err
}
