package model

import "time"

type InboundCall struct {
	ID               int64     `db:"id" json:"id"`
	Phone            string    `db:"phone" json:"phone"`
	ListingID        *int64    `db:"listing_id" json:"ponuda_id"`
	RawText          string    `db:"raw_text" json:"raw_text"`
	GatewayMessageID *string   `db:"gateway_message_id" json:"message_id,omitempty"`
	ChatID           *string   `db:"chat_id" json:"chat_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type CreateInboundCallParams struct {
	Phone            string
	ListingID        *int64
	RawText          string
	GatewayMessageID *string
	ChatID           *string
}
