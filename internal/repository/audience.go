package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type AudienceRepository interface {
	// LockCampaign takes a transaction-scoped advisory lock on the campaign.
	// It only serializes callers when the repository is bound to a transaction.
	LockCampaign(ctx context.Context, campaignID int64) error
	AssignedContactIDs(ctx context.Context, campaignID int64) ([]int64, error)
	EligibleContactIDs(ctx context.Context, exclude []int64) ([]int64, error)
	// InsertBatch returns the number of rows actually added.
	InsertBatch(ctx context.Context, campaignID int64, contactIDs []int64) (int64, error)
	CountByCampaign(ctx context.Context, campaignID int64) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AudienceRepository
}

type audienceRepo struct {
	db queryer
}

func NewAudienceRepository(db *sqlx.DB) AudienceRepository {
	return &audienceRepo{db: db}
}

func (r *audienceRepo) WithTx(tx *sqlx.Tx) AudienceRepository {
	return &audienceRepo{db: tx}
}

func (r *audienceRepo) LockCampaign(ctx context.Context, campaignID int64) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, campaignID)
	return err
}

func (r *audienceRepo) AssignedContactIDs(ctx context.Context, campaignID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT contact_id FROM campaign_audience WHERE campaign_id = $1
	`, campaignID)
	return ids, err
}

func (r *audienceRepo) EligibleContactIDs(ctx context.Context, exclude []int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM contacts
		WHERE NOT (id = ANY($1::bigint[]))
		ORDER BY id ASC
	`, pq.Array(exclude))
	return ids, err
}

func (r *audienceRepo) InsertBatch(ctx context.Context, campaignID int64, contactIDs []int64) (int64, error) {
	if len(contactIDs) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_audience (campaign_id, contact_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT (campaign_id, contact_id) DO NOTHING
	`, campaignID, pq.Array(contactIDs))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *audienceRepo) CountByCampaign(ctx context.Context, campaignID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM campaign_audience WHERE campaign_id = $1
	`, campaignID)
	return count, err
}
