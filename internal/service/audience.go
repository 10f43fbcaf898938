package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/database"
	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/metrics"
	"github.com/leadflow/ingest-server/internal/repository"
)

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type AudienceService struct {
	db       TxRunner
	audience repository.AudienceRepository
	shuffle  func(ids []int64)
}

func NewAudienceService(db TxRunner, audience repository.AudienceRepository) *AudienceService {
	return &AudienceService{
		db:       db,
		audience: audience,
		shuffle: func(ids []int64) {
			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		},
	}
}

// AssignRandomContacts adds up to count uniformly chosen contacts that are not
// yet in the campaign's audience and returns how many rows were added.
// Concurrent calls for the same campaign are serialized by an advisory lock.
func (s *AudienceService) AssignRandomContacts(ctx context.Context, campaignID int64, count int) (int, error) {
	if campaignID <= 0 {
		return 0, apperrors.InvalidInput("campaign_id", "must be a positive integer")
	}
	if count <= 0 {
		return 0, apperrors.InvalidInput("count", "must be a positive integer")
	}

	var (
		added        int64
		audienceSize int
	)
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.audience.WithTx(tx)

		if err := repo.LockCampaign(ctx, campaignID); err != nil {
			return apperrors.Database(fmt.Errorf("lock campaign: %w", err))
		}

		assigned, err := repo.AssignedContactIDs(ctx, campaignID)
		if err != nil {
			return apperrors.Database(fmt.Errorf("load audience: %w", err))
		}

		pool, err := repo.EligibleContactIDs(ctx, assigned)
		if err != nil {
			return apperrors.Database(fmt.Errorf("load eligible contacts: %w", err))
		}
		if len(pool) == 0 {
			return apperrors.NoEligibleContacts()
		}

		s.shuffle(pool)
		selected := pool[:min(count, len(pool))]

		added, err = repo.InsertBatch(ctx, campaignID, selected)
		if err != nil {
			return apperrors.Database(fmt.Errorf("insert audience: %w", err))
		}

		audienceSize, err = repo.CountByCampaign(ctx, campaignID)
		if err != nil {
			return apperrors.Database(fmt.Errorf("count audience: %w", err))
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return 0, err
		}
		return 0, apperrors.Database(err)
	}

	metrics.AudienceAssigned.Add(float64(added))
	log.Info().
		Int64("campaignId", campaignID).
		Int("requested", count).
		Int64("added", added).
		Int("audienceSize", audienceSize).
		Msg("audience assigned")

	return int(added), nil
}
