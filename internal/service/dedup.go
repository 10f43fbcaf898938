package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DedupStore records keys that have already been seen.
type DedupStore interface {
	// Claim marks key as seen for ttl. It reports false when the key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisDedupStore struct {
	client *redis.Client
}

func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{client: client}
}

func (s *RedisDedupStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
}

func (s *RedisDedupStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// claimOrAllow reports whether work keyed by key should proceed. A nil store
// or a store failure lets the work through.
func claimOrAllow(ctx context.Context, store DedupStore, key string, ttl time.Duration) bool {
	if store == nil {
		return true
	}
	claimed, err := store.Claim(ctx, key, ttl)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("dedup check failed, allowing")
		return true
	}
	return claimed
}
