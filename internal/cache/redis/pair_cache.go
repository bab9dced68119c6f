package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// PairCache implements domain.PairCache using Redis with JSON-serialized
// pairs. Every SetAll replaces the previous pairing pass wholesale; pairs
// have no identity across passes beyond the deterministic ID.
//
// Key schema:
//
//	pair:{id}  - JSON-encoded BinaryPair
//	pairs:ids  - JSON array of the IDs written by the latest pass
type PairCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPairCache creates a PairCache backed by the given Client. A zero ttl
// defaults to 2 minutes.
func NewPairCache(c *Client, ttl time.Duration) *PairCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PairCache{rdb: c.Underlying(), ttl: ttl}
}

func pairKey(id string) string { return "pair:" + id }

const pairIndexKey = "pairs:ids"

// SetAll stores the result of one pairing pass, replacing the index so
// vanished pairs stop being listed immediately.
func (pc *PairCache) SetAll(ctx context.Context, pairs []domain.BinaryPair) error {
	ids := make([]string, 0, len(pairs))

	pipe := pc.rdb.TxPipeline()
	for i := range pairs {
		data, err := json.Marshal(pairs[i])
		if err != nil {
			return fmt.Errorf("redis: marshal pair %s: %w", pairs[i].ID, err)
		}
		pipe.Set(ctx, pairKey(pairs[i].ID), data, pc.ttl)
		ids = append(ids, pairs[i].ID)
	}

	idxData, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("redis: marshal pair index: %w", err)
	}
	pipe.Set(ctx, pairIndexKey, idxData, pc.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set pairs: %w", err)
	}
	return nil
}

// Get retrieves one pair by ID. It returns domain.ErrNotFound when the key
// does not exist or has expired.
func (pc *PairCache) Get(ctx context.Context, id string) (domain.BinaryPair, error) {
	data, err := pc.rdb.Get(ctx, pairKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.BinaryPair{}, domain.ErrNotFound
		}
		return domain.BinaryPair{}, fmt.Errorf("redis: get pair %s: %w", id, err)
	}

	var pair domain.BinaryPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return domain.BinaryPair{}, fmt.Errorf("redis: unmarshal pair %s: %w", id, err)
	}
	return pair, nil
}

// List returns every pair from the latest pass, skipping entries that
// expired between the index read and the pair reads.
func (pc *PairCache) List(ctx context.Context) ([]domain.BinaryPair, error) {
	idxData, err := pc.rdb.Get(ctx, pairIndexKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get pair index: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(idxData, &ids); err != nil {
		return nil, fmt.Errorf("redis: unmarshal pair index: %w", err)
	}

	pairs := make([]domain.BinaryPair, 0, len(ids))
	for _, id := range ids {
		pair, err := pc.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// Compile-time interface check.
var _ domain.PairCache = (*PairCache)(nil)
