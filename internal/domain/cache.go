package domain

import (
	"context"
	"time"
)

// PairCache stores the most recent pairing pass so consumers can render
// markets without re-hitting the order-book API. Entries carry their own TTL
// set by the implementation; a stale read returns ErrNotFound.
type PairCache interface {
	SetAll(ctx context.Context, pairs []BinaryPair) error
	Get(ctx context.Context, id string) (BinaryPair, error)
	List(ctx context.Context) ([]BinaryPair, error)
}

// SpotCache stores the latest underlying spot prices from the order-book
// envelope's market_data section.
type SpotCache interface {
	SetPrices(ctx context.Context, prices map[string]float64, ts time.Time) error
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// LockManager provides distributed mutual exclusion. The trade service holds
// a lock per wallet while a batch is in flight so two processes cannot race
// the same allowance.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
