package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/strikelabs/strikedesk/internal/domain"
)

const spotTTL = 5 * time.Minute

// SpotCache implements domain.SpotCache using Redis hashes. Each symbol's
// price is stored at key "spot:{symbol}" with fields "price" and "ts" (Unix
// nanosecond timestamp).
type SpotCache struct {
	rdb *redis.Client
}

// NewSpotCache creates a SpotCache backed by the given Client.
func NewSpotCache(c *Client) *SpotCache {
	return &SpotCache{rdb: c.Underlying()}
}

func spotKey(symbol string) string { return "spot:" + symbol }

// SetPrices stores the latest spot prices for all symbols in one pipeline.
func (sc *SpotCache) SetPrices(ctx context.Context, prices map[string]float64, ts time.Time) error {
	if len(prices) == 0 {
		return nil
	}

	pipe := sc.rdb.TxPipeline()
	for symbol, price := range prices {
		key := spotKey(symbol)
		pipe.HSet(ctx, key, map[string]interface{}{
			"price": strconv.FormatFloat(price, 'f', -1, 64),
			"ts":    strconv.FormatInt(ts.UnixNano(), 10),
		})
		pipe.Expire(ctx, key, spotTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set spots: %w", err)
	}
	return nil
}

// GetPrice retrieves the latest spot price for a symbol. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (sc *SpotCache) GetPrice(ctx context.Context, symbol string) (float64, error) {
	priceStr, err := sc.rdb.HGet(ctx, spotKey(symbol), "price").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("redis: get spot %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: parse spot %s: %w", symbol, err)
	}
	return price, nil
}

// Compile-time interface check.
var _ domain.SpotCache = (*SpotCache)(nil)
