package orders

import (
	"sort"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// ExpiryBucket is a coarse time-to-expiry category for market filtering.
type ExpiryBucket string

const (
	BucketExpired ExpiryBucket = "expired"
	BucketHourly  ExpiryBucket = "1h"
	BucketDaily   ExpiryBucket = "24h"
	BucketWeekly  ExpiryBucket = "7d"
	BucketMonthly ExpiryBucket = "30d"
	BucketLater   ExpiryBucket = "later"
)

// BucketFor categorizes an expiry relative to now.
func BucketFor(expiry, now time.Time) ExpiryBucket {
	d := expiry.Sub(now)
	switch {
	case d <= 0:
		return BucketExpired
	case d <= time.Hour:
		return BucketHourly
	case d <= 24*time.Hour:
		return BucketDaily
	case d <= 7*24*time.Hour:
		return BucketWeekly
	case d <= 30*24*time.Hour:
		return BucketMonthly
	default:
		return BucketLater
	}
}

// FilterByBucket returns the pairs whose expiry falls in the given bucket.
func FilterByBucket(pairs []domain.BinaryPair, bucket ExpiryBucket, now time.Time) []domain.BinaryPair {
	var out []domain.BinaryPair
	for _, p := range pairs {
		if BucketFor(p.Expiry, now) == bucket {
			out = append(out, p)
		}
	}
	return out
}

// SortByExpiry orders pairs soonest-first in place. Equal expiries fall back
// to pair ID so the ordering is deterministic across passes.
func SortByExpiry(pairs []domain.BinaryPair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		if !pairs[i].Expiry.Equal(pairs[j].Expiry) {
			return pairs[i].Expiry.Before(pairs[j].Expiry)
		}
		return pairs[i].ID < pairs[j].ID
	})
}
