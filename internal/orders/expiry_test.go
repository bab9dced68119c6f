package orders

import (
	"testing"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

func TestFilterByBucket(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	pairs := []domain.BinaryPair{
		{ID: "soon", Expiry: now.Add(30 * time.Minute)},
		{ID: "today", Expiry: now.Add(6 * time.Hour)},
		{ID: "gone", Expiry: now.Add(-time.Hour)},
	}

	got := FilterByBucket(pairs, BucketHourly, now)
	if len(got) != 1 || got[0].ID != "soon" {
		t.Fatalf("hourly filter: %+v", got)
	}

	if got := FilterByBucket(pairs, BucketExpired, now); len(got) != 1 || got[0].ID != "gone" {
		t.Fatalf("expired filter: %+v", got)
	}

	if got := FilterByBucket(pairs, BucketWeekly, now); len(got) != 0 {
		t.Fatalf("weekly filter should be empty, got %+v", got)
	}
}
