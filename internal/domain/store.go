package domain

import (
	"context"
	"time"
)

// CartStore persists cart items between sessions, keyed by wallet address.
// Implementations must round-trip big-integer fields exactly.
type CartStore interface {
	Save(ctx context.Context, wallet string, item CartItem) error
	List(ctx context.Context, wallet string) ([]CartItem, error)
	Delete(ctx context.Context, wallet, itemID string) error
	Clear(ctx context.Context, wallet string) error
}

// FillStore persists confirmed fills.
type FillStore interface {
	Insert(ctx context.Context, fill Fill) error
	ListByWallet(ctx context.Context, wallet string, limit int) ([]Fill, error)
	CountSince(ctx context.Context, wallet string, since time.Time) (int64, error)
}
