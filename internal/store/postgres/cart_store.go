package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// CartStore implements domain.CartStore using PostgreSQL. The item itself is
// stored as JSONB in the cart item's canonical serialization, so the big
// integer fields round-trip exactly; the extracted columns exist only for
// indexing.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore creates a CartStore backed by the given connection pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Save upserts one cart item for a wallet.
func (s *CartStore) Save(ctx context.Context, wallet string, item domain.CartItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("postgres: marshal cart item %s: %w", item.ID, err)
	}

	const query = `
		INSERT INTO cart_items (wallet, id, pair_id, side, item, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wallet, id) DO UPDATE SET
			pair_id = EXCLUDED.pair_id,
			side = EXCLUDED.side,
			item = EXCLUDED.item`

	_, err = s.pool.Exec(ctx, query,
		wallet, item.ID, item.PairID, string(item.Side), data, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save cart item %s: %w", item.ID, err)
	}
	return nil
}

// List returns a wallet's cart items in insertion order.
func (s *CartStore) List(ctx context.Context, wallet string) ([]domain.CartItem, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT item FROM cart_items WHERE wallet = $1 ORDER BY created_at, id", wallet)
	if err != nil {
		return nil, fmt.Errorf("postgres: list cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("postgres: scan cart item: %w", err)
		}
		var item domain.CartItem
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes one cart item. Deleting an absent item is not an error.
func (s *CartStore) Delete(ctx context.Context, wallet, itemID string) error {
	_, err := s.pool.Exec(ctx,
		"DELETE FROM cart_items WHERE wallet = $1 AND id = $2", wallet, itemID)
	if err != nil {
		return fmt.Errorf("postgres: delete cart item %s: %w", itemID, err)
	}
	return nil
}

// Clear removes every cart item for a wallet.
func (s *CartStore) Clear(ctx context.Context, wallet string) error {
	_, err := s.pool.Exec(ctx,
		"DELETE FROM cart_items WHERE wallet = $1", wallet)
	if err != nil {
		return fmt.Errorf("postgres: clear cart for %s: %w", wallet, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.CartStore = (*CartStore)(nil)
