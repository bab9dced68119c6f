package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// FillStore implements domain.FillStore using PostgreSQL. Amounts move
// through the driver as decimal strings against NUMERIC(78,0) columns so a
// full uint256 survives the round trip.
type FillStore struct {
	pool *pgxpool.Pool
}

// NewFillStore creates a FillStore backed by the given connection pool.
func NewFillStore(pool *pgxpool.Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Insert records one confirmed fill. A zero ID gets a fresh UUID.
func (s *FillStore) Insert(ctx context.Context, fill domain.Fill) error {
	if fill.ID == "" {
		fill.ID = uuid.New().String()
	}

	const query = `
		INSERT INTO fills (
			id, wallet, pair_id, side, question, bet_usd,
			usdc_amount, num_contracts, bundle_id, tx_hash, filled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		fill.ID, fill.Wallet, fill.PairID, string(fill.Side), fill.Question,
		fill.BetUSD, fill.USDCAmount.String(), fill.NumContracts.String(),
		fill.BundleID, fill.TxHash, fill.FilledAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert fill %s: %w", fill.PairID, err)
	}
	return nil
}

// ListByWallet returns a wallet's fills, newest first. limit <= 0 means no
// limit.
func (s *FillStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.Fill, error) {
	query := `
		SELECT id, wallet, pair_id, side, question, bet_usd,
			usdc_amount::text, num_contracts::text, bundle_id, tx_hash, filled_at
		FROM fills WHERE wallet = $1 ORDER BY filled_at DESC`
	args := []any{wallet}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fills: %w", err)
	}
	defer rows.Close()

	var fills []domain.Fill
	for rows.Next() {
		var (
			f         domain.Fill
			side      string
			usdc      string
			contracts string
		)
		if err := rows.Scan(
			&f.ID, &f.Wallet, &f.PairID, &side, &f.Question, &f.BetUSD,
			&usdc, &contracts, &f.BundleID, &f.TxHash, &f.FilledAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan fill: %w", err)
		}
		f.Side = domain.BetSide(side)

		var ok bool
		if f.USDCAmount, ok = new(big.Int).SetString(usdc, 10); !ok {
			return nil, fmt.Errorf("postgres: fill %s has malformed usdc_amount %q", f.ID, usdc)
		}
		if f.NumContracts, ok = new(big.Int).SetString(contracts, 10); !ok {
			return nil, fmt.Errorf("postgres: fill %s has malformed num_contracts %q", f.ID, contracts)
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// CountSince returns the number of fills for a wallet at or after since.
func (s *FillStore) CountSince(ctx context.Context, wallet string, since time.Time) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM fills WHERE wallet = $1 AND filled_at >= $2",
		wallet, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count fills: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.FillStore = (*FillStore)(nil)
