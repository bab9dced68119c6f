package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
	"github.com/strikelabs/strikedesk/internal/orders"
	"github.com/strikelabs/strikedesk/internal/platform/orderbook"
)

// OrderFetcher is the slice of the orderbook client the market service needs.
type OrderFetcher interface {
	FetchOrders(ctx context.Context, underlying string) (orderbook.Snapshot, error)
}

// MarketService keeps the pairing view current: it fetches raw maker orders,
// runs the pairing engine, and caches the resulting markets for rendering
// and cart building.
type MarketService struct {
	fetcher  OrderFetcher
	pairs    domain.PairCache
	spots    domain.SpotCache
	archiver domain.Archiver // optional
	logger   *slog.Logger
}

// NewMarketService creates a MarketService. archiver may be nil.
func NewMarketService(
	fetcher OrderFetcher,
	pairs domain.PairCache,
	spots domain.SpotCache,
	archiver domain.Archiver,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		fetcher:  fetcher,
		pairs:    pairs,
		spots:    spots,
		archiver: archiver,
		logger:   logger.With(slog.String("component", "market_service")),
	}
}

// RefreshPairs runs one fetch-and-pair pass. underlying narrows the fetch to
// one symbol; empty refreshes everything. It returns the paired markets.
func (s *MarketService) RefreshPairs(ctx context.Context, underlying string) ([]domain.BinaryPair, error) {
	snap, err := s.fetcher.FetchOrders(ctx, underlying)
	if err != nil {
		return nil, fmt.Errorf("market_service: fetch orders: %w", err)
	}
	fetchedAt := time.Now().UTC()

	pairs, err := orders.PairBinaryOrders(snap.Orders, snap.Spots)
	if err != nil {
		return nil, fmt.Errorf("market_service: pair orders: %w", err)
	}

	if err := s.pairs.SetAll(ctx, pairs); err != nil {
		s.logger.WarnContext(ctx, "pair cache write failed",
			slog.String("error", err.Error()),
		)
		// Non-fatal: callers still get the freshly paired markets.
	}
	if len(snap.Spots) > 0 {
		if err := s.spots.SetPrices(ctx, snap.Spots, fetchedAt); err != nil {
			s.logger.WarnContext(ctx, "spot cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveSnapshot(ctx, fetchedAt, snap.Orders); err != nil {
			s.logger.WarnContext(ctx, "snapshot archive failed",
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "pairing pass complete",
		slog.Int("orders", len(snap.Orders)),
		slog.Int("pairs", len(pairs)),
	)
	return pairs, nil
}

// ListPairs returns the cached pairing view, refreshing it when the cache is
// stale or empty.
func (s *MarketService) ListPairs(ctx context.Context) ([]domain.BinaryPair, error) {
	pairs, err := s.pairs.List(ctx)
	if err == nil {
		return pairs, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("market_service: list pairs: %w", err)
	}
	return s.RefreshPairs(ctx, "")
}

// GetPair returns one cached pair by ID.
func (s *MarketService) GetPair(ctx context.Context, id string) (domain.BinaryPair, error) {
	pair, err := s.pairs.Get(ctx, id)
	if err != nil {
		return domain.BinaryPair{}, fmt.Errorf("market_service: get pair %s: %w", id, err)
	}
	return pair, nil
}

// SpotPrice returns the latest cached spot price for a symbol.
func (s *MarketService) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := s.spots.GetPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("market_service: spot %s: %w", symbol, err)
	}
	return price, nil
}
