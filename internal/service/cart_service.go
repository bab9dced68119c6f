package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/strikelabs/strikedesk/internal/domain"
	"github.com/strikelabs/strikedesk/internal/txbuild"
)

// PairSource resolves market pairs for cart building.
type PairSource interface {
	GetPair(ctx context.Context, id string) (domain.BinaryPair, error)
}

// CartService builds transaction payloads and manages the persistent cart.
// Payloads are encoded at add time, so an item is executable even after the
// maker's order has left the book, until its expiry.
type CartService struct {
	pairs  PairSource
	store  domain.CartStore
	logger *slog.Logger
}

// NewCartService creates a CartService.
func NewCartService(pairs PairSource, store domain.CartStore, logger *slog.Logger) *CartService {
	return &CartService{
		pairs:  pairs,
		store:  store,
		logger: logger.With(slog.String("component", "cart_service")),
	}
}

// Add builds a fill payload for betUSD on one side of a pair and saves it to
// the wallet's cart. It returns the saved item.
func (s *CartService) Add(ctx context.Context, wallet, pairID string, side domain.BetSide, betUSD float64) (domain.CartItem, error) {
	pair, err := s.pairs.GetPair(ctx, pairID)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("cart_service: resolve pair %s: %w", pairID, err)
	}

	result, err := txbuild.BuildFillPayload(pair, side, betUSD, wallet)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("cart_service: build payload: %w", err)
	}

	if err := s.store.Save(ctx, wallet, result.Item); err != nil {
		return domain.CartItem{}, fmt.Errorf("cart_service: save item: %w", err)
	}

	s.logger.InfoContext(ctx, "added to cart",
		slog.String("wallet", wallet),
		slog.String("pair", pairID),
		slog.String("side", string(side)),
		slog.Float64("bet_usd", betUSD),
	)
	return result.Item, nil
}

// List returns the wallet's cart in insertion order.
func (s *CartService) List(ctx context.Context, wallet string) ([]domain.CartItem, error) {
	items, err := s.store.List(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("cart_service: list: %w", err)
	}
	return items, nil
}

// Remove deletes one item from the wallet's cart.
func (s *CartService) Remove(ctx context.Context, wallet, itemID string) error {
	if err := s.store.Delete(ctx, wallet, itemID); err != nil {
		return fmt.Errorf("cart_service: remove %s: %w", itemID, err)
	}
	return nil
}

// Clear empties the wallet's cart.
func (s *CartService) Clear(ctx context.Context, wallet string) error {
	if err := s.store.Clear(ctx, wallet); err != nil {
		return fmt.Errorf("cart_service: clear: %w", err)
	}
	return nil
}
