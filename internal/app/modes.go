package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/strikelabs/strikedesk/internal/domain"
	"github.com/strikelabs/strikedesk/internal/feed"
	"github.com/strikelabs/strikedesk/internal/orders"
)

// PairsMode runs a single pairing pass and prints the resulting markets,
// soonest expiry first.
func (a *App) PairsMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting pairs mode")

	pairs, err := deps.Markets.RefreshPairs(ctx, "")
	if err != nil {
		return fmt.Errorf("app: pairing pass: %w", err)
	}
	orders.SortByExpiry(pairs)
	renderPairs(os.Stdout, pairs)
	return nil
}

// WatchMode keeps the pairing view current: it follows the orderbook
// notification WebSocket and re-pairs on every update, with a periodic full
// refresh as fallback. It blocks until the context is cancelled.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode",
		slog.String("ws_host", a.cfg.Orderbook.WsHost),
	)

	g, ctx := errgroup.WithContext(ctx)

	onRefresh := func(ctx context.Context, underlying string) {
		if _, err := deps.Markets.RefreshPairs(ctx, underlying); err != nil {
			a.logger.WarnContext(ctx, "pairing refresh failed",
				slog.String("underlying", underlying),
				slog.String("error", err.Error()),
			)
		}
	}
	onSpot := func(ctx context.Context, symbol string, price float64) {
		err := deps.Spots.SetPrices(ctx, map[string]float64{symbol: price}, time.Now().UTC())
		if err != nil {
			a.logger.WarnContext(ctx, "spot cache write failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	refreshFeed := feed.NewRefreshFeed(
		a.cfg.Orderbook.WsHost,
		orders.Underlyings(),
		a.cfg.Orderbook.RefreshInterval.Duration,
		onRefresh,
		onSpot,
		a.logger,
	)
	g.Go(func() error {
		defer refreshFeed.Close()
		return refreshFeed.Run(ctx)
	})

	return g.Wait()
}

// ExecuteMode submits the wallet's cart as one atomic batch and reports the
// outcome. The status callback surfaces every state transition while the
// batch is in flight.
func (a *App) ExecuteMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting execute mode",
		slog.String("wallet", deps.Wallet),
	)

	items, err := deps.Cart.List(ctx, deps.Wallet)
	if err != nil {
		return fmt.Errorf("app: load cart: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("cart is empty, nothing to execute")
		return nil
	}
	for _, item := range items {
		fmt.Printf("  %-6s $%-8.2f %s\n", item.Side, item.BetUSD, item.Question)
	}

	onStatus := func(s domain.BatchStatus) {
		fmt.Printf("status: %s\n", s)
	}

	result, err := deps.Trades.ExecuteCart(ctx, deps.Wallet, onStatus)
	if err != nil {
		return fmt.Errorf("app: execute cart: %w", err)
	}

	switch result.Status {
	case domain.BatchConfirmed:
		fmt.Printf("confirmed: bundle %s tx %s\n", result.BundleID, result.TxHash)
	case domain.BatchRejected:
		fmt.Println("wallet declined the batch, cart left untouched")
	case domain.BatchTimeout:
		fmt.Printf("confirmation timed out; check your wallet for bundle %s\n", result.BundleID)
	default:
		fmt.Printf("batch %s: %s (%s)\n", result.BundleID, result.Status, result.Err)
	}
	return nil
}

// renderPairs prints one line per market with leg prices and the implied
// yes probability.
func renderPairs(w *os.File, pairs []domain.BinaryPair) {
	if len(pairs) == 0 {
		fmt.Fprintln(w, "no binary pairs available")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPIRY\tQUESTION\tYES\tNO\tSPOT")
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s\t%s\t$%.2f (%.0f%%)\t$%.2f\t$%.2f\n",
			p.Expiry.UTC().Format("Jan 02 15:04"),
			p.Question,
			p.Yes.Parsed.Price, p.Yes.Probability,
			p.No.Parsed.Price,
			p.Spot,
		)
	}
	tw.Flush()
}
