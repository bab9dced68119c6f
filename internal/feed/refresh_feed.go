// Package feed keeps the pairing view current: it listens on the orderbook
// WebSocket for change notifications and triggers re-fetch/re-pair passes.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
	"github.com/strikelabs/strikedesk/internal/platform/orderbook"
)

const (
	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// RefreshHandler is invoked when the book for an underlying changed. Empty
// underlying means the whole book should be refreshed.
type RefreshHandler func(ctx context.Context, underlying string)

// SpotHandler is invoked for every spot price tick.
type SpotHandler func(ctx context.Context, symbol string, price float64)

// RefreshFeed connects to the orderbook notification WebSocket, subscribes
// to order and spot channels for the given underlyings, and invokes the
// handlers on each frame. It reconnects with exponential backoff and also
// fires the refresh handler on a fixed interval as a fallback for missed
// notifications.
type RefreshFeed struct {
	wsURL       string
	underlyings []string
	interval    time.Duration
	onRefresh   RefreshHandler
	onSpot      SpotHandler
	logger      *slog.Logger
	closeOnce   sync.Once
	done        chan struct{}
}

// NewRefreshFeed creates a feed for the given underlyings. interval is the
// periodic fallback refresh; zero disables it.
func NewRefreshFeed(wsURL string, underlyings []string, interval time.Duration, onRefresh RefreshHandler, onSpot SpotHandler, logger *slog.Logger) *RefreshFeed {
	return &RefreshFeed{
		wsURL:       wsURL,
		underlyings: underlyings,
		interval:    interval,
		onRefresh:   onRefresh,
		onSpot:      onSpot,
		logger:      logger.With(slog.String("component", "refresh_feed")),
		done:        make(chan struct{}),
	}
}

// Run connects and runs until ctx is cancelled or Close is called. The
// periodic fallback ticker runs independently of connection state, so a
// flapping WebSocket degrades to polling rather than staleness.
func (f *RefreshFeed) Run(ctx context.Context) error {
	if f.interval > 0 {
		go f.tickLoop(ctx)
	}

	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("orderbook ws disconnected, reconnecting",
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (f *RefreshFeed) runConnection(ctx context.Context) error {
	client := orderbook.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnOrdersUpdate(func(underlying string) {
		if f.onRefresh != nil {
			f.onRefresh(ctx, underlying)
		}
	})
	client.OnSpotPrice(func(symbol string, price float64) {
		if f.onSpot != nil {
			f.onSpot(ctx, symbol, price)
		}
	})

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}
	if err := client.Subscribe(ctx, []string{"orders", "spot"}, f.underlyings); err != nil {
		return err
	}
	f.logger.Info("orderbook ws subscribed", slog.Int("underlyings", len(f.underlyings)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return nil
	case <-client.Disconnected():
		return fmt.Errorf("feed: connection lost: %w", domain.ErrWSDisconnect)
	}
}

func (f *RefreshFeed) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case <-ticker.C:
			if f.onRefresh != nil {
				f.onRefresh(ctx, "")
			}
		}
	}
}

// Close stops the feed.
func (f *RefreshFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
