package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/strikelabs/strikedesk/internal/domain"
	"github.com/strikelabs/strikedesk/internal/executor"
	"github.com/strikelabs/strikedesk/internal/notify"
)

// batchLockTTL bounds how long a crashed process can block a wallet's next
// batch. Comfortably above the executor's worst-case confirmation wait.
const batchLockTTL = 5 * time.Minute

// FillRecorder mirrors confirmed fills to the positions API. Optional and
// best effort.
type FillRecorder interface {
	RecordFill(ctx context.Context, fill domain.Fill) error
}

// TradeService drives batch execution: it takes a wallet's cart through the
// executor under a per-wallet lock, then records the outcome everywhere it
// needs to go.
type TradeService struct {
	cart     domain.CartStore
	exec     *executor.Executor
	locks    domain.LockManager
	fills    domain.FillStore
	recorder FillRecorder    // optional
	archiver domain.Archiver // optional
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewTradeService creates a TradeService. recorder and archiver may be nil.
func NewTradeService(
	cart domain.CartStore,
	exec *executor.Executor,
	locks domain.LockManager,
	fills domain.FillStore,
	recorder FillRecorder,
	archiver domain.Archiver,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *TradeService {
	return &TradeService{
		cart:     cart,
		exec:     exec,
		locks:    locks,
		fills:    fills,
		recorder: recorder,
		archiver: archiver,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "trade_service")),
	}
}

// ExecuteCart submits the wallet's entire cart as one atomic batch. Only one
// batch per wallet may be in flight; a concurrent call returns
// ErrBatchInFlight. On confirmation the cart is cleared and each item is
// recorded as a fill.
func (s *TradeService) ExecuteCart(ctx context.Context, wallet string, onStatus executor.StatusFunc) (domain.BatchExecutionResult, error) {
	unlock, err := s.locks.Acquire(ctx, "batch:"+wallet, batchLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return domain.BatchExecutionResult{}, fmt.Errorf("trade_service: wallet %s: %w", wallet, domain.ErrBatchInFlight)
		}
		return domain.BatchExecutionResult{}, fmt.Errorf("trade_service: acquire batch lock: %w", err)
	}
	defer unlock()

	items, err := s.cart.List(ctx, wallet)
	if err != nil {
		return domain.BatchExecutionResult{}, fmt.Errorf("trade_service: load cart: %w", err)
	}

	result, err := s.exec.Execute(ctx, wallet, items, onStatus)
	if err != nil {
		return result, err
	}

	s.finish(ctx, wallet, result, items)
	return result, nil
}

// finish handles all post-submission bookkeeping. Everything here is best
// effort: the batch already reached its terminal state on-chain and a
// bookkeeping failure must not turn a confirmed batch into an error.
func (s *TradeService) finish(ctx context.Context, wallet string, result domain.BatchExecutionResult, items []domain.CartItem) {
	if result.Status == domain.BatchConfirmed {
		s.recordFills(ctx, wallet, result, items)

		if err := s.cart.Clear(ctx, wallet); err != nil {
			s.logger.WarnContext(ctx, "cart clear after confirmation failed",
				slog.String("wallet", wallet),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveResult(ctx, wallet, result, items); err != nil {
			s.logger.WarnContext(ctx, "result archive failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if s.notifier != nil {
		if err := notify.BatchOutcome(ctx, s.notifier, wallet, result, items); err != nil {
			s.logger.WarnContext(ctx, "batch notification failed",
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "batch finished",
		slog.String("wallet", wallet),
		slog.String("status", string(result.Status)),
		slog.String("bundle_id", result.BundleID),
	)
}

func (s *TradeService) recordFills(ctx context.Context, wallet string, result domain.BatchExecutionResult, items []domain.CartItem) {
	now := time.Now().UTC()
	for i := range items {
		item := &items[i]
		fill := domain.Fill{
			ID:           uuid.New().String(),
			Wallet:       wallet,
			PairID:       item.PairID,
			Side:         item.Side,
			Question:     item.Question,
			BetUSD:       item.BetUSD,
			USDCAmount:   item.USDCAmount,
			NumContracts: item.NumContracts,
			BundleID:     result.BundleID,
			TxHash:       result.TxHash,
			FilledAt:     now,
		}

		if err := s.fills.Insert(ctx, fill); err != nil {
			s.logger.WarnContext(ctx, "fill store insert failed",
				slog.String("pair", item.PairID),
				slog.String("error", err.Error()),
			)
		}
		if s.recorder != nil {
			if err := s.recorder.RecordFill(ctx, fill); err != nil {
				s.logger.WarnContext(ctx, "positions record failed",
					slog.String("pair", item.PairID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// History returns a wallet's recorded fills, newest first.
func (s *TradeService) History(ctx context.Context, wallet string, limit int) ([]domain.Fill, error) {
	fills, err := s.fills.ListByWallet(ctx, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("trade_service: history: %w", err)
	}
	return fills, nil
}
