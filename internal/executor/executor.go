// Package executor aggregates cart items into a single atomic EIP-5792 call
// batch, submits it through the wallet provider, and polls the bundler for
// confirmation.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// WalletProvider is the interface through which the executor submits batches.
// Implemented by chain.Provider.
type WalletProvider interface {
	SendCalls(ctx context.Context, req domain.BatchRequest) (string, error)
	CallsStatus(ctx context.Context, bundleID string) (domain.CallsStatus, error)
}

// ChainReader supplies the pre-flight chain state reads.
// Implemented by chain.Reader.
type ChainReader interface {
	BalanceOf(ctx context.Context, token, owner string) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
	EstimateGas(ctx context.Context, from string, call domain.Call) (uint64, error)
}

// ApproveEncoder packs the conditional approve call. Split out so tests can
// run without the ABI machinery.
type ApproveEncoder func(spender string, amount *big.Int) ([]byte, error)

// StatusFunc receives every state transition so callers can render progress.
// Transitions are strictly forward; the executor never re-enters an earlier
// state.
type StatusFunc func(domain.BatchStatus)

// Config tunes one executor instance.
type Config struct {
	ChainID         int64
	USDCAddress     string
	ProtocolAddress string
	PaymasterURL    string // empty disables gas sponsorship
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Executor submits cart items as one all-or-nothing batch. It is a
// single-invocation procedure: each Execute call is independent, and the
// caller is responsible for not running two batches concurrently against the
// same allowance state.
type Executor struct {
	provider WalletProvider
	reader   ChainReader
	encode   ApproveEncoder
	cfg      Config
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates an Executor. Zero PollInterval/MaxPollAttempts fall back to
// 2s / 60 attempts, about two minutes of waiting.
func New(provider WalletProvider, reader ChainReader, encode ApproveEncoder, cfg Config, logger *slog.Logger) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 60
	}
	return &Executor{
		provider: provider,
		reader:   reader,
		encode:   encode,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "executor")),
	}
}

// Execute runs the full pipeline for one batch: validate, read chain state,
// build the call list, submit, and wait for confirmation. Validation and
// balance failures abort before anything irreversible; after submission the
// result always carries the bundle ID so the user can investigate even on
// timeout or failure.
//
// A declined wallet prompt returns a REJECTED result with a nil error: it is
// an outcome, not a fault.
func (e *Executor) Execute(ctx context.Context, wallet string, items []domain.CartItem, onStatus StatusFunc) (domain.BatchExecutionResult, error) {
	report := func(s domain.BatchStatus) {
		if onStatus != nil {
			onStatus(s)
		}
	}

	report(domain.BatchPreparing)

	if len(items) == 0 {
		return fail(""), fmt.Errorf("executor: %w", domain.ErrEmptyBatch)
	}

	now := e.clock()
	for _, item := range items {
		if !item.Expiry.After(now) {
			return fail(""), fmt.Errorf("executor: market %q option expired: %w", item.Question, domain.ErrExpiredOrder)
		}
		if !item.OrderExpiry.After(now) {
			return fail(""), fmt.Errorf("executor: market %q maker offer expired: %w", item.Question, domain.ErrExpiredOrder)
		}
	}

	total := aggregateUSDC(items)

	report(domain.BatchCheckingBalance)

	balance, err := e.reader.BalanceOf(ctx, e.cfg.USDCAddress, wallet)
	if err != nil {
		return fail(""), fmt.Errorf("executor: read balance: %w", err)
	}
	if balance.Cmp(total) < 0 {
		return fail(""), fmt.Errorf("executor: need %s USDC but wallet holds %s: %w",
			formatUSDC(total), formatUSDC(balance), domain.ErrInsufficientBalance)
	}

	allowance, err := e.reader.Allowance(ctx, e.cfg.USDCAddress, wallet, e.cfg.ProtocolAddress)
	if err != nil {
		return fail(""), fmt.Errorf("executor: read allowance: %w", err)
	}

	needsApproval := allowance.Cmp(total) < 0
	calls, err := e.buildCalls(items, total, needsApproval)
	if err != nil {
		return fail(""), err
	}

	if needsApproval {
		report(domain.BatchApproving)
	}

	e.adviseGas(ctx, wallet, items, calls)

	report(domain.BatchExecuting)

	bundleID, err := e.provider.SendCalls(ctx, domain.BatchRequest{
		Version:        "2.0.0",
		From:           wallet,
		ChainID:        e.cfg.ChainID,
		Calls:          calls,
		AtomicRequired: true,
		PaymasterURL:   e.cfg.PaymasterURL,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserRejected) {
			e.logger.Info("batch declined in wallet", slog.String("wallet", wallet))
			return domain.BatchExecutionResult{Status: domain.BatchRejected}, nil
		}
		return fail(""), fmt.Errorf("executor: submit batch: %w", err)
	}

	report(domain.BatchConfirming)

	result := e.awaitConfirmation(ctx, bundleID)
	report(result.Status)
	return result, nil
}

// buildCalls assembles the atomic call list: the conditional approve first,
// then each fill in insertion order. Insertion order is preserved for
// per-leg diagnostics even though the batch itself is all-or-nothing.
func (e *Executor) buildCalls(items []domain.CartItem, total *big.Int, needsApproval bool) ([]domain.Call, error) {
	calls := make([]domain.Call, 0, len(items)+1)

	if needsApproval {
		data, err := e.encode(e.cfg.ProtocolAddress, total)
		if err != nil {
			return nil, fmt.Errorf("executor: encode approval: %w", err)
		}
		calls = append(calls, domain.Call{
			To:    e.cfg.USDCAddress,
			Value: big.NewInt(0),
			Data:  data,
		})
	}

	for _, item := range items {
		calls = append(calls, domain.Call{
			To:    item.Payload.To,
			Value: item.Payload.Value,
			Data:  item.Payload.Data,
		})
	}
	return calls, nil
}

// Gas headroom multipliers, in percent. PUT fills touch the settlement path
// that historically needs materially more headroom than CALL fills.
const (
	callGasHeadroomPct = 120
	putGasHeadroomPct  = 150
)

// adviseGas pre-estimates gas per fill to warn about likely failures. Purely
// advisory: an estimate failure never blocks submission, the execution
// environment is the final arbiter.
func (e *Executor) adviseGas(ctx context.Context, wallet string, items []domain.CartItem, calls []domain.Call) {
	offset := len(calls) - len(items) // skip the approval slot if present
	for i, item := range items {
		gas, err := e.reader.EstimateGas(ctx, wallet, calls[offset+i])
		if err != nil {
			e.logger.Warn("gas estimate failed, fill may revert",
				slog.String("pair", item.PairID),
				slog.String("error", err.Error()),
			)
			continue
		}
		pct := uint64(callGasHeadroomPct)
		if !item.IsCall {
			pct = putGasHeadroomPct
		}
		e.logger.Debug("gas estimate",
			slog.String("pair", item.PairID),
			slog.Uint64("estimate", gas),
			slog.Uint64("with_headroom", gas*pct/100),
		)
	}
}

// awaitConfirmation polls the bundle status at a fixed interval up to the
// attempt budget. Transient poll errors consume an attempt but do not abort;
// exhausting the budget is a timeout outcome, not a failure, because the
// batch may still confirm later.
func (e *Executor) awaitConfirmation(ctx context.Context, bundleID string) domain.BatchExecutionResult {
	result := domain.BatchExecutionResult{BundleID: bundleID}

	for attempt := 0; attempt < e.cfg.MaxPollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				result.Status = domain.BatchTimeout
				result.Err = "cancelled while confirming, check your wallet for the final status"
				return result
			case <-time.After(e.cfg.PollInterval):
			}
		}

		status, err := e.provider.CallsStatus(ctx, bundleID)
		if err != nil {
			e.logger.Warn("status poll failed, retrying",
				slog.String("bundle_id", bundleID),
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
			continue
		}

		switch {
		case status.Confirmed:
			result.Status = domain.BatchConfirmed
			if n := len(status.Receipts); n > 0 {
				// The last receipt corresponds to the final leg executed.
				result.TxHash = status.Receipts[n-1].TransactionHash
			}
			return result

		case status.Failed:
			result.Status = domain.BatchFailed
			result.Err = "batch reverted on-chain"
			if n := len(status.Receipts); n > 0 {
				result.TxHash = status.Receipts[n-1].TransactionHash
			}
			return result
		}
		// Still pending, keep polling.
	}

	result.Status = domain.BatchTimeout
	result.Err = fmt.Sprintf("no confirmation after %d attempts, check your wallet before resubmitting", e.cfg.MaxPollAttempts)
	return result
}

func (e *Executor) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now().UTC()
}

func aggregateUSDC(items []domain.CartItem) *big.Int {
	total := new(big.Int)
	for _, item := range items {
		if item.USDCAmount != nil {
			total.Add(total, item.USDCAmount)
		}
	}
	return total
}

func formatUSDC(n *big.Int) string {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(n), big.NewFloat(1e6)).Float64()
	return fmt.Sprintf("%.2f", f)
}

func fail(bundleID string) domain.BatchExecutionResult {
	return domain.BatchExecutionResult{BundleID: bundleID, Status: domain.BatchFailed}
}
