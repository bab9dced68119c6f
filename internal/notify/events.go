package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// Event types emitted by the trade service. The notifier's allow-list in the
// config filters on these names.
const (
	EventBatchConfirmed = "batch_confirmed"
	EventBatchFailed    = "batch_failed"
	EventBatchTimeout   = "batch_timeout"
	EventError          = "error"
)

// BatchOutcome notifies about one finished batch submission. Rejections are
// deliberate user actions and produce no notification.
func BatchOutcome(ctx context.Context, n *Notifier, wallet string, result domain.BatchExecutionResult, items []domain.CartItem) error {
	var event, title string
	switch result.Status {
	case domain.BatchConfirmed:
		event = EventBatchConfirmed
		title = fmt.Sprintf("Batch confirmed (%d positions)", len(items))
	case domain.BatchFailed:
		event = EventBatchFailed
		title = "Batch failed"
	case domain.BatchTimeout:
		event = EventBatchTimeout
		title = "Batch confirmation timed out"
	default:
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "wallet: %s\n", wallet)
	if result.BundleID != "" {
		fmt.Fprintf(&b, "bundle: %s\n", result.BundleID)
	}
	if result.TxHash != "" {
		fmt.Fprintf(&b, "tx: %s\n", result.TxHash)
	}
	if result.Err != "" {
		fmt.Fprintf(&b, "note: %s\n", result.Err)
	}
	for i := range items {
		fmt.Fprintf(&b, "- %s %s ($%.2f)\n", items[i].Side, items[i].Question, items[i].BetUSD)
	}

	return n.Notify(ctx, event, title, b.String())
}
