package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// Archiver implements domain.Archiver by writing JSON documents to object
// storage. Nothing reads these on the hot path; they exist for post-mortem
// diagnostics and market-history analysis.
//
// Key schema:
//
//	snapshots/{YYYY}/{MM}/{DD}/orders-{unix}.json
//	results/{wallet}/{unix}-{bundleID}.json
type Archiver struct {
	writer *Writer
	logger *slog.Logger
}

// NewArchiver creates an Archiver that uploads through the given writer.
func NewArchiver(writer *Writer, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// snapshotDoc is the stored form of one orderbook fetch.
type snapshotDoc struct {
	FetchedAt  time.Time       `json:"fetchedAt"`
	OrderCount int             `json:"orderCount"`
	Orders     []snapshotOrder `json:"orders"`
}

// snapshotOrder flattens a raw order for storage: big integers as decimal
// strings, signatures omitted because they are worthless after expiry and
// dominate the document size.
type snapshotOrder struct {
	Maker         string   `json:"maker"`
	PriceFeed     string   `json:"priceFeed"`
	IsCall        bool     `json:"isCall"`
	IsBinary      bool     `json:"isBinary"`
	Strikes       []string `json:"strikes"`
	Price         string   `json:"price"`
	MaxCollateral string   `json:"maxCollateral"`
	Expiry        int64    `json:"expiry"`
	OrderExpiry   int64    `json:"orderExpiry"`
}

// ArchiveSnapshot stores one orderbook fetch.
func (a *Archiver) ArchiveSnapshot(ctx context.Context, fetchedAt time.Time, orders []domain.RawOrder) error {
	doc := snapshotDoc{
		FetchedAt:  fetchedAt.UTC(),
		OrderCount: len(orders),
		Orders:     make([]snapshotOrder, 0, len(orders)),
	}
	for i := range orders {
		o := &orders[i]
		so := snapshotOrder{
			Maker:       o.Maker,
			PriceFeed:   o.PriceFeed,
			IsCall:      o.IsCall,
			IsBinary:    o.IsBinary,
			Strikes:     make([]string, 0, len(o.Strikes)),
			Expiry:      o.Expiry,
			OrderExpiry: o.OrderExpiry,
		}
		for _, s := range o.Strikes {
			so.Strikes = append(so.Strikes, s.String())
		}
		if o.Price != nil {
			so.Price = o.Price.String()
		}
		if o.MaxCollateral != nil {
			so.MaxCollateral = o.MaxCollateral.String()
		}
		doc.Orders = append(doc.Orders, so)
	}

	path := fmt.Sprintf("snapshots/%s/orders-%d.json",
		fetchedAt.UTC().Format("2006/01/02"), fetchedAt.Unix())
	return a.upload(ctx, path, doc)
}

// resultDoc is the stored form of one batch outcome.
type resultDoc struct {
	Wallet     string       `json:"wallet"`
	BundleID   string       `json:"bundleId"`
	Status     string       `json:"status"`
	TxHash     string       `json:"txHash,omitempty"`
	Err        string       `json:"error,omitempty"`
	ArchivedAt time.Time    `json:"archivedAt"`
	Items      []resultItem `json:"items"`
}

type resultItem struct {
	PairID       string `json:"pairId"`
	Side         string `json:"side"`
	Question     string `json:"question"`
	USDCAmount   string `json:"usdcAmount"`
	NumContracts string `json:"numContracts"`
}

// ArchiveResult stores the outcome of one batch submission alongside the
// items it carried.
func (a *Archiver) ArchiveResult(ctx context.Context, wallet string, result domain.BatchExecutionResult, items []domain.CartItem) error {
	now := time.Now().UTC()
	doc := resultDoc{
		Wallet:     wallet,
		BundleID:   result.BundleID,
		Status:     string(result.Status),
		TxHash:     result.TxHash,
		Err:        result.Err,
		ArchivedAt: now,
		Items:      make([]resultItem, 0, len(items)),
	}
	for i := range items {
		item := &items[i]
		ri := resultItem{
			PairID:   item.PairID,
			Side:     string(item.Side),
			Question: item.Question,
		}
		if item.USDCAmount != nil {
			ri.USDCAmount = item.USDCAmount.String()
		}
		if item.NumContracts != nil {
			ri.NumContracts = item.NumContracts.String()
		}
		doc.Items = append(doc.Items, ri)
	}

	bundleID := result.BundleID
	if bundleID == "" {
		bundleID = "unsubmitted"
	}
	path := fmt.Sprintf("results/%s/%d-%s.json", wallet, now.Unix(), bundleID)
	return a.upload(ctx, path, doc)
}

func (a *Archiver) upload(ctx context.Context, path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal archive %s: %w", path, err)
	}

	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return err
	}
	a.logger.Debug("archived", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
