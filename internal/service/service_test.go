package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
	"github.com/strikelabs/strikedesk/internal/executor"
	"github.com/strikelabs/strikedesk/internal/platform/orderbook"
)

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type memCartStore struct {
	mu    sync.Mutex
	items map[string][]domain.CartItem
}

func newMemCartStore() *memCartStore {
	return &memCartStore{items: map[string][]domain.CartItem{}}
}

func (m *memCartStore) Save(_ context.Context, wallet string, item domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[wallet] = append(m.items[wallet], item)
	return nil
}

func (m *memCartStore) List(_ context.Context, wallet string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartItem(nil), m.items[wallet]...), nil
}

func (m *memCartStore) Delete(_ context.Context, wallet, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[wallet][:0]
	for _, it := range m.items[wallet] {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	m.items[wallet] = kept
	return nil
}

func (m *memCartStore) Clear(_ context.Context, wallet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, wallet)
	return nil
}

type memFillStore struct {
	mu    sync.Mutex
	fills []domain.Fill
}

func (m *memFillStore) Insert(_ context.Context, fill domain.Fill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fills = append(m.fills, fill)
	return nil
}

func (m *memFillStore) ListByWallet(_ context.Context, wallet string, _ int) ([]domain.Fill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Fill
	for _, f := range m.fills {
		if f.Wallet == wallet {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFillStore) CountSince(_ context.Context, wallet string, since time.Time) (int64, error) {
	fills, _ := m.ListByWallet(context.Background(), wallet, 0)
	var n int64
	for _, f := range fills {
		if !f.FilledAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type memLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLock() *memLock { return &memLock{held: map[string]bool{}} }

func (m *memLock) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, domain.ErrLockHeld
	}
	m.held[key] = true
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, key)
	}, nil
}

type memPairCache struct {
	mu    sync.Mutex
	pairs map[string]domain.BinaryPair
	order []string
}

func newMemPairCache() *memPairCache {
	return &memPairCache{pairs: map[string]domain.BinaryPair{}}
}

func (m *memPairCache) SetAll(_ context.Context, pairs []domain.BinaryPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = map[string]domain.BinaryPair{}
	m.order = m.order[:0]
	for _, p := range pairs {
		m.pairs[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return nil
}

func (m *memPairCache) Get(_ context.Context, id string) (domain.BinaryPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pairs[id]
	if !ok {
		return domain.BinaryPair{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memPairCache) List(_ context.Context) ([]domain.BinaryPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.order) == 0 {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.BinaryPair, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.pairs[id])
	}
	return out, nil
}

type memSpotCache struct {
	mu     sync.Mutex
	prices map[string]float64
}

func newMemSpotCache() *memSpotCache { return &memSpotCache{prices: map[string]float64{}} }

func (m *memSpotCache) SetPrices(_ context.Context, prices map[string]float64, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range prices {
		m.prices[k] = v
	}
	return nil
}

func (m *memSpotCache) GetPrice(_ context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[symbol]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return p, nil
}

// Executor fakes, aligned with the executor package interfaces.

type fakeProvider struct {
	status domain.BatchStatus
}

func (f *fakeProvider) SendCalls(context.Context, domain.BatchRequest) (string, error) {
	return "bundle-1", nil
}

func (f *fakeProvider) CallsStatus(context.Context, string) (domain.CallsStatus, error) {
	switch f.status {
	case domain.BatchFailed:
		return domain.CallsStatus{Failed: true}, nil
	default:
		return domain.CallsStatus{
			Confirmed: true,
			Receipts:  []domain.Receipt{{TransactionHash: "0xfff"}},
		}, nil
	}
}

type fakeReader struct{}

func (fakeReader) BalanceOf(context.Context, string, string) (*big.Int, error) {
	return big.NewInt(100_000_000), nil
}

func (fakeReader) Allowance(context.Context, string, string, string) (*big.Int, error) {
	return big.NewInt(100_000_000), nil
}

func (fakeReader) EstimateGas(context.Context, string, domain.Call) (uint64, error) {
	return 100000, nil
}

func newServiceExecutor(p *fakeProvider) *executor.Executor {
	encode := func(string, *big.Int) ([]byte, error) { return []byte{0x01}, nil }
	return executor.New(p, fakeReader{}, encode, executor.Config{
		ChainID:         8453,
		USDCAddress:     "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
		ProtocolAddress: "0x1dd6b1e38e52d226c335e1e250b59ed26e9df83a",
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	}, slog.Default())
}

const wallet = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"

func cartItem(id string) domain.CartItem {
	return domain.CartItem{
		ID:           id,
		PairID:       "ETH_3500_1767312000",
		Side:         domain.BetYes,
		Question:     "Will ETH be above $3,500 on Jan 2, 2026?",
		BetUSD:       4,
		USDCAmount:   big.NewInt(4_000_000),
		NumContracts: big.NewInt(8_000_000),
		Expiry:       time.Now().Add(time.Hour),
		OrderExpiry:  time.Now().Add(time.Hour),
		Payload: domain.TransactionPayload{
			To:    "0x1dd6b1e38e52d226c335e1e250b59ed26e9df83a",
			Value: big.NewInt(0),
			Data:  []byte{0x01},
		},
		CreatedAt: time.Now(),
	}
}

// ---------------------------------------------------------------------------
// TradeService
// ---------------------------------------------------------------------------

func TestExecuteCartConfirmedClearsCartAndRecordsFills(t *testing.T) {
	cart := newMemCartStore()
	fills := &memFillStore{}
	svc := NewTradeService(cart, newServiceExecutor(&fakeProvider{}), newMemLock(), fills, nil, nil, nil, slog.Default())

	cart.Save(context.Background(), wallet, cartItem("a"))
	cart.Save(context.Background(), wallet, cartItem("b"))

	res, err := svc.ExecuteCart(context.Background(), wallet, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Status != domain.BatchConfirmed {
		t.Fatalf("status: %s", res.Status)
	}

	left, _ := cart.List(context.Background(), wallet)
	if len(left) != 0 {
		t.Errorf("cart must be cleared after confirmation, %d left", len(left))
	}

	got, _ := fills.ListByWallet(context.Background(), wallet, 0)
	if len(got) != 2 {
		t.Fatalf("fills: got %d want 2", len(got))
	}
	if got[0].BundleID != "bundle-1" || got[0].TxHash != "0xfff" {
		t.Errorf("fill provenance: %+v", got[0])
	}
}

func TestExecuteCartFailureKeepsCart(t *testing.T) {
	cart := newMemCartStore()
	fills := &memFillStore{}
	svc := NewTradeService(cart, newServiceExecutor(&fakeProvider{status: domain.BatchFailed}), newMemLock(), fills, nil, nil, nil, slog.Default())

	cart.Save(context.Background(), wallet, cartItem("a"))

	res, err := svc.ExecuteCart(context.Background(), wallet, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Status != domain.BatchFailed {
		t.Fatalf("status: %s", res.Status)
	}

	left, _ := cart.List(context.Background(), wallet)
	if len(left) != 1 {
		t.Error("failed batch must not clear the cart")
	}
	got, _ := fills.ListByWallet(context.Background(), wallet, 0)
	if len(got) != 0 {
		t.Error("failed batch must not record fills")
	}
}

func TestExecuteCartSingleFlight(t *testing.T) {
	cart := newMemCartStore()
	locks := newMemLock()
	svc := NewTradeService(cart, newServiceExecutor(&fakeProvider{}), locks, &memFillStore{}, nil, nil, nil, slog.Default())

	// Simulate another process holding the wallet's batch lock.
	unlock, err := locks.Acquire(context.Background(), "batch:"+wallet, time.Minute)
	if err != nil {
		t.Fatalf("pre-acquire: %v", err)
	}
	defer unlock()

	_, err = svc.ExecuteCart(context.Background(), wallet, nil)
	if !errors.Is(err, domain.ErrBatchInFlight) {
		t.Fatalf("got %v", err)
	}
}

// ---------------------------------------------------------------------------
// MarketService
// ---------------------------------------------------------------------------

type fakeFetcher struct {
	snap  orderbook.Snapshot
	calls int
}

func (f *fakeFetcher) FetchOrders(context.Context, string) (orderbook.Snapshot, error) {
	f.calls++
	return f.snap, nil
}

func binarySnapshot() orderbook.Snapshot {
	call := domain.RawOrder{
		Maker:           "0x1111111111111111111111111111111111111111",
		OrderExpiry:     1767312000,
		CollateralToken: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
		IsCall:          true,
		PriceFeed:       "0x71041dddad3595f9ced3dccfbe3d1f4b0a16bb70",
		MaxCollateral:   big.NewInt(10_000_000),
		Strikes:         []*big.Int{big.NewInt(300_000_000_000), big.NewInt(350_000_000_000)},
		Expiry:          1767312000,
		Price:           big.NewInt(50_000_000),
		NumContracts:    big.NewInt(0),
		IsBinary:        true,
	}
	put := call
	put.Maker = "0x2222222222222222222222222222222222222222"
	put.IsCall = false
	put.Strikes = []*big.Int{big.NewInt(350_000_000_000), big.NewInt(400_000_000_000)}

	return orderbook.Snapshot{
		Orders: []domain.RawOrder{call, put},
		Spots:  map[string]float64{"ETH": 3412.55},
	}
}

func TestRefreshPairsPopulatesCaches(t *testing.T) {
	fetcher := &fakeFetcher{snap: binarySnapshot()}
	pairs := newMemPairCache()
	spots := newMemSpotCache()
	svc := NewMarketService(fetcher, pairs, spots, nil, slog.Default())

	got, err := svc.RefreshPairs(context.Background(), "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("pairs: got %d want 1", len(got))
	}

	cached, err := svc.GetPair(context.Background(), got[0].ID)
	if err != nil {
		t.Fatalf("get pair: %v", err)
	}
	if cached.ID != got[0].ID {
		t.Errorf("cached pair: %s", cached.ID)
	}

	price, err := svc.SpotPrice(context.Background(), "ETH")
	if err != nil || price != 3412.55 {
		t.Errorf("spot: %v, %v", price, err)
	}
}

func TestListPairsRefreshesWhenCacheEmpty(t *testing.T) {
	fetcher := &fakeFetcher{snap: binarySnapshot()}
	svc := NewMarketService(fetcher, newMemPairCache(), newMemSpotCache(), nil, slog.Default())

	got, err := svc.ListPairs(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || fetcher.calls != 1 {
		t.Fatalf("got %d pairs after %d fetches", len(got), fetcher.calls)
	}

	// Second list hits the cache.
	if _, err := svc.ListPairs(context.Background()); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("cache hit must not refetch, fetches=%d", fetcher.calls)
	}
}

// ---------------------------------------------------------------------------
// CartService
// ---------------------------------------------------------------------------

func TestCartServiceAdd(t *testing.T) {
	fetcher := &fakeFetcher{snap: binarySnapshot()}
	pairs := newMemPairCache()
	markets := NewMarketService(fetcher, pairs, newMemSpotCache(), nil, slog.Default())
	paired, err := markets.RefreshPairs(context.Background(), "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	store := newMemCartStore()
	cart := NewCartService(markets, store, slog.Default())

	item, err := cart.Add(context.Background(), wallet, paired[0].ID, domain.BetYes, 4)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.USDCAmount.Int64() != 4_000_000 {
		t.Errorf("usdc: %s", item.USDCAmount)
	}
	if item.NumContracts.Int64() != 8_000_000 {
		t.Errorf("contracts: %s", item.NumContracts)
	}

	listed, _ := cart.List(context.Background(), wallet)
	if len(listed) != 1 || listed[0].ID != item.ID {
		t.Errorf("listed: %+v", listed)
	}

	if err := cart.Remove(context.Background(), wallet, item.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	listed, _ = cart.List(context.Background(), wallet)
	if len(listed) != 0 {
		t.Error("cart not emptied")
	}

	_, err = cart.Add(context.Background(), wallet, "missing_pair", domain.BetYes, 4)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing pair: %v", err)
	}
}
