package orders

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// pairInput builds a CALL at (boundary-width, boundary) and a PUT at
// (boundary, boundary+width), the complementary shape the pairing engine
// expects. Values are human units; strikes are stored 1e8-scaled.
func pairInput(boundary, width int64, expiry int64) (call, put domain.RawOrder) {
	call = binaryOrder(true, (boundary-width)*1e8, boundary*1e8)
	call.Expiry = expiry
	put = binaryOrder(false, boundary*1e8, (boundary+width)*1e8)
	put.Expiry = expiry
	return call, put
}

func TestPairBinaryOrders(t *testing.T) {
	call, put := pairInput(3500, 1, 1767312000)
	pairs, err := PairBinaryOrders([]domain.RawOrder{call, put}, map[string]float64{"ETH": 3480.5})
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}

	p := pairs[0]
	if p.ID != "ETH_3500_1767312000" {
		t.Errorf("pair id: got %q", p.ID)
	}
	if !p.Yes.Raw.IsCall || p.No.Raw.IsCall {
		t.Error("yes must be the CALL, no the PUT")
	}
	if p.Boundary != 3500 {
		t.Errorf("boundary: got %v want 3500", p.Boundary)
	}
	// price 0.5, width 1 -> 50%.
	if p.Yes.Probability != 50 {
		t.Errorf("yes probability: got %v want 50", p.Yes.Probability)
	}
	if p.Spot != 3480.5 {
		t.Errorf("spot: got %v", p.Spot)
	}
	if p.Question != "Will ETH be above $3,500 on Jan 2, 2026?" {
		t.Errorf("question: got %q", p.Question)
	}
}

func TestPairingSkipsNonBinaryOrders(t *testing.T) {
	// Vanilla spreads can land on complementary strikes too; without the
	// binary discriminator they must never form a prediction market.
	call, put := pairInput(3500, 1, 1767312000)
	call.IsBinary = false
	put.IsBinary = false

	pairs, err := PairBinaryOrders([]domain.RawOrder{call, put}, nil)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("spread orders paired: %+v", pairs)
	}

	// The binary leg alone cannot pair with the spread leg either.
	call.IsBinary = true
	pairs, err = PairBinaryOrders([]domain.RawOrder{call, put}, nil)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("binary CALL paired with spread PUT: %+v", pairs)
	}
}

func TestPairingDropsOneSidedGroups(t *testing.T) {
	call, put := pairInput(3500, 1, 1767312000)
	lonely, _ := pairInput(4000, 1, 1767312000)

	pairs, err := PairBinaryOrders([]domain.RawOrder{call, lonely, put}, nil)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (lone CALL must be dropped)", len(pairs))
	}
	if pairs[0].Boundary != 3500 {
		t.Errorf("surviving pair boundary: got %v", pairs[0].Boundary)
	}
}

func TestPairingFirstOfSideWins(t *testing.T) {
	call, put := pairInput(3500, 1, 1767312000)
	secondCall := call
	secondCall.Price = big.NewInt(60000000) // better-priced duplicate, still ignored

	pairs, err := PairBinaryOrders([]domain.RawOrder{call, secondCall, put}, nil)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].Yes.Raw.Price.Cmp(call.Price) != 0 {
		t.Error("first encountered CALL should win the slot")
	}
}

func TestPairingSymmetricUnderPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	var input []domain.RawOrder
	for i := 0; i < 8; i++ {
		boundary := int64(3000 + 100*i)
		call, put := pairInput(boundary, 1, 1767312000)
		input = append(input, call, put)
	}

	want := pairIDSet(t, input)
	for trial := 0; trial < 25; trial++ {
		shuffled := make([]domain.RawOrder, len(input))
		copy(shuffled, input)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := pairIDSet(t, shuffled)
		if len(got) != len(want) {
			t.Fatalf("trial %d: %d pairs, want %d", trial, len(got), len(want))
		}
		for id := range want {
			if !got[id] {
				t.Fatalf("trial %d: missing pair %s", trial, id)
			}
		}
	}
}

func pairIDSet(t *testing.T, input []domain.RawOrder) map[string]bool {
	t.Helper()
	pairs, err := PairBinaryOrders(input, nil)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	set := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		set[p.ID] = true
	}
	return set
}

func TestPairingBoundaryInvariant(t *testing.T) {
	// Random CALL/PUT strike arrays only pair when CALL max == PUT min.
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		callBoundary := int64(1000 + rng.Intn(5000))
		putBoundary := callBoundary
		if rng.Intn(2) == 0 {
			putBoundary += int64(1 + rng.Intn(50)) // mismatched threshold
		}

		call := binaryOrder(true, (callBoundary-1)*1e8, callBoundary*1e8)
		put := binaryOrder(false, putBoundary*1e8, (putBoundary+1)*1e8)

		pairs, err := PairBinaryOrders([]domain.RawOrder{call, put}, nil)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}

		shouldPair := callBoundary == putBoundary
		if shouldPair && len(pairs) != 1 {
			t.Fatalf("trial %d: boundaries match (%d) but no pair formed", trial, callBoundary)
		}
		if !shouldPair && len(pairs) != 0 {
			t.Fatalf("trial %d: boundaries differ (%d vs %d) but a pair formed",
				trial, callBoundary, putBoundary)
		}
		for _, p := range pairs {
			callMax := p.Yes.Parsed.Strikes[1]
			putMin := p.No.Parsed.Strikes[0]
			if callMax != putMin {
				t.Fatalf("trial %d: CALL max %v != PUT min %v", trial, callMax, putMin)
			}
		}
	}
}

func TestPairingZeroStrikeWidth(t *testing.T) {
	call := binaryOrder(true, 350000000000, 350000000000) // degenerate: equal strikes
	put := binaryOrder(false, 350000000000, 350100000000)
	_, err := PairBinaryOrders([]domain.RawOrder{call, put}, nil)
	if !errors.Is(err, domain.ErrZeroStrikeWidth) {
		t.Fatalf("expected ErrZeroStrikeWidth, got %v", err)
	}
}

func TestSortByExpiryTieBreak(t *testing.T) {
	exp := time.Unix(1767312000, 0).UTC()
	pairs := []domain.BinaryPair{
		{ID: "ETH_3600_1767312000", Expiry: exp},
		{ID: "BTC_90000_1767312000", Expiry: exp},
		{ID: "ETH_3500_1767000000", Expiry: time.Unix(1767000000, 0).UTC()},
	}
	SortByExpiry(pairs)

	wantOrder := []string{"ETH_3500_1767000000", "BTC_90000_1767312000", "ETH_3600_1767312000"}
	for i, want := range wantOrder {
		if pairs[i].ID != want {
			t.Errorf("position %d: got %s want %s", i, pairs[i].ID, want)
		}
	}
}

func TestBucketFor(t *testing.T) {
	now := time.Unix(1767000000, 0).UTC()
	cases := []struct {
		offset time.Duration
		want   ExpiryBucket
	}{
		{-time.Minute, BucketExpired},
		{30 * time.Minute, BucketHourly},
		{5 * time.Hour, BucketDaily},
		{3 * 24 * time.Hour, BucketWeekly},
		{20 * 24 * time.Hour, BucketMonthly},
		{90 * 24 * time.Hour, BucketLater},
	}
	for _, tc := range cases {
		if got := BucketFor(now.Add(tc.offset), now); got != tc.want {
			t.Errorf("offset %v: got %s want %s", tc.offset, got, tc.want)
		}
	}
}
