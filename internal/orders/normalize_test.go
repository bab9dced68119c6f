package orders

import (
	"errors"
	"math/big"
	"testing"

	"github.com/strikelabs/strikedesk/internal/domain"
)

const (
	ethFeed = "0x71041dddad3595F9CEd3DcCFBe3D1F4b0a16Bb70" // mixed case on purpose
	btcFeed = "0x64c911996d3c6ac71f9b455b1e8e7266bcbd848f"
)

func binaryOrder(isCall bool, strikes ...int64) domain.RawOrder {
	ss := make([]*big.Int, len(strikes))
	for i, s := range strikes {
		ss[i] = big.NewInt(s)
	}
	return domain.RawOrder{
		Maker:           "0x1111111111111111111111111111111111111111",
		OrderExpiry:     1767300000,
		CollateralToken: USDCAddress,
		IsCall:          isCall,
		PriceFeed:       ethFeed,
		Implementation:  "0x2222222222222222222222222222222222222222",
		MaxCollateral:   big.NewInt(10000000),
		Strikes:         ss,
		Expiry:          1767312000,
		Price:           big.NewInt(50000000),
		NumContracts:    big.NewInt(0),
		Signature:       []byte{0x01},
		IsBinary:        true,
		BinaryName:      "ETH up or down",
	}
}

func TestNormalizeScaling(t *testing.T) {
	o := binaryOrder(true, 349900000000, 350000000000) // 3499, 3500 at 1e8
	p, err := Normalize(o)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	for i, s := range o.Strikes {
		want := float64(s.Int64()) / 1e8
		if p.Strikes[i] != want {
			t.Errorf("strike %d: got %v want %v", i, p.Strikes[i], want)
		}
	}
	if p.Price != 0.5 {
		t.Errorf("price: got %v want 0.5", p.Price)
	}
	if p.MaxSize != 10 {
		t.Errorf("max size: got %v want 10 (USDC, 6 decimals)", p.MaxSize)
	}
	if p.StrikeWidth != 1 {
		t.Errorf("strike width: got %v want 1", p.StrikeWidth)
	}
	if p.Underlying != "ETH" {
		t.Errorf("underlying: got %q want ETH", p.Underlying)
	}
	if p.Strategy != domain.StrategyBinary {
		t.Errorf("strategy: got %q want BINARY", p.Strategy)
	}
}

func TestNormalizeWETHDecimals(t *testing.T) {
	o := binaryOrder(true, 349900000000, 350000000000)
	o.CollateralToken = "0x4200000000000000000000000000000000000006"
	o.MaxCollateral, _ = new(big.Int).SetString("2000000000000000000", 10) // 2 WETH
	p, err := Normalize(o)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if p.CollateralDecimals != 18 {
		t.Errorf("decimals: got %d want 18", p.CollateralDecimals)
	}
	if p.MaxSize != 2 {
		t.Errorf("max size: got %v want 2", p.MaxSize)
	}
}

func TestNormalizeUnknownFeed(t *testing.T) {
	o := binaryOrder(true, 349900000000, 350000000000)
	o.PriceFeed = "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	if _, err := Normalize(o); !errors.Is(err, domain.ErrUnknownPriceFeed) {
		t.Fatalf("expected ErrUnknownPriceFeed, got %v", err)
	}
}

func TestClassifyByStrikeCount(t *testing.T) {
	cases := []struct {
		strikes int
		want    domain.Strategy
	}{
		{2, domain.StrategySpread},
		{3, domain.StrategyButterfly},
		{4, domain.StrategyCondor},
	}
	for _, tc := range cases {
		strikes := make([]int64, tc.strikes)
		for i := range strikes {
			strikes[i] = int64(300000000000 + i*10000000000)
		}
		o := binaryOrder(true, strikes...)
		o.IsBinary = false
		p, err := Normalize(o)
		if err != nil {
			t.Fatalf("normalize %d strikes: %v", tc.strikes, err)
		}
		if p.Strategy != tc.want {
			t.Errorf("%d strikes: got %q want %q", tc.strikes, p.Strategy, tc.want)
		}
	}
}

func TestClassifyBinaryDiscriminatorWins(t *testing.T) {
	// Binary flag beats the 2-strike SPREAD classification.
	o := binaryOrder(true, 349900000000, 350000000000)
	p, err := Normalize(o)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if p.Strategy != domain.StrategyBinary {
		t.Errorf("got %q want BINARY", p.Strategy)
	}
}

func TestNormalizeIsReferentiallyTransparent(t *testing.T) {
	o := binaryOrder(false, 350000000000, 350100000000)
	a, err := Normalize(o)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	b, err := Normalize(o)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if a.Price != b.Price || a.StrikeWidth != b.StrikeWidth || a.Underlying != b.Underlying {
		t.Error("same input produced different outputs")
	}
}
