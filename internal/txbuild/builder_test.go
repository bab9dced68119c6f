package txbuild

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/strikelabs/strikedesk/internal/domain"
)

const userAddr = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

// testPair builds the reference market: CALL at 0.5/contract with
// 10 USDC capacity, PUT mirrored, boundary 3500, width 1.
func testPair() domain.BinaryPair {
	call := domain.RawOrder{
		Maker:           "0x1111111111111111111111111111111111111111",
		OrderExpiry:     1767300000,
		CollateralToken: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
		IsCall:          true,
		PriceFeed:       "0x71041dddad3595f9ced3dccfbe3d1f4b0a16bb70",
		Implementation:  "0x2222222222222222222222222222222222222222",
		MaxCollateral:   big.NewInt(10000000), // 10 USDC
		Strikes:         []*big.Int{big.NewInt(349900000000), big.NewInt(350000000000)},
		Expiry:          1767312000,
		Price:           big.NewInt(50000000), // 0.5 per contract
		NumContracts:    big.NewInt(0),
		Signature:       bytes.Repeat([]byte{0xab}, 65),
		IsBinary:        true,
	}
	put := call
	put.IsCall = false
	put.Strikes = []*big.Int{big.NewInt(350000000000), big.NewInt(350100000000)}
	put.Signature = bytes.Repeat([]byte{0xcd}, 65)

	leg := func(o domain.RawOrder) domain.PairLeg {
		return domain.PairLeg{
			Raw: o,
			Parsed: domain.ParsedOrder{
				Strategy:    domain.StrategyBinary,
				Underlying:  "ETH",
				IsCall:      o.IsCall,
				Price:       0.5,
				MaxSize:     10,
				StrikeWidth: 1,
				Expiry:      time.Unix(o.Expiry, 0).UTC(),
				OrderExpiry: time.Unix(o.OrderExpiry, 0).UTC(),
			},
			Probability: 50,
		}
	}

	return domain.BinaryPair{
		ID:         "ETH_3500_1767312000",
		Underlying: "ETH",
		Boundary:   3500,
		Expiry:     time.Unix(1767312000, 0).UTC(),
		Question:   "Will ETH be above $3,500 on Jan 2, 2026?",
		Yes:        leg(call),
		No:         leg(put),
	}
}

func TestBuildFillPayloadReferenceScenario(t *testing.T) {
	// $4 at 0.5/contract: 8000000 contracts, 4 USDC collateral.
	res, err := BuildFillPayload(testPair(), domain.BetYes, 4, userAddr)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if res.NumContracts.Cmp(big.NewInt(8000000)) != 0 {
		t.Errorf("num contracts: got %s want 8000000", res.NumContracts)
	}
	if res.USDCRequired.Cmp(big.NewInt(4000000)) != 0 {
		t.Errorf("usdc required: got %s want 4000000", res.USDCRequired)
	}
	if res.Item.Payload.To != ProtocolAddress {
		t.Errorf("target: got %s", res.Item.Payload.To)
	}
	if res.Item.Side != domain.BetYes || !res.Item.IsCall {
		t.Error("yes item must reference the CALL leg")
	}
}

func TestBuildFillPayloadCapacityExceeded(t *testing.T) {
	// $30 needs 30 USDC against a 10 USDC order.
	_, err := BuildFillPayload(testPair(), domain.BetYes, 30, userAddr)
	if !errors.Is(err, domain.ErrInsufficientOrderCapacity) {
		t.Fatalf("expected ErrInsufficientOrderCapacity, got %v", err)
	}
}

func TestBuildFillPayloadCapacityBoundary(t *testing.T) {
	// Exactly at capacity: 10 USDC needed, 10 USDC available.
	if _, err := BuildFillPayload(testPair(), domain.BetYes, 10, userAddr); err != nil {
		t.Fatalf("at capacity should succeed: %v", err)
	}

	// One base unit above: the smallest representable step over the limit.
	_, err := BuildFillPayload(testPair(), domain.BetYes, 10.000001, userAddr)
	if !errors.Is(err, domain.ErrInsufficientOrderCapacity) {
		t.Fatalf("one unit above capacity should fail, got %v", err)
	}
}

func TestBuildFillPayloadValidation(t *testing.T) {
	pair := testPair()

	if _, err := BuildFillPayload(pair, domain.BetSide("maybe"), 4, userAddr); !errors.Is(err, domain.ErrNoOrderForSide) {
		t.Errorf("unknown side: got %v", err)
	}

	if _, err := BuildFillPayload(pair, domain.BetYes, 0.05, userAddr); !errors.Is(err, domain.ErrBetTooSmall) {
		t.Errorf("tiny bet: got %v", err)
	}

	if _, err := BuildFillPayload(pair, domain.BetYes, 4, "not-an-address"); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("bad user address: got %v", err)
	}

	// A maker can publish any decimal string, including zero. Must refuse
	// rather than divide by it.
	zeroPrice := testPair()
	zeroPrice.Yes.Raw.Price = big.NewInt(0)
	if _, err := BuildFillPayload(zeroPrice, domain.BetYes, 4, userAddr); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("zero price: got %v", err)
	}
	negPrice := testPair()
	negPrice.No.Raw.Price = big.NewInt(-50000000)
	if _, err := BuildFillPayload(negPrice, domain.BetNo, 4, userAddr); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("negative price: got %v", err)
	}

	// Swap the legs to simulate an upstream pairing bug.
	swapped := pair
	swapped.Yes, swapped.No = pair.No, pair.Yes
	if _, err := BuildFillPayload(swapped, domain.BetYes, 4, userAddr); !errors.Is(err, domain.ErrOrderTypeMismatch) {
		t.Errorf("polarity mismatch: got %v", err)
	}
}

func TestEncodeFillPreservesSignedFields(t *testing.T) {
	pair := testPair()
	res, err := BuildFillPayload(pair, domain.BetNo, 4, userAddr)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	method, ok := fillOrderABI.Methods["fillOrder"]
	if !ok {
		t.Fatal("fillOrder method missing from ABI")
	}
	if !bytes.Equal(res.Item.Payload.Data[:4], method.ID) {
		t.Fatalf("selector mismatch: got %x want %x", res.Item.Payload.Data[:4], method.ID)
	}

	values, err := method.Inputs.Unpack(res.Item.Payload.Data[4:])
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}

	sig, ok := values[1].([]byte)
	if !ok || !bytes.Equal(sig, pair.No.Raw.Signature) {
		t.Error("signature must pass through byte-for-byte")
	}
	ref, ok := values[2].(common.Address)
	if !ok || ref != common.HexToAddress(ReferrerAddress) {
		t.Errorf("referrer: got %v", values[2])
	}

	// The source order must not have been mutated by the build.
	if pair.No.Raw.NumContracts.Sign() != 0 {
		t.Error("build mutated the shared raw order's numContracts")
	}
}
