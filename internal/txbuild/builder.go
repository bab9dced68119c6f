package txbuild

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// MinBetUSD is the smallest accepted bet size in display units.
const MinBetUSD = 0.10

var (
	usdcScale  = big.NewInt(1_000_000)     // 6 decimals
	priceScale = big.NewInt(100_000_000)   // 1e8, strikes and per-contract price
)

// BuildResult carries the outputs of one payload build.
type BuildResult struct {
	Item         domain.CartItem
	USDCRequired *big.Int // collateral the fill will pull, 6 decimals
	NumContracts *big.Int
}

// fillOrderArg mirrors the protocol's order tuple for ABI packing. Field
// order matters: it is the layout the maker signed over.
type fillOrderArg struct {
	Maker               common.Address
	OrderExpiry         *big.Int
	CollateralToken     common.Address
	IsCall              bool
	PriceFeed           common.Address
	Implementation      common.Address
	IsLong              bool
	MaxCollateralUsable *big.Int
	Strikes             []*big.Int
	Expiry              *big.Int
	Price               *big.Int
	NumContracts        *big.Int
	ExtraOptionData     []byte
}

// BuildFillPayload turns a directional choice on a binary pair into a ready-
// to-submit cart item. betUSD is the user's stake in display currency units;
// user is validated but never embedded in calldata beyond the fixed referrer.
//
// The arithmetic is integer end-to-end and always rounds down. Rounding up
// would let the client request more collateral than the maker approved and
// revert on-chain:
//
//	requiredAmount   = floor(betUSD * 1e6)
//	numContracts     = floor(requiredAmount * 1e8 / price)
//	collateralNeeded = floor(numContracts * price / 1e8)
//
// collateralNeeded is re-derived from the contract's own formula and checked
// against the order's capacity as a pre-flight guard; the contract enforces
// it too, but failing here avoids a wasted gas-sponsored call.
func BuildFillPayload(pair domain.BinaryPair, side domain.BetSide, betUSD float64, user string) (BuildResult, error) {
	leg, ok := pair.Leg(side)
	if !ok || leg.Raw.Price == nil {
		return BuildResult{}, fmt.Errorf("txbuild: pair %s side %s: %w", pair.ID, side, domain.ErrNoOrderForSide)
	}
	if leg.Raw.Price.Sign() <= 0 {
		return BuildResult{}, fmt.Errorf("txbuild: pair %s side %s price %s: %w",
			pair.ID, side, leg.Raw.Price, domain.ErrInvalidOrder)
	}

	// Yes rides the CALL, no the PUT. A mismatch means the pairing engine
	// misfiled an order; refuse to encode it.
	wantCall := side == domain.BetYes
	if leg.Raw.IsCall != wantCall {
		return BuildResult{}, fmt.Errorf("txbuild: pair %s side %s holds isCall=%v: %w",
			pair.ID, side, leg.Raw.IsCall, domain.ErrOrderTypeMismatch)
	}

	if !common.IsHexAddress(user) {
		return BuildResult{}, fmt.Errorf("txbuild: user address %q: %w", user, domain.ErrInvalidOrder)
	}

	if betUSD < MinBetUSD {
		return BuildResult{}, fmt.Errorf("txbuild: bet $%.2f below minimum $%.2f: %w",
			betUSD, MinBetUSD, domain.ErrBetTooSmall)
	}

	requiredAmount := big.NewInt(int64(math.Floor(betUSD * 1e6)))

	numContracts := new(big.Int).Mul(requiredAmount, priceScale)
	numContracts.Div(numContracts, leg.Raw.Price)

	collateralNeeded := new(big.Int).Mul(numContracts, leg.Raw.Price)
	collateralNeeded.Div(collateralNeeded, priceScale)

	if collateralNeeded.Cmp(leg.Raw.MaxCollateral) > 0 {
		return BuildResult{}, fmt.Errorf("txbuild: need %s but order capacity is %s, max affordable bet ~$%.2f: %w",
			collateralNeeded, leg.Raw.MaxCollateral, leg.Parsed.MaxSize, domain.ErrInsufficientOrderCapacity)
	}

	data, err := encodeFill(leg.Raw, numContracts)
	if err != nil {
		return BuildResult{}, fmt.Errorf("txbuild: encode fill for %s: %w", pair.ID, err)
	}

	item := domain.CartItem{
		ID:           uuid.New().String(),
		PairID:       pair.ID,
		Side:         side,
		Question:     pair.Question,
		IsCall:       leg.Raw.IsCall,
		BetUSD:       betUSD,
		USDCAmount:   collateralNeeded,
		NumContracts: numContracts,
		Expiry:       leg.Parsed.Expiry,
		OrderExpiry:  leg.Parsed.OrderExpiry,
		Payload: domain.TransactionPayload{
			To:    ProtocolAddress,
			Value: big.NewInt(0),
			Data:  data,
		},
		CreatedAt: time.Now().UTC(),
	}

	return BuildResult{
		Item:         item,
		USDCRequired: collateralNeeded,
		NumContracts: numContracts,
	}, nil
}

// encodeFill packs fillOrder(order, signature, referrer). Every signed field
// passes through unchanged; only numContracts is substituted. Altering any
// other field invalidates the maker's signature and the fill reverts.
func encodeFill(o domain.RawOrder, numContracts *big.Int) ([]byte, error) {
	filled := o.WithNumContracts(numContracts)

	arg := fillOrderArg{
		Maker:               common.HexToAddress(filled.Maker),
		OrderExpiry:         big.NewInt(filled.OrderExpiry),
		CollateralToken:     common.HexToAddress(filled.CollateralToken),
		IsCall:              filled.IsCall,
		PriceFeed:           common.HexToAddress(filled.PriceFeed),
		Implementation:      common.HexToAddress(filled.Implementation),
		IsLong:              filled.IsLong,
		MaxCollateralUsable: filled.MaxCollateral,
		Strikes:             filled.Strikes,
		Expiry:              big.NewInt(filled.Expiry),
		Price:               filled.Price,
		NumContracts:        filled.NumContracts,
		ExtraOptionData:     filled.ExtraOptionData,
	}
	if arg.ExtraOptionData == nil {
		arg.ExtraOptionData = []byte{}
	}

	return fillOrderABI.Pack("fillOrder", arg, filled.Signature, common.HexToAddress(ReferrerAddress))
}
