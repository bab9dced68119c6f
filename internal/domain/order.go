package domain

import (
	"math/big"
	"time"
)

// PriceScale is the fixed-point scale for strikes and per-contract prices as
// delivered by the order-book API and expected by the protocol contract.
const PriceScale = 1e8

// Strategy classifies an order by its strike structure.
type Strategy string

const (
	StrategyBinary    Strategy = "BINARY"
	StrategySpread    Strategy = "SPREAD"
	StrategyButterfly Strategy = "BUTTERFLY"
	StrategyCondor    Strategy = "CONDOR"
)

// RawOrder is an off-chain-signed maker offer exactly as delivered by the
// order-book API. Every field except NumContracts is covered by the maker's
// signature: the fill reverts on-chain if any of them is altered, so the
// struct must be passed through byte-for-byte. NumContracts is the one
// caller-chosen field and is substituted per fill.
type RawOrder struct {
	Maker           string
	OrderExpiry     int64 // offer valid-until, unix seconds
	CollateralToken string
	IsCall          bool
	PriceFeed       string
	Implementation  string
	IsLong          bool
	MaxCollateral   *big.Int // max collateral usable, token decimals
	Strikes         []*big.Int
	Expiry          int64    // option expiry, unix seconds
	Price           *big.Int // per contract, 1e8 scale
	NumContracts    *big.Int // caller-supplied; not signed over
	ExtraOptionData []byte
	Signature       []byte

	// Binary discriminator. Orders without it are vanilla multi-strike
	// structures (spread, butterfly, condor).
	IsBinary   bool
	BinaryName string
}

// WithNumContracts returns a copy of the order with NumContracts replaced.
// Signed fields are shared, not duplicated; nothing in this codebase
// mutates them after ingestion.
func (o RawOrder) WithNumContracts(n *big.Int) RawOrder {
	o.NumContracts = new(big.Int).Set(n)
	return o
}

// ParsedOrder is a derived, display/logic-friendly view of a RawOrder.
// Purely computed; it has no lifecycle of its own.
type ParsedOrder struct {
	Strategy           Strategy
	Underlying         string // resolved from the price-feed table
	IsCall             bool
	IsLong             bool
	Strikes            []float64 // human units
	Price              float64   // per contract, human units
	MaxSize            float64   // max collateral in human token units
	StrikeWidth        float64   // payout per contract; 0 for single-strike
	CollateralDecimals int
	Expiry             time.Time
	OrderExpiry        time.Time
}
