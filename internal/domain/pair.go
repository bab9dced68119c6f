package domain

import (
	"fmt"
	"time"
)

// BetSide selects one leg of a binary pair: "yes" rides the CALL, "no" the PUT.
type BetSide string

const (
	BetYes BetSide = "yes"
	BetNo  BetSide = "no"
)

// PairLeg couples one raw signed order with its parsed view and the implied
// probability of that side winning (pricePerContract / strikeWidth * 100).
type PairLeg struct {
	Raw         RawOrder
	Parsed      ParsedOrder
	Probability float64
}

// BinaryPair is the prediction-market abstraction: one CALL and one PUT
// sharing the same underlying, option expiry, and decision boundary. A pair
// never exists with only one side; unmatched orders are dropped by the
// pairing engine. Pairs are recomputed from scratch on every pairing pass,
// identity is the deterministic ID string only.
type BinaryPair struct {
	ID         string  // {underlying}_{boundary}_{expiry}
	Underlying string
	Boundary   float64 // shared threshold: CALL max strike == PUT min strike
	Expiry     time.Time
	Question   string
	Yes        PairLeg // CALL side
	No         PairLeg // PUT side
	Spot       float64 // latest underlying price, 0 when unknown
}

// Leg returns the leg for the given side, or false when the side is unknown.
func (p BinaryPair) Leg(side BetSide) (PairLeg, bool) {
	switch side {
	case BetYes:
		return p.Yes, true
	case BetNo:
		return p.No, true
	default:
		return PairLeg{}, false
	}
}

// PairID builds the deterministic pair identifier. The boundary is already
// rounded to an integer unit by the pairing engine, so the string form is
// stable across passes.
func PairID(underlying string, boundary float64, expiry int64) string {
	return fmt.Sprintf("%s_%d_%d", underlying, int64(boundary), expiry)
}
