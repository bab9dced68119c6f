package domain

import (
	"math/big"
	"time"
)

// Fill is a confirmed leg of an executed batch, recorded for history after
// the bundle confirms. Recording is best-effort: a storage failure never
// rolls back the already-confirmed on-chain transaction.
type Fill struct {
	ID           string
	Wallet       string
	PairID       string
	Side         BetSide
	Question     string
	BetUSD       float64
	USDCAmount   *big.Int
	NumContracts *big.Int
	BundleID     string
	TxHash       string
	FilledAt     time.Time
}
