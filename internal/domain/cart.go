package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// TransactionPayload is a fully-encoded on-chain call: the protocol contract
// address, ABI-encoded calldata carrying the order struct with the
// substituted contract count and the maker's untouched signature, and the
// native value (always zero for ERC-20 collateral fills).
type TransactionPayload struct {
	To    string
	Value *big.Int
	Data  []byte
}

// CartItem is an intent to fill one leg of a binary pair. It is created when
// the user commits to a bet and consumed when the batch executes. Items may
// be persisted between sessions keyed by wallet address; the big-integer
// fields round-trip through decimal strings and must restore exactly.
type CartItem struct {
	ID           string
	PairID       string
	Side         BetSide
	Question     string
	IsCall       bool
	BetUSD       float64  // user-chosen bet size, display units
	USDCAmount   *big.Int // required collateral, 6 decimals
	NumContracts *big.Int // substituted into the order struct
	Expiry       time.Time
	OrderExpiry  time.Time
	Payload      TransactionPayload
	CreatedAt    time.Time
}

// cartItemJSON is the canonical serialized form. Integers wider than 53 bits
// are decimal strings, binary blobs are 0x-prefixed hex. This is the one
// serialization boundary for cart items; stores and caches must go through
// MarshalJSON/UnmarshalJSON rather than inventing their own encoding.
type cartItemJSON struct {
	ID           string  `json:"id"`
	PairID       string  `json:"pair_id"`
	Side         string  `json:"side"`
	Question     string  `json:"question"`
	IsCall       bool    `json:"is_call"`
	BetUSD       float64 `json:"bet_usd"`
	USDCAmount   string  `json:"usdc_amount"`
	NumContracts string  `json:"num_contracts"`
	Expiry       int64   `json:"expiry"`
	OrderExpiry  int64   `json:"order_expiry"`
	To           string  `json:"to"`
	Value        string  `json:"value"`
	Data         string  `json:"data"`
	CreatedAt    int64   `json:"created_at"`
}

// MarshalJSON implements json.Marshaler.
func (c CartItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(cartItemJSON{
		ID:           c.ID,
		PairID:       c.PairID,
		Side:         string(c.Side),
		Question:     c.Question,
		IsCall:       c.IsCall,
		BetUSD:       c.BetUSD,
		USDCAmount:   bigToDec(c.USDCAmount),
		NumContracts: bigToDec(c.NumContracts),
		Expiry:       c.Expiry.Unix(),
		OrderExpiry:  c.OrderExpiry.Unix(),
		To:           c.Payload.To,
		Value:        bigToDec(c.Payload.Value),
		Data:         "0x" + hex.EncodeToString(c.Payload.Data),
		CreatedAt:    c.CreatedAt.Unix(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Malformed integer strings are an
// error, never a silent zero: a lossy round trip is a bug.
func (c *CartItem) UnmarshalJSON(b []byte) error {
	var j cartItemJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}

	usdc, err := DecToBig(j.USDCAmount)
	if err != nil {
		return fmt.Errorf("cart item %s: usdc_amount: %w", j.ID, err)
	}
	contracts, err := DecToBig(j.NumContracts)
	if err != nil {
		return fmt.Errorf("cart item %s: num_contracts: %w", j.ID, err)
	}
	value, err := DecToBig(j.Value)
	if err != nil {
		return fmt.Errorf("cart item %s: value: %w", j.ID, err)
	}
	data, err := hex.DecodeString(strings.TrimPrefix(j.Data, "0x"))
	if err != nil {
		return fmt.Errorf("cart item %s: data: %w", j.ID, err)
	}

	*c = CartItem{
		ID:           j.ID,
		PairID:       j.PairID,
		Side:         BetSide(j.Side),
		Question:     j.Question,
		IsCall:       j.IsCall,
		BetUSD:       j.BetUSD,
		USDCAmount:   usdc,
		NumContracts: contracts,
		Expiry:       time.Unix(j.Expiry, 0).UTC(),
		OrderExpiry:  time.Unix(j.OrderExpiry, 0).UTC(),
		Payload: TransactionPayload{
			To:    j.To,
			Value: value,
			Data:  data,
		},
		CreatedAt: time.Unix(j.CreatedAt, 0).UTC(),
	}
	return nil
}

func bigToDec(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// DecToBig parses a base-10 integer string into a big.Int. Used everywhere a
// persisted decimal string is restored to its in-memory integer form.
func DecToBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal integer %q", s)
	}
	return n, nil
}
