package orderbook

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// APIOrder is a maker order as returned by the orderbook API. All amounts
// arrive as decimal strings because they routinely exceed float53 precision.
type APIOrder struct {
	Maker             string   `json:"maker"`
	OrderExpiry       int64    `json:"orderExpiry"`
	CollateralToken   string   `json:"collateralToken"`
	IsCall            bool     `json:"isCall"`
	PriceFeed         string   `json:"priceFeed"`
	Implementation    string   `json:"implementation"`
	IsLong            bool     `json:"isLong"`
	MaxCollateral     string   `json:"maxCollateralUsable"`
	Strikes           []string `json:"strikes"`
	Expiry            int64    `json:"expiry"`
	Price             string   `json:"price"`
	NumContracts      string   `json:"numContracts"`
	ExtraOptionData   string   `json:"extraOptionData"` // 0x-hex, may be empty
	Signature         string   `json:"signature"`       // 0x-hex
	IsBinary          bool     `json:"isBinary"`
	BinaryName        string   `json:"binaryName,omitempty"`
}

// ToDomainRawOrder converts an APIOrder to a domain.RawOrder, rejecting
// malformed numeric fields rather than silently zeroing them.
func (o *APIOrder) ToDomainRawOrder() (domain.RawOrder, error) {
	maxColl, err := parseBig(o.MaxCollateral, "maxCollateralUsable")
	if err != nil {
		return domain.RawOrder{}, err
	}
	price, err := parseBig(o.Price, "price")
	if err != nil {
		return domain.RawOrder{}, err
	}
	if price.Sign() <= 0 {
		return domain.RawOrder{}, fmt.Errorf("orderbook: price %q not positive: %w", o.Price, domain.ErrInvalidOrder)
	}
	num, err := parseBig(o.NumContracts, "numContracts")
	if err != nil {
		return domain.RawOrder{}, err
	}

	strikes := make([]*big.Int, 0, len(o.Strikes))
	for i, s := range o.Strikes {
		v, err := parseBig(s, fmt.Sprintf("strikes[%d]", i))
		if err != nil {
			return domain.RawOrder{}, err
		}
		strikes = append(strikes, v)
	}

	extra, err := parseHex(o.ExtraOptionData, "extraOptionData")
	if err != nil {
		return domain.RawOrder{}, err
	}
	sig, err := parseHex(o.Signature, "signature")
	if err != nil {
		return domain.RawOrder{}, err
	}

	return domain.RawOrder{
		Maker:           o.Maker,
		OrderExpiry:     o.OrderExpiry,
		CollateralToken: o.CollateralToken,
		IsCall:          o.IsCall,
		PriceFeed:       o.PriceFeed,
		Implementation:  o.Implementation,
		IsLong:          o.IsLong,
		MaxCollateral:   maxColl,
		Strikes:         strikes,
		Expiry:          o.Expiry,
		Price:           price,
		NumContracts:    num,
		ExtraOptionData: extra,
		Signature:       sig,
		IsBinary:        o.IsBinary,
		BinaryName:      o.BinaryName,
	}, nil
}

func parseBig(s, field string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("orderbook: %s is not a decimal integer: %q: %w", field, s, domain.ErrInvalidOrder)
	}
	return v, nil
}

func parseHex(s, field string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, nil
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("orderbook: %s is not valid hex: %w", field, domain.ErrInvalidOrder)
	}
	return out, nil
}
