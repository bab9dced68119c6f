package orders

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// Normalize converts one raw order into its parsed view. It is a pure
// function: same input, same output, no side effects, so results can be
// cached freely. An order referencing an unsupported price feed fails with
// domain.ErrUnknownPriceFeed.
func Normalize(o domain.RawOrder) (domain.ParsedOrder, error) {
	underlying, ok := UnderlyingForFeed(o.PriceFeed)
	if !ok {
		return domain.ParsedOrder{}, fmt.Errorf("orders: feed %s: %w", o.PriceFeed, domain.ErrUnknownPriceFeed)
	}

	strategy, err := classify(o)
	if err != nil {
		return domain.ParsedOrder{}, err
	}

	decimals := CollateralDecimals(o.CollateralToken)

	strikes := make([]float64, len(o.Strikes))
	for i, s := range o.Strikes {
		strikes[i] = scaleDown(s, domain.PriceScale)
	}

	width := 0.0
	if len(strikes) >= 2 {
		width = math.Abs(strikes[1] - strikes[0])
	}

	return domain.ParsedOrder{
		Strategy:           strategy,
		Underlying:         underlying,
		IsCall:             o.IsCall,
		IsLong:             o.IsLong,
		Strikes:            strikes,
		Price:              scaleDown(o.Price, domain.PriceScale),
		MaxSize:            scaleDown(o.MaxCollateral, math.Pow10(decimals)),
		StrikeWidth:        width,
		CollateralDecimals: decimals,
		Expiry:             time.Unix(o.Expiry, 0).UTC(),
		OrderExpiry:        time.Unix(o.OrderExpiry, 0).UTC(),
	}, nil
}

// classify maps an order to its strategy. The explicit binary discriminator
// wins over strike count.
func classify(o domain.RawOrder) (domain.Strategy, error) {
	if o.IsBinary {
		return domain.StrategyBinary, nil
	}
	switch len(o.Strikes) {
	case 2:
		return domain.StrategySpread, nil
	case 3:
		return domain.StrategyButterfly, nil
	case 4:
		return domain.StrategyCondor, nil
	default:
		return "", fmt.Errorf("orders: %d strikes: %w", len(o.Strikes), domain.ErrInvalidOrder)
	}
}

func scaleDown(n *big.Int, scale float64) float64 {
	if n == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f / scale
}
