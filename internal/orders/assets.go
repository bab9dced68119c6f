// Package orders converts raw signed maker offers into display-friendly
// parsed orders and pairs complementary binary CALL/PUT offers into yes/no
// prediction markets.
package orders

import (
	"strings"
)

// Collateral tokens accepted by the protocol on Base.
const (
	USDCAddress = "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
	WETHAddress = "0x4200000000000000000000000000000000000006"

	USDCDecimals = 6
	WETHDecimals = 18
)

// priceFeeds maps Chainlink aggregator addresses (lowercase) to underlying
// symbols. The table is static: an order referencing a feed outside it is
// rejected at normalization, never defaulted.
var priceFeeds = map[string]string{
	"0x71041dddad3595f9ced3dccfbe3d1f4b0a16bb70": "ETH",
	"0x64c911996d3c6ac71f9b455b1e8e7266bcbd848f": "BTC",
	"0x975043adbb80fc32276cbf9bbcfd4a601a12462d": "SOL",
}

// UnderlyingForFeed resolves a price-feed address to its underlying symbol.
// The comparison is case-insensitive; the API is not consistent about
// checksummed casing.
func UnderlyingForFeed(feed string) (string, bool) {
	sym, ok := priceFeeds[strings.ToLower(feed)]
	return sym, ok
}

// Underlyings returns the symbols with a known price feed, in a stable
// order suitable for subscriptions and display.
func Underlyings() []string {
	return []string{"BTC", "ETH", "SOL"}
}

// CollateralDecimals returns the decimal scale of a collateral token address.
// USDC is the 6-decimal stablecoin; anything else is the 18-decimal wrapped
// native token.
func CollateralDecimals(token string) int {
	if strings.EqualFold(token, USDCAddress) {
		return USDCDecimals
	}
	return WETHDecimals
}
