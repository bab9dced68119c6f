// Package txbuild encodes fill calls against the options protocol contract.
// It is pure construction: no network or state access.
package txbuild

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Protocol constants on Base.
const (
	// ChainID is Base mainnet.
	ChainID int64 = 8453

	// ProtocolAddress is the order-fill entry point. All fill calls target it.
	ProtocolAddress = "0x1dd6b1e38e52d226c335e1e250b59ed26e9df83a"

	// ReferrerAddress is the fixed attribution referrer passed as the third
	// fillOrder argument. It is the only place the client injects its own
	// identity into calldata.
	ReferrerAddress = "0x9f6d4e2b8cc9e1f0a3b5c7d9e1f2a4b6c8d0e2f4"
)

// fillOrderABIJSON describes the protocol's order-fill entry point. The order
// tuple layout must match the struct the maker signed over exactly; the
// contract recovers the signer from these bytes.
const fillOrderABIJSON = `[
  {
    "name": "fillOrder",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {
        "name": "order",
        "type": "tuple",
        "components": [
          {"name": "maker", "type": "address"},
          {"name": "orderExpiry", "type": "uint256"},
          {"name": "collateralToken", "type": "address"},
          {"name": "isCall", "type": "bool"},
          {"name": "priceFeed", "type": "address"},
          {"name": "implementation", "type": "address"},
          {"name": "isLong", "type": "bool"},
          {"name": "maxCollateralUsable", "type": "uint256"},
          {"name": "strikes", "type": "uint256[]"},
          {"name": "expiry", "type": "uint256"},
          {"name": "price", "type": "uint256"},
          {"name": "numContracts", "type": "uint256"},
          {"name": "extraOptionData", "type": "bytes"}
        ]
      },
      {"name": "signature", "type": "bytes"},
      {"name": "referrer", "type": "address"}
    ],
    "outputs": []
  }
]`

var fillOrderABI = mustABI(fillOrderABIJSON)

func mustABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
