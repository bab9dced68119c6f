package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/strikelabs/strikedesk/internal/domain"
)

const erc20ABIJSON = `[
  {"name":"balanceOf","type":"function","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"name":"allowance","type":"function","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"name":"approve","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// Reader performs the read-only chain calls the executor needs before
// submission: collateral balance, spender allowance, and per-call gas
// estimates.
type Reader struct {
	ec *ethclient.Client
}

// NewReader connects an RPC endpoint for read calls.
func NewReader(rpcURL string) (*Reader, error) {
	ec, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}
	return &Reader{ec: ec}, nil
}

// BalanceOf returns the ERC-20 balance of owner.
func (r *Reader) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	return r.readUint(ctx, token, "balanceOf", common.HexToAddress(owner))
}

// Allowance returns the ERC-20 allowance from owner to spender.
func (r *Reader) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	return r.readUint(ctx, token, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
}

// EstimateGas estimates gas for one batch call. Used for advisory warnings
// only; failures must never block submission.
func (r *Reader) EstimateGas(ctx context.Context, from string, call domain.Call) (uint64, error) {
	to := common.HexToAddress(call.To)
	msg := ethereum.CallMsg{
		From:  common.HexToAddress(from),
		To:    &to,
		Value: call.Value,
		Data:  call.Data,
	}
	gas, err := r.ec.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("chain: estimate gas for %s: %w", call.To, err)
	}
	return gas, nil
}

// Close releases the underlying RPC connection.
func (r *Reader) Close() {
	r.ec.Close()
}

func (r *Reader) readUint(ctx context.Context, token, method string, args ...any) (*big.Int, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	to := common.HexToAddress(token)
	out, err := r.ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s on %s: %w", method, token, err)
	}

	var result *big.Int
	if err := erc20ABI.UnpackIntoInterface(&result, method, out); err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return result, nil
}

// EncodeApprove packs approve(spender, amount) for inclusion in a batch.
func EncodeApprove(spender string, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return nil, fmt.Errorf("chain: pack approve: %w", err)
	}
	return data, nil
}
