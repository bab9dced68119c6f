// Package chain talks to the user's wallet provider and the Base RPC
// endpoint: EIP-5792 call batching on the write path, ERC-20 state reads on
// the read path.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// userRejectedCode is the EIP-1193 error code for a declined wallet prompt.
const userRejectedCode = 4001

// Provider submits atomic call batches through an EIP-5792 wallet endpoint
// (wallet_sendCalls / wallet_getCallsStatus).
type Provider struct {
	rpc *rpc.Client
}

// Dial connects to the wallet provider's RPC endpoint.
func Dial(ctx context.Context, url string) (*Provider, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("chain: dial provider %s: %w", url, err)
	}
	return &Provider{rpc: c}, nil
}

// sendCallsParam is the wallet_sendCalls wire shape.
type sendCallsParam struct {
	Version        string          `json:"version"`
	From           string          `json:"from"`
	ChainID        string          `json:"chainId"`
	AtomicRequired bool            `json:"atomicRequired"`
	Calls          []sendCallsCall `json:"calls"`
	Capabilities   map[string]any  `json:"capabilities,omitempty"`
}

type sendCallsCall struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

type sendCallsResult struct {
	ID string `json:"id"`
}

// SendCalls submits the batch and returns the opaque bundle identifier.
// A declined wallet prompt maps to domain.ErrUserRejected.
func (p *Provider) SendCalls(ctx context.Context, req domain.BatchRequest) (string, error) {
	param := sendCallsParam{
		Version:        req.Version,
		From:           req.From,
		ChainID:        hexutil.EncodeBig(big.NewInt(req.ChainID)),
		AtomicRequired: req.AtomicRequired,
		Calls:          make([]sendCallsCall, 0, len(req.Calls)),
	}
	for _, c := range req.Calls {
		value := big.NewInt(0)
		if c.Value != nil {
			value = c.Value
		}
		param.Calls = append(param.Calls, sendCallsCall{
			To:    c.To,
			Value: hexutil.EncodeBig(value),
			Data:  hexutil.Encode(c.Data),
		})
	}
	if req.PaymasterURL != "" {
		param.Capabilities = map[string]any{
			"paymasterService": map[string]any{"url": req.PaymasterURL},
		}
	}

	var result sendCallsResult
	if err := p.rpc.CallContext(ctx, &result, "wallet_sendCalls", param); err != nil {
		if isUserRejected(err) {
			return "", fmt.Errorf("chain: %w", domain.ErrUserRejected)
		}
		return "", fmt.Errorf("chain: wallet_sendCalls: %w", err)
	}
	if result.ID == "" {
		return "", errors.New("chain: wallet_sendCalls returned empty bundle id")
	}
	return result.ID, nil
}

// callsStatusResult tolerates both the numeric status codes of the final
// EIP-5792 spec (100 pending, 200 confirmed, >=400 failed) and the string
// statuses older wallets emit.
type callsStatusResult struct {
	Status   json.RawMessage `json:"status"`
	Receipts []struct {
		TransactionHash string `json:"transactionHash"`
		Status          string `json:"status"`
		GasUsed         string `json:"gasUsed"`
	} `json:"receipts"`
}

// CallsStatus queries the bundle state.
func (p *Provider) CallsStatus(ctx context.Context, bundleID string) (domain.CallsStatus, error) {
	var raw callsStatusResult
	if err := p.rpc.CallContext(ctx, &raw, "wallet_getCallsStatus", bundleID); err != nil {
		return domain.CallsStatus{}, fmt.Errorf("chain: wallet_getCallsStatus: %w", err)
	}

	status, err := decodeBundleStatus(raw.Status)
	if err != nil {
		return domain.CallsStatus{}, err
	}

	for _, r := range raw.Receipts {
		gas := uint64(0)
		if r.GasUsed != "" {
			if g, err := hexutil.DecodeUint64(r.GasUsed); err == nil {
				gas = g
			}
		}
		status.Receipts = append(status.Receipts, domain.Receipt{
			TransactionHash: r.TransactionHash,
			Status:          r.Status,
			GasUsed:         gas,
		})
	}
	return status, nil
}

// Close releases the RPC connection.
func (p *Provider) Close() {
	p.rpc.Close()
}

func decodeBundleStatus(raw json.RawMessage) (domain.CallsStatus, error) {
	var code int
	if err := json.Unmarshal(raw, &code); err == nil {
		switch {
		case code == 100:
			return domain.CallsStatus{Pending: true}, nil
		case code == 200:
			return domain.CallsStatus{Confirmed: true}, nil
		case code >= 400:
			return domain.CallsStatus{Failed: true}, nil
		default:
			return domain.CallsStatus{}, fmt.Errorf("chain: unknown bundle status code %d", code)
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.CallsStatus{}, fmt.Errorf("chain: undecodable bundle status %s", string(raw))
	}
	switch strings.ToUpper(s) {
	case "PENDING":
		return domain.CallsStatus{Pending: true}, nil
	case "CONFIRMED":
		return domain.CallsStatus{Confirmed: true}, nil
	case "FAILED":
		return domain.CallsStatus{Failed: true}, nil
	default:
		return domain.CallsStatus{}, fmt.Errorf("chain: unknown bundle status %q", s)
	}
}

// isUserRejected inspects a JSON-RPC error for the EIP-1193 rejection code.
func isUserRejected(err error) bool {
	var coded rpc.Error
	if errors.As(err, &coded) {
		return coded.ErrorCode() == userRejectedCode
	}
	return false
}
