// Package positions is the REST client for the fill-recording API. Recording
// is best effort: the batch already settled on-chain by the time a fill is
// posted, so callers log failures and move on.
package positions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/strikelabs/strikedesk/internal/crypto"
	"github.com/strikelabs/strikedesk/internal/domain"
)

// Client is the positions REST client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *crypto.HMACAuth
}

// NewClient creates a positions client. auth may be nil for unauthenticated
// deployments.
func NewClient(baseURL string, auth *crypto.HMACAuth) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		auth:       auth,
	}
}

// apiFill is the wire form of one recorded fill.
type apiFill struct {
	Wallet       string `json:"wallet"`
	PairID       string `json:"pairId"`
	Side         string `json:"side"`
	Question     string `json:"question"`
	USDCAmount   string `json:"usdcAmount"`
	NumContracts string `json:"numContracts"`
	TxHash       string `json:"txHash"`
	BundleID     string `json:"bundleId"`
	FilledAt     string `json:"filledAt"`
}

// RecordFill posts one confirmed fill.
func (c *Client) RecordFill(ctx context.Context, fill domain.Fill) error {
	body := apiFill{
		Wallet:       fill.Wallet,
		PairID:       fill.PairID,
		Side:         string(fill.Side),
		Question:     fill.Question,
		USDCAmount:   fill.USDCAmount.String(),
		NumContracts: fill.NumContracts.String(),
		TxHash:       fill.TxHash,
		BundleID:     fill.BundleID,
		FilledAt:     fill.FilledAt.UTC().Format(time.RFC3339),
	}

	if err := c.doPost(ctx, "/v1/fills", body); err != nil {
		return fmt.Errorf("positions: record fill %s: %w", fill.PairID, err)
	}
	return nil
}

// doPost builds, signs, sends, and checks an authenticated POST.
func (c *Client) doPost(ctx context.Context, path string, body any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.auth != nil {
		for k, v := range c.auth.Headers(http.MethodPost, path, string(jsonBody)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", domain.ErrUnauthorized, respBody)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", domain.ErrRateLimited, respBody)
		default:
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody)
		}
	}
	return nil
}
