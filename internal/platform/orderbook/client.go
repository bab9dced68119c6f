// Package orderbook is the REST client for the off-chain options orderbook.
// Makers post signed orders there; this client only reads them.
package orderbook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// Client is the orderbook REST client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Snapshot is one orderbook fetch: the open maker orders plus the spot
// prices the API quoted alongside them.
type Snapshot struct {
	Orders []domain.RawOrder
	Spots  map[string]float64 // underlying symbol -> spot price in USD
}

// NewClient creates an orderbook client. baseURL is the API root, e.g.
// "https://api.strikelabs.xyz". A zero timeout defaults to 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ordersEnvelope is the wire shape of GET /v1/orders.
type ordersEnvelope struct {
	Data struct {
		Orders     []APIOrder         `json:"orders"`
		MarketData map[string]float64 `json:"market_data"`
	} `json:"data"`
}

// FetchOrders retrieves the open binary orders, optionally filtered to one
// underlying symbol (empty fetches all). Orders with malformed numeric
// fields are dropped with an error count rather than failing the whole
// snapshot; a fully unreadable response is an error.
func (c *Client) FetchOrders(ctx context.Context, underlying string) (Snapshot, error) {
	path := "/v1/orders"
	if underlying != "" {
		path += "?underlying=" + url.QueryEscape(underlying)
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("orderbook: fetch orders: %w", err)
	}

	var envelope ordersEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return Snapshot{}, fmt.Errorf("orderbook: decode orders response: %w", err)
	}

	snap := Snapshot{
		Orders: make([]domain.RawOrder, 0, len(envelope.Data.Orders)),
		Spots:  envelope.Data.MarketData,
	}
	if snap.Spots == nil {
		snap.Spots = map[string]float64{}
	}

	var dropped int
	for i := range envelope.Data.Orders {
		raw, err := envelope.Data.Orders[i].ToDomainRawOrder()
		if err != nil {
			dropped++
			continue
		}
		snap.Orders = append(snap.Orders, raw)
	}
	if dropped > 0 && len(snap.Orders) == 0 {
		return Snapshot{}, fmt.Errorf("orderbook: all %d orders malformed: %w", dropped, domain.ErrInvalidOrder)
	}

	return snap, nil
}

// FetchSpots retrieves only the spot prices, keyed by underlying symbol.
func (c *Client) FetchSpots(ctx context.Context) (map[string]float64, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/v1/market-data")
	if err != nil {
		return nil, fmt.Errorf("orderbook: fetch spots: %w", err)
	}

	var envelope struct {
		Data map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("orderbook: decode market data: %w", err)
	}
	return envelope.Data, nil
}

// doRequest builds, sends, and reads an HTTP request against the orderbook
// API. It returns the raw response body.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
