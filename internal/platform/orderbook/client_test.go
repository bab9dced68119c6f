package orderbook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

const ordersResponse = `{
  "data": {
    "orders": [
      {
        "maker": "0x1111111111111111111111111111111111111111",
        "orderExpiry": 1767312000,
        "collateralToken": "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
        "isCall": true,
        "priceFeed": "0x71041dddad3595f9ced3dccfbe3d1f4b0a16bb70",
        "implementation": "0x2222222222222222222222222222222222222222",
        "isLong": false,
        "maxCollateralUsable": "10000000",
        "strikes": ["300000000000", "350000000000"],
        "expiry": 1767312000,
        "price": "50000000",
        "numContracts": "0",
        "extraOptionData": "0x",
        "signature": "0xdeadbeef",
        "isBinary": true
      },
      {
        "maker": "0x3333333333333333333333333333333333333333",
        "orderExpiry": 1767312000,
        "collateralToken": "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
        "isCall": false,
        "priceFeed": "0x71041dddad3595f9ced3dccfbe3d1f4b0a16bb70",
        "implementation": "0x2222222222222222222222222222222222222222",
        "isLong": false,
        "maxCollateralUsable": "not-a-number",
        "strikes": ["300000000000"],
        "expiry": 1767312000,
        "price": "50000000",
        "numContracts": "0",
        "extraOptionData": "",
        "signature": "0xbeef",
        "isBinary": true
      }
    ],
    "market_data": {"ETH": 3412.55, "BTC": 97120.0}
  }
}`

func TestFetchOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("underlying") != "ETH" {
			t.Errorf("underlying: %s", r.URL.RawQuery)
		}
		w.Write([]byte(ordersResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	snap, err := c.FetchOrders(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// The malformed second order is dropped, the first survives.
	if len(snap.Orders) != 1 {
		t.Fatalf("orders: got %d want 1", len(snap.Orders))
	}
	o := snap.Orders[0]
	if o.MaxCollateral.String() != "10000000" || len(o.Strikes) != 2 {
		t.Errorf("order fields: %+v", o)
	}
	if len(o.Signature) != 4 || o.Signature[0] != 0xde {
		t.Errorf("signature bytes: %x", o.Signature)
	}
	if o.ExtraOptionData != nil {
		t.Errorf("empty 0x must decode to nil, got %x", o.ExtraOptionData)
	}
	if snap.Spots["ETH"] != 3412.55 {
		t.Errorf("spots: %v", snap.Spots)
	}
}

func TestFetchOrdersAllMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"orders":[{"price":"abc","maxCollateralUsable":"1","numContracts":"0"}],"market_data":{}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchOrders(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidOrder) {
		t.Fatalf("got %v", err)
	}
}

func TestToDomainRawOrderRejectsNonPositivePrice(t *testing.T) {
	for _, price := range []string{"0", "-50000000"} {
		o := APIOrder{
			Maker:           "0x1111111111111111111111111111111111111111",
			OrderExpiry:     1767312000,
			CollateralToken: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
			IsCall:          true,
			PriceFeed:       "0x71041dddad3595f9ced3dccfbe3d1f4b0a16bb70",
			MaxCollateral:   "10000000",
			Strikes:         []string{"300000000000", "350000000000"},
			Expiry:          1767312000,
			Price:           price,
			NumContracts:    "0",
			Signature:       "0xbeef",
			IsBinary:        true,
		}
		if _, err := o.ToDomainRawOrder(); !errors.Is(err, domain.ErrInvalidOrder) {
			t.Errorf("price %q: got %v", price, err)
		}
	}
}

func TestCheckHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tc := range cases {
		if err := checkHTTPStatus(tc.code, nil); !errors.Is(err, tc.want) {
			t.Errorf("code %d: got %v want %v", tc.code, err, tc.want)
		}
	}
	if err := checkHTTPStatus(200, nil); err != nil {
		t.Errorf("200: %v", err)
	}
	if err := checkHTTPStatus(500, []byte("boom")); err == nil {
		t.Error("500 must error")
	}
}
